package gateway

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/totegamma/xcheck/internal/domain"
	"github.com/totegamma/xcheck/internal/usecase"
)

// EthereumBackend is what the ledger needs from a chain connection.
// *ethclient.Client satisfies it.
type EthereumBackend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Ledger talks to the certification contract through a signing account.
type Ledger struct {
	backend  EthereumBackend
	abi      abi.ABI
	address  common.Address
	contract *bind.BoundContract
	signer   *bind.TransactOpts
	cache    *cache.Cache

	// serializes submissions so that nonces are taken in order
	mu sync.Mutex
}

// DialLedger connects to rpcURL and binds the contract at contractAddress.
func DialLedger(ctx context.Context, rpcURL, contractAddress, privateKey string, chainID int64) (*Ledger, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial ethereum rpc")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}

	var id *big.Int
	if chainID > 0 {
		id = big.NewInt(chainID)
	} else {
		id, err = client.ChainID(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "fetch chain id")
		}
	}

	return NewLedger(client, common.HexToAddress(contractAddress), key, id)
}

func NewLedger(backend EthereumBackend, address common.Address, key *ecdsa.PrivateKey, chainID *big.Int) (*Ledger, error) {
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse contract abi")
	}

	signer, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, errors.Wrap(err, "create transactor")
	}

	return &Ledger{
		backend:  backend,
		abi:      parsed,
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		signer:   signer,
		cache:    cache.New(10*time.Minute, 15*time.Minute),
	}, nil
}

// Account is the address transactions are signed with.
func (l *Ledger) Account() common.Address {
	return l.signer.From
}

func (l *Ledger) EstimateGas(ctx context.Context, method string, args ...any) (uint64, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Ledger.EstimateGas")
	defer span.End()

	data, err := l.abi.Pack(method, args...)
	if err != nil {
		return 0, errors.Wrapf(err, "pack %s", method)
	}

	gas, err := l.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: l.signer.From,
		To:   &l.address,
		Data: data,
	})
	if err != nil {
		span.RecordError(err)
		return 0, errors.Wrapf(err, "estimate %s", method)
	}
	return gas, nil
}

func (l *Ledger) Submit(ctx context.Context, method string, gasLimit uint64, args ...any) (usecase.PendingTxn, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Ledger.Submit")
	defer span.End()

	opts := *l.signer
	opts.Context = ctx
	opts.GasLimit = gasLimit

	l.mu.Lock()
	tx, err := l.contract.Transact(&opts, method, args...)
	l.mu.Unlock()
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrapf(err, "transact %s", method)
	}

	slog.InfoContext(
		ctx, "transaction submitted",
		slog.String("method", method),
		slog.String("txHash", tx.Hash().Hex()),
		slog.Uint64("gasLimit", gasLimit),
		slog.String("module", "ledger"),
	)

	return &pendingTxn{ledger: l, tx: tx}, nil
}

type pendingTxn struct {
	ledger *Ledger
	tx     *types.Transaction
}

func (p *pendingTxn) Hash() string {
	return p.tx.Hash().Hex()
}

// Confirm blocks until the transaction is mined or ctx is done.
func (p *pendingTxn) Confirm(ctx context.Context) (domain.Receipt, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Ledger.Confirm")
	defer span.End()

	receipt, err := bind.WaitMined(ctx, p.ledger.backend, p.tx)
	if err != nil {
		span.RecordError(err)
		return domain.Receipt{}, errors.Wrap(err, "wait mined")
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		err := fmt.Errorf("transaction %s reverted", p.Hash())
		span.RecordError(err)
		return domain.Receipt{}, err
	}

	result := domain.Receipt{
		TxHash:  p.Hash(),
		GasUsed: receipt.GasUsed,
		Status:  receipt.Status,
		Events:  p.ledger.decodeEvents(ctx, receipt.Logs),
	}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return result, nil
}

// decodeEvents returns the contract events found in logs. Logs of other
// contracts and unknown events are skipped.
func (l *Ledger) decodeEvents(ctx context.Context, logs []*types.Log) []domain.LedgerEvent {
	events := []domain.LedgerEvent{}
	for _, lg := range logs {
		if lg == nil || lg.Address != l.address || len(lg.Topics) == 0 {
			continue
		}
		ev, err := l.abi.EventByID(lg.Topics[0])
		if err != nil {
			continue
		}
		args := map[string]any{}
		if err := l.contract.UnpackLogIntoMap(args, ev.Name, *lg); err != nil {
			slog.WarnContext(
				ctx, "failed to decode contract event",
				slog.String("event", ev.Name),
				slog.String("error", err.Error()),
				slog.String("module", "ledger"),
			)
			continue
		}
		events = append(events, domain.LedgerEvent{Name: ev.Name, Args: args})
	}
	return events
}

func (l *Ledger) call(ctx context.Context, method string, args ...any) (any, error) {
	var out []any
	err := l.contract.Call(&bind.CallOpts{Context: ctx, From: l.signer.From}, &out, method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s", method)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("call %s: empty result", method)
	}
	return out[0], nil
}

// TokenIDOf returns the certificate token held by user.
func (l *Ledger) TokenIDOf(ctx context.Context, user string) (string, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Ledger.TokenIDOf")
	defer span.End()

	if !common.IsHexAddress(user) {
		return "", fmt.Errorf("invalid address %q", user)
	}

	cacheKey := "token:" + strings.ToLower(user)
	if x, found := l.cache.Get(cacheKey); found {
		return x.(string), nil
	}

	v, err := l.call(ctx, domain.MethodGetTokenIdOfAnUser, common.HexToAddress(user))
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	id, ok := v.(*big.Int)
	if !ok {
		return "", fmt.Errorf("unexpected token id type %T", v)
	}

	tokenID := id.String()
	l.cache.Set(cacheKey, tokenID, cache.DefaultExpiration)
	return tokenID, nil
}

func (l *Ledger) VerifyCID(ctx context.Context, tokenID, cid string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Ledger.VerifyCID")
	defer span.End()

	id, ok := new(big.Int).SetString(tokenID, 10)
	if !ok {
		return false, fmt.Errorf("invalid token id %q", tokenID)
	}

	v, err := l.call(ctx, domain.MethodVerifyCid, id, cid)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	present, _ := v.(bool)
	return present, nil
}

func (l *Ledger) VerifyFactCheckerCID(ctx context.Context, cid, factCid string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Ledger.VerifyFactCheckerCID")
	defer span.End()

	v, err := l.call(ctx, domain.MethodVerifyFactCheckerCid, cid, factCid)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	present, _ := v.(bool)
	return present, nil
}
