package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/xcheck/internal/domain"
)

var tracer = otel.Tracer("usecase")

// Policy holds the fallbacks every workflow shares.
type Policy struct {
	PlaceholderWallet        string
	DefaultGasLimit          uint64
	DefaultOrganizationImage string
	DefaultJournalistImage   string
	// ConfirmTimeout bounds the wait for a transaction to be mined. Zero waits
	// until the chain mines it.
	ConfirmTimeout time.Duration
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		PlaceholderWallet:        domain.PlaceholderWallet,
		DefaultGasLimit:          domain.DefaultGasLimit,
		DefaultOrganizationImage: domain.DefaultOrganizationImage,
		DefaultJournalistImage:   domain.DefaultJournalistImage,
	}
}

func (p Policy) wallet(addr string) string {
	if addr == "" {
		return p.PlaceholderWallet
	}
	return addr
}

// Outcome is the result envelope of a workflow. Expected business failures
// (a missing receipt event, an unknown record) come back as Success=false;
// infrastructure faults are returned as errors instead.
type Outcome struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Data    domain.Fields `json:"data,omitempty"`
}

func failed(msg string) Outcome {
	return Outcome{Success: false, Error: msg}
}

func succeeded(data domain.Fields) Outcome {
	return Outcome{Success: true, Data: data}
}

// transactor runs the estimate, submit, confirm, extract sequence.
type transactor struct {
	ledger Ledger
	policy Policy
}

func (t *transactor) gasLimit(ctx context.Context, method string, args ...any) uint64 {
	gas, err := t.ledger.EstimateGas(ctx, method, args...)
	if err != nil {
		slog.WarnContext(
			ctx, "gas estimation failed, using default limit",
			slog.String("method", method),
			slog.Uint64("gasLimit", t.policy.DefaultGasLimit),
			slog.String("error", domain.NewError(domain.KindEstimation, method, err).Error()),
			slog.String("module", "workflow"),
		)
		return t.policy.DefaultGasLimit
	}
	if gas == 0 {
		return t.policy.DefaultGasLimit
	}
	return gas
}

// execute submits method and waits for its receipt. A receipt without the
// expected event yields a KindMissingEvent error.
//
// Once submitted the transaction cannot be recalled, so confirmation runs on
// a context detached from the caller's cancellation.
func (t *transactor) execute(ctx context.Context, method, event string, args ...any) (domain.Receipt, domain.LedgerEvent, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Transactor.Execute")
	defer span.End()
	span.SetAttributes(attribute.String("method", method))

	gas := t.gasLimit(ctx, method, args...)

	txCtx := context.WithoutCancel(ctx)
	pending, err := t.ledger.Submit(txCtx, method, gas, args...)
	if err != nil {
		err = domain.NewError(domain.KindSubmission, method, err)
		span.RecordError(err)
		return domain.Receipt{}, domain.LedgerEvent{}, err
	}
	span.SetAttributes(attribute.String("txHash", pending.Hash()))

	if t.policy.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(txCtx, t.policy.ConfirmTimeout)
		defer cancel()
	}

	receipt, err := pending.Confirm(txCtx)
	if err != nil {
		err = domain.NewError(domain.KindSubmission, method, err)
		span.RecordError(err)
		return domain.Receipt{}, domain.LedgerEvent{}, err
	}
	if receipt.TxHash == "" {
		receipt.TxHash = pending.Hash()
	}

	ev, ok := receipt.Event(event)
	if !ok {
		err = domain.NewError(domain.KindMissingEvent, method, fmt.Errorf("event %s not found in transaction logs", event))
		span.RecordError(err)
		return receipt, domain.LedgerEvent{}, err
	}

	return receipt, ev, nil
}

func argString(args map[string]any, name string) string {
	v, ok := args[name]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case *big.Int:
		return x.String()
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func argBytes(args map[string]any, name string) []byte {
	switch x := args[name].(type) {
	case []byte:
		return x
	case string:
		return []byte(x)
	default:
		return nil
	}
}
