package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/xcheck/internal/domain"
)

// RegisterInput selects the entity to certify: the stored record at ID, or,
// when ID is empty, Entity certified under a freshly issued id.
type RegisterInput[T any] struct {
	ID     string
	Entity T
}

// CertificateUsecase issues identity tokens for organisations and journalists.
type CertificateUsecase struct {
	store   RecordStore
	content ContentStore
	tx      *transactor
	events  EventPublisher
	policy  Policy
	now     func() time.Time
}

func NewCertificateUsecase(
	store RecordStore,
	content ContentStore,
	ledger Ledger,
	events EventPublisher,
	policy Policy,
) *CertificateUsecase {
	return &CertificateUsecase{
		store:   store,
		content: content,
		tx:      &transactor{ledger: ledger, policy: policy},
		events:  events,
		policy:  policy,
		now:     time.Now,
	}
}

// certificateRequest is the kind-independent part of an issuance.
type certificateRequest struct {
	coll      domain.Collection
	id        string
	base      domain.Fields
	username  string
	wallet    string
	metadata  tokenMetadata
	prefix    string
	eventType string
}

func (uc *CertificateUsecase) RegisterOrganization(ctx context.Context, input RegisterInput[domain.Organization]) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Certificate.RegisterOrganization")
	defer span.End()

	org := input.Entity
	base := domain.Fields{}
	if input.ID != "" {
		if err := validateID("organization", input.ID); err != nil {
			return Outcome{}, err
		}
		err := uc.store.Get(ctx, domain.CollectionOrganizations, input.ID, &org)
		if errors.Is(err, domain.ErrNotFound) {
			return failed("organization not found"), nil
		}
		if err != nil {
			span.RecordError(err)
			return Outcome{}, domain.NewError(domain.KindPersistence, "fetch organization", err)
		}
		org.ID = input.ID
	} else {
		org.ID = newRecordID()
		fields, err := toFields(org)
		if err != nil {
			return Outcome{}, domain.NewError(domain.KindValidation, "organization", err)
		}
		base = fields
	}

	return uc.issue(ctx, certificateRequest{
		coll:      domain.CollectionOrganizations,
		id:        org.ID,
		base:      base,
		username:  org.Username,
		wallet:    org.WalletAddress,
		metadata:  organizationMetadata(org, uc.policy, uc.now()),
		prefix:    "org",
		eventType: domain.EventTypeOrganizationCertified,
	})
}

func (uc *CertificateUsecase) RegisterJournalist(ctx context.Context, input RegisterInput[domain.Journalist]) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Certificate.RegisterJournalist")
	defer span.End()

	journalist := input.Entity
	base := domain.Fields{}
	if input.ID != "" {
		if err := validateID("journalist", input.ID); err != nil {
			return Outcome{}, err
		}
		err := uc.store.Get(ctx, domain.CollectionJournalists, input.ID, &journalist)
		if errors.Is(err, domain.ErrNotFound) {
			return failed("journalist not found"), nil
		}
		if err != nil {
			span.RecordError(err)
			return Outcome{}, domain.NewError(domain.KindPersistence, "fetch journalist", err)
		}
		journalist.ID = input.ID
	} else {
		journalist.ID = newRecordID()
		fields, err := toFields(journalist)
		if err != nil {
			return Outcome{}, domain.NewError(domain.KindValidation, "journalist", err)
		}
		base = fields
	}

	return uc.issue(ctx, certificateRequest{
		coll:      domain.CollectionJournalists,
		id:        journalist.ID,
		base:      base,
		username:  journalist.Username,
		wallet:    journalist.WalletAddress,
		metadata:  journalistMetadata(journalist, uc.policy, uc.now()),
		prefix:    "journalist",
		eventType: domain.EventTypeJournalistCertified,
	})
}

func (uc *CertificateUsecase) issue(ctx context.Context, req certificateRequest) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Certificate.Issue")
	defer span.End()
	span.SetAttributes(attribute.String("collection", req.coll.String()), attribute.String("id", req.id))

	blob, err := json.Marshal(req.metadata)
	if err != nil {
		return Outcome{}, domain.NewError(domain.KindUpload, "encode metadata", err)
	}

	cid, err := uc.content.Upload(ctx, req.username+".json", blob)
	if err != nil {
		span.RecordError(err)
		return Outcome{}, domain.NewError(domain.KindUpload, "upload metadata", err)
	}
	uri := uc.content.URI(cid)

	wallet := uc.policy.wallet(req.wallet)
	receipt, ev, err := uc.tx.execute(
		ctx,
		domain.MethodSendCertificate,
		domain.EventTransfer,
		common.HexToAddress(wallet),
		req.username,
		uri,
	)
	if errors.Is(err, domain.ErrMissingEvent) {
		slog.WarnContext(
			ctx, "certificate event not found in transaction logs",
			slog.String("collection", req.coll.String()),
			slog.String("id", req.id),
			slog.String("txHash", receipt.TxHash),
			slog.String("module", "workflow"),
		)
		return failed("Event not found in transaction logs"), nil
	}
	if err != nil {
		return Outcome{}, err
	}

	tokenID := argString(ev.Args, "tokenId")
	slog.InfoContext(
		ctx, "certificate minted",
		slog.String("tokenId", tokenID),
		slog.String("wallet", wallet),
		slog.String("txHash", receipt.TxHash),
		slog.String("module", "workflow"),
	)

	fields := merge(req.base, domain.Fields{
		req.prefix + "_token_id":       tokenID,
		req.prefix + "_transaction_id": receipt.TxHash,
		req.prefix + "_pinata_uri":     uri,
	})

	persistCtx := context.WithoutCancel(ctx)
	if err := uc.store.Upsert(persistCtx, req.coll, req.id, fields); err != nil {
		span.RecordError(err)
		return Outcome{}, domain.NewError(domain.KindPersistence, "store certificate", pkgerrors.Wrap(err, req.id))
	}

	publish(persistCtx, uc.events, domain.WorkflowEvent{
		Type:          req.eventType,
		Collection:    req.coll.String(),
		ID:            req.id,
		TransactionID: receipt.TxHash,
		ContentURI:    uri,
	})

	return succeeded(merge(domain.Fields{"_id": req.id}, fields)), nil
}

func publish(ctx context.Context, events EventPublisher, event domain.WorkflowEvent) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, event); err != nil {
		slog.ErrorContext(
			ctx, "failed to publish workflow event",
			slog.String("type", event.Type),
			slog.String("id", event.ID),
			slog.String("error", err.Error()),
			slog.String("module", "workflow"),
		)
	}
}
