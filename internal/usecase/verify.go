package usecase

import (
	"context"

	"github.com/totegamma/xcheck/internal/domain"
)

const (
	StatusPresent    = "present"
	StatusNotPresent = "not-present"
)

// VerifyUsecase checks content ids against the ledger.
type VerifyUsecase struct {
	ledger LedgerReader
}

func NewVerifyUsecase(ledger LedgerReader) *VerifyUsecase {
	return &VerifyUsecase{ledger: ledger}
}

func status(ok bool) string {
	if ok {
		return StatusPresent
	}
	return StatusNotPresent
}

// NewsCID reports whether cid was published under the certificate of user.
func (uc *VerifyUsecase) NewsCID(ctx context.Context, cid, user string) (string, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Verify.NewsCID")
	defer span.End()

	tokenID, err := uc.ledger.TokenIDOf(ctx, user)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	ok, err := uc.ledger.VerifyCID(ctx, tokenID, cid)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return status(ok), nil
}

// FactCID reports whether factCid was recorded as a fact-check of cid.
func (uc *VerifyUsecase) FactCID(ctx context.Context, cid, factCid string) (string, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Verify.FactCID")
	defer span.End()

	ok, err := uc.ledger.VerifyFactCheckerCID(ctx, cid, factCid)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return status(ok), nil
}

// AuditUsecase serves the transaction history of a record.
type AuditUsecase struct {
	log AuditLog
}

func NewAuditUsecase(log AuditLog) *AuditUsecase {
	return &AuditUsecase{log: log}
}

// Transactions returns every transaction recorded for id or with id as
// parent, oldest first.
func (uc *AuditUsecase) Transactions(ctx context.Context, id string) ([]domain.CommitEntry, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Audit.Transactions")
	defer span.End()

	if err := validateID("id", id); err != nil {
		return nil, err
	}
	entries, err := uc.log.History(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, domain.NewError(domain.KindPersistence, "load history", err)
	}
	return entries, nil
}
