package usecase

import (
	"context"

	"github.com/totegamma/xcheck/internal/domain"
)

// ContentStore pins a named blob and returns its content id.
type ContentStore interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
	URI(cid string) string
}

// Ledger wraps the certification contract.
type Ledger interface {
	EstimateGas(ctx context.Context, method string, args ...any) (uint64, error)
	Submit(ctx context.Context, method string, gasLimit uint64, args ...any) (PendingTxn, error)
}

// PendingTxn is a submitted, not yet mined, transaction.
type PendingTxn interface {
	Hash() string
	Confirm(ctx context.Context) (domain.Receipt, error)
}

// LedgerReader exposes the contract's read-only verification calls.
type LedgerReader interface {
	TokenIDOf(ctx context.Context, user string) (string, error)
	VerifyCID(ctx context.Context, tokenID, cid string) (bool, error)
	VerifyFactCheckerCID(ctx context.Context, cid, factCid string) (bool, error)
}

// RecordStore persists documents keyed by record id.
type RecordStore interface {
	// Get decodes the document at id into out or returns domain.NotFoundError.
	Get(ctx context.Context, coll domain.Collection, id string, out any) error
	// Upsert sets fields on the document at id, creating it when absent.
	Upsert(ctx context.Context, coll domain.Collection, id string, fields domain.Fields) error
	// SetAndPush sets scalar fields and appends one element to each list field
	// in a single atomic write, creating the document when absent.
	SetAndPush(ctx context.Context, coll domain.Collection, id string, set, push domain.Fields) error
	// List decodes every document matching filter into out, a pointer to a
	// slice, newest id first.
	List(ctx context.Context, coll domain.Collection, filter domain.Fields, out any) error
}

// EventPublisher broadcasts completed workflows.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.WorkflowEvent) error
}

// AuditLog returns the recorded ledger transactions of a record.
type AuditLog interface {
	History(ctx context.Context, id string) ([]domain.CommitEntry, error)
}
