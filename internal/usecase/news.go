package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common/hexutil"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/xcheck/internal/domain"
)

// SubmitInput selects the news to publish: the stored record at ID, or, when
// ID is empty, Record published under a freshly issued id. Record is kept as
// posted, fields the service does not model included.
type SubmitInput struct {
	ID     string
	Record domain.Fields
}

// ReviseInput links the submission stored at NewID to the record at OldID.
type ReviseInput struct {
	OldID string
	NewID string
}

// NewsUsecase publishes news content references on the ledger.
type NewsUsecase struct {
	store   RecordStore
	content ContentStore
	tx      *transactor
	events  EventPublisher
	policy  Policy
}

func NewNewsUsecase(
	store RecordStore,
	content ContentStore,
	ledger Ledger,
	events EventPublisher,
	policy Policy,
) *NewsUsecase {
	return &NewsUsecase{
		store:   store,
		content: content,
		tx:      &transactor{ledger: ledger, policy: policy},
		events:  events,
		policy:  policy,
	}
}

// publish pins the whole stored document and references its content id on
// the ledger. The blob is named after the first author.
func (uc *NewsUsecase) publish(ctx context.Context, id string, doc domain.Fields) (domain.Submission, error) {
	ctx, span := tracer.Start(ctx, "Usecase.News.Publish")
	defer span.End()

	blob, err := json.Marshal(withRecordID(doc, id))
	if err != nil {
		return domain.Submission{}, domain.NewError(domain.KindUpload, "encode news", err)
	}

	cid, err := uc.content.Upload(ctx, firstString(doc, domain.FieldNewsAuthors), blob)
	if err != nil {
		span.RecordError(err)
		return domain.Submission{}, domain.NewError(domain.KindUpload, "upload news", err)
	}

	receipt, ev, err := uc.tx.execute(ctx, domain.MethodSubmitNews, domain.EventStoredLatestNews, cid)
	if err != nil {
		return domain.Submission{TransactionID: receipt.TxHash}, err
	}

	sub := domain.Submission{
		ContentID:     cid,
		ContentURI:    uc.content.URI(cid),
		TransactionID: receipt.TxHash,
		EventData:     argBytes(ev.Args, "data"),
	}

	slog.InfoContext(
		ctx, "news content referenced on ledger",
		slog.String("cid", sub.ContentID),
		slog.String("eventData", hexutil.Encode(sub.EventData)),
		slog.String("txHash", sub.TransactionID),
		slog.String("module", "workflow"),
	)

	return sub, nil
}

// firstSubmission is the document of a record whose history starts with sub.
func (uc *NewsUsecase) firstSubmission(parentWallet string, sub domain.Submission) domain.Fields {
	wallet := uc.policy.wallet(parentWallet)
	return domain.Fields{
		domain.FieldParentWallet:        wallet,
		domain.FieldParentPinataID:      sub.ContentID,
		domain.FieldParentPinataURI:     sub.ContentURI,
		domain.FieldParentTransactionID: sub.TransactionID,
		domain.FieldLatestWallet:        wallet,
		domain.FieldLatestPinataID:      sub.ContentID,
		domain.FieldLatestPinataURI:     sub.ContentURI,
		domain.FieldLatestTransactionID: sub.TransactionID,
		domain.FieldChildIDs:            []string{},
		domain.FieldWalletAddresses:     []string{wallet},
		domain.FieldPinataIDs:           []string{sub.ContentID},
		domain.FieldPinataURIs:          []string{sub.ContentURI},
		domain.FieldTransactionIDs:      []string{sub.TransactionID},
	}
}

// Submit publishes a news record for the first time.
func (uc *NewsUsecase) Submit(ctx context.Context, input SubmitInput) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Usecase.News.Submit")
	defer span.End()

	var (
		id   string
		doc  domain.Fields
		base domain.Fields
	)
	if input.ID != "" {
		if err := validateID("news", input.ID); err != nil {
			return Outcome{}, err
		}
		err := uc.store.Get(ctx, domain.CollectionNews, input.ID, &doc)
		if errors.Is(err, domain.ErrNotFound) {
			return failed("news not found"), nil
		}
		if err != nil {
			span.RecordError(err)
			return Outcome{}, domain.NewError(domain.KindPersistence, "fetch news", err)
		}
		id = input.ID
		base = domain.Fields{}
	} else {
		id = newRecordID()
		doc = withoutRecordID(input.Record)
		base = withoutRecordID(input.Record)
	}
	span.SetAttributes(attribute.String("id", id))

	sub, err := uc.publish(ctx, id, doc)
	if errors.Is(err, domain.ErrMissingEvent) {
		return failed("Event not found in transaction logs"), nil
	}
	if err != nil {
		return Outcome{}, err
	}

	fields := merge(base, uc.firstSubmission(stringField(doc, domain.FieldParentWallet), sub))

	persistCtx := context.WithoutCancel(ctx)
	if err := uc.store.Upsert(persistCtx, domain.CollectionNews, id, fields); err != nil {
		span.RecordError(err)
		return Outcome{}, domain.NewError(domain.KindPersistence, "store news", pkgerrors.Wrap(err, id))
	}

	publish(persistCtx, uc.events, domain.WorkflowEvent{
		Type:          domain.EventTypeNewsPublished,
		Collection:    domain.CollectionNews.String(),
		ID:            id,
		TransactionID: sub.TransactionID,
		ContentURI:    sub.ContentURI,
	})

	return succeeded(merge(domain.Fields{"_id": id}, fields)), nil
}

// Revise publishes the record at NewID as a revision of OldID.
func (uc *NewsUsecase) Revise(ctx context.Context, input ReviseInput) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Usecase.News.Revise")
	defer span.End()
	return uc.revise(ctx, domain.CollectionNews, domain.EventTypeNewsRevised, input)
}

// FactCheck publishes the fact-check at NewID against OldID.
func (uc *NewsUsecase) FactCheck(ctx context.Context, input ReviseInput) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Usecase.News.FactCheck")
	defer span.End()
	return uc.revise(ctx, domain.CollectionFactCheck, domain.EventTypeFactChecked, input)
}

// revise writes the fresh submission at NewID, then appends it to the
// history of OldID. The two writes are not atomic together: when the second
// fails, the record at NewID stays unlinked from its parent.
func (uc *NewsUsecase) revise(ctx context.Context, coll domain.Collection, eventType string, input ReviseInput) (Outcome, error) {
	if err := validateID("old_id", input.OldID); err != nil {
		return Outcome{}, err
	}
	if err := validateID("new_id", input.NewID); err != nil {
		return Outcome{}, err
	}

	var doc domain.Fields
	err := uc.store.Get(ctx, coll, input.NewID, &doc)
	if errors.Is(err, domain.ErrNotFound) {
		return failed("news not found"), nil
	}
	if err != nil {
		return Outcome{}, domain.NewError(domain.KindPersistence, "fetch news", err)
	}

	sub, err := uc.publish(ctx, input.NewID, doc)
	if errors.Is(err, domain.ErrMissingEvent) {
		return failed("Event not found in transaction logs"), nil
	}
	if err != nil {
		return Outcome{}, err
	}

	latestWallet := uc.policy.wallet(stringField(doc, domain.FieldLatestWallet))
	set := domain.Fields{
		domain.FieldLatestWallet:        latestWallet,
		domain.FieldLatestPinataID:      sub.ContentID,
		domain.FieldLatestPinataURI:     sub.ContentURI,
		domain.FieldLatestTransactionID: sub.TransactionID,
	}
	push := domain.Fields{
		domain.FieldChildIDs:        input.NewID,
		domain.FieldWalletAddresses: latestWallet,
		domain.FieldPinataIDs:       sub.ContentID,
		domain.FieldPinataURIs:      sub.ContentURI,
		domain.FieldTransactionIDs:  sub.TransactionID,
	}

	persistCtx := context.WithoutCancel(ctx)
	if err := uc.store.Upsert(persistCtx, coll, input.NewID, uc.firstSubmission(stringField(doc, domain.FieldParentWallet), sub)); err != nil {
		return Outcome{}, domain.NewError(domain.KindPersistence, "store revision", pkgerrors.Wrap(err, input.NewID))
	}

	if err := uc.store.SetAndPush(persistCtx, coll, input.OldID, set, push); err != nil {
		slog.ErrorContext(
			persistCtx, "revision stored but not linked to its parent",
			slog.String("collection", coll.String()),
			slog.String("oldId", input.OldID),
			slog.String("newId", input.NewID),
			slog.String("error", err.Error()),
			slog.String("module", "workflow"),
		)
		return Outcome{}, domain.NewError(domain.KindPersistence, "link revision", pkgerrors.Wrap(err, input.OldID))
	}

	publish(persistCtx, uc.events, domain.WorkflowEvent{
		Type:          eventType,
		Collection:    coll.String(),
		ID:            input.NewID,
		ParentID:      input.OldID,
		TransactionID: sub.TransactionID,
		ContentURI:    sub.ContentURI,
	})

	return succeeded(merge(domain.Fields{
		"_id":          input.OldID,
		"new_mongo_id": input.NewID,
	}, set)), nil
}
