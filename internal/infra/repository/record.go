package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/xcheck/internal/domain"
	"github.com/totegamma/xcheck/internal/infra/database/models"
)

// RecordRepository stores documents as JSONB bodies in Postgres.
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Get(ctx context.Context, coll domain.Collection, id string, out any) error {
	ctx, span := tracer.Start(ctx, "Repository.Record.Get")
	defer span.End()

	var doc models.Document
	err := r.db.WithContext(ctx).
		Where("collection = ? AND key = ?", coll.String(), id).
		Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFoundError{Resource: coll.String()}
	}
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "get document")
	}

	return decodeBody(doc.Key, []byte(doc.Body), out)
}

func (r *RecordRepository) Upsert(ctx context.Context, coll domain.Collection, id string, fields domain.Fields) error {
	ctx, span := tracer.Start(ctx, "Repository.Record.Upsert")
	defer span.End()

	body, err := json.Marshal(withoutID(fields))
	if err != nil {
		return errors.Wrap(err, "encode document")
	}

	doc := models.Document{
		Collection: coll.String(),
		Key:        id,
		Body:       string(body),
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "collection"}, {Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"body":   gorm.Expr("documents.body || EXCLUDED.body"),
			"m_date": gorm.Expr("EXCLUDED.m_date"),
		}),
	}).Create(&doc).Error
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "upsert document")
	}
	return nil
}

// SetAndPush locks the row, applies the update to its body and writes it back
// inside one transaction.
func (r *RecordRepository) SetAndPush(ctx context.Context, coll domain.Collection, id string, set, push domain.Fields) error {
	ctx, span := tracer.Start(ctx, "Repository.Record.SetAndPush")
	defer span.End()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc := models.Document{
			Collection: coll.String(),
			Key:        id,
			Body:       "{}",
		}
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND key = ?", coll.String(), id).
			Take(&doc).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		body, err := applySetAndPush([]byte(doc.Body), set, push)
		if err != nil {
			return err
		}
		doc.Body = string(body)

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "m_date"}),
		}).Create(&doc).Error
	})
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "set and push document")
	}
	return nil
}

func (r *RecordRepository) List(ctx context.Context, coll domain.Collection, filter domain.Fields, out any) error {
	ctx, span := tracer.Start(ctx, "Repository.Record.List")
	defer span.End()

	q := r.db.WithContext(ctx).Where("collection = ?", coll.String())
	for k, v := range filter {
		q = q.Where("body ->> ? = ?", k, fmt.Sprint(v))
	}

	var docs []models.Document
	if err := q.Order("key DESC").Find(&docs).Error; err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "list documents")
	}

	bodies := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		b, err := bodyWithID(doc.Key, []byte(doc.Body))
		if err != nil {
			return err
		}
		bodies = append(bodies, b)
	}
	return decodeList(bodies, out)
}
