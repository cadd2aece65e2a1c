package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/xcheck/internal/domain"
	"github.com/totegamma/xcheck/internal/infra/database/models"
)

// CommitLogRepository keeps an audit trail of persisted ledger transactions.
type CommitLogRepository struct {
	db *gorm.DB
}

func NewCommitLogRepository(db *gorm.DB) *CommitLogRepository {
	return &CommitLogRepository{db: db}
}

// Publish records event. Replays of the same transaction are ignored.
func (r *CommitLogRepository) Publish(ctx context.Context, event domain.WorkflowEvent) error {
	ctx, span := tracer.Start(ctx, "Repository.CommitLog.Publish")
	defer span.End()

	if event.TransactionID == "" {
		return nil
	}

	entry := models.CommitLog{
		TxHash:     event.TransactionID,
		Type:       event.Type,
		Collection: event.Collection,
		Key:        event.ID,
		ParentKey:  event.ParentID,
		ContentURI: event.ContentURI,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "record commit log")
	}
	return nil
}

// History returns the transactions recorded for key, oldest first.
func (r *CommitLogRepository) History(ctx context.Context, key string) ([]domain.CommitEntry, error) {
	ctx, span := tracer.Start(ctx, "Repository.CommitLog.History")
	defer span.End()

	var entries []models.CommitLog
	err := r.db.WithContext(ctx).
		Where("key = ? OR parent_key = ?", key, key).
		Order("c_date ASC").
		Find(&entries).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "load commit log")
	}

	result := make([]domain.CommitEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, domain.CommitEntry{
			TxHash:     e.TxHash,
			Type:       e.Type,
			Collection: e.Collection,
			ID:         e.Key,
			ParentID:   e.ParentKey,
			ContentURI: e.ContentURI,
			CDate:      e.CDate,
		})
	}
	return result, nil
}
