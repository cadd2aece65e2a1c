package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/totegamma/xcheck/internal/domain"
	"github.com/totegamma/xcheck/internal/usecase"
)

func TestChannelsFor(t *testing.T) {
	assert.Equal(t, []string{"xcheck:events:news"}, channelsFor([]string{"news"}))
	assert.Equal(t, []string{
		"xcheck:events:organizations",
		"xcheck:events:journalists",
		"xcheck:events:news",
		"xcheck:events:fact_check",
	}, channelsFor(nil))
}

type recordingPublisher struct {
	events []domain.WorkflowEvent
	err    error
}

func (r *recordingPublisher) Publish(ctx context.Context, event domain.WorkflowEvent) error {
	r.events = append(r.events, event)
	return r.err
}

func TestPublishersFanOut(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("down")}
	ok := &recordingPublisher{}
	pubs := Publishers{failing, nil, ok}

	err := pubs.Publish(context.Background(), domain.WorkflowEvent{Type: domain.EventTypeNewsPublished, ID: "a"})
	assert.ErrorContains(t, err, "down")
	assert.Len(t, failing.events, 1)
	assert.Len(t, ok.events, 1)

	var _ usecase.EventPublisher = pubs
	assert.NoError(t, Publishers{ok}.Publish(context.Background(), domain.WorkflowEvent{}))
}
