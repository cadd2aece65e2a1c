package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/xcheck/internal/domain"
	"github.com/totegamma/xcheck/internal/usecase"
)

const channelPrefix = "xcheck:events:"

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

// channelsFor maps collection names to pub/sub channels. No names means every
// collection.
func channelsFor(collections []string) []string {
	if len(collections) == 0 {
		for _, c := range domain.Collections {
			collections = append(collections, c.String())
		}
	}
	channels := make([]string, 0, len(collections))
	for _, c := range collections {
		channels = append(channels, channelPrefix+c)
	}
	return channels
}

func (s *SignalService) Publish(ctx context.Context, event domain.WorkflowEvent) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, channelPrefix+event.Collection, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Realtime forwards the events of the collections last requested on request
// to response until ctx is done or request is closed.
func (s *SignalService) Realtime(ctx context.Context, request <-chan []string, response chan<- domain.WorkflowEvent) {
	pubsub := s.rdb.Subscribe(ctx)
	defer pubsub.Close()

	messages := pubsub.Channel()
	var current []string

	for {
		select {
		case <-ctx.Done():
			return
		case collections, ok := <-request:
			if !ok {
				return
			}
			if len(current) > 0 {
				if err := pubsub.Unsubscribe(ctx, current...); err != nil {
					slog.ErrorContext(ctx, "failed to unsubscribe", slog.String("error", err.Error()), slog.String("module", "signal"))
				}
			}
			current = channelsFor(collections)
			if err := pubsub.Subscribe(ctx, current...); err != nil {
				slog.ErrorContext(ctx, "failed to subscribe", slog.String("error", err.Error()), slog.String("module", "signal"))
			}
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event domain.WorkflowEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.WarnContext(ctx, "malformed event", slog.String("channel", msg.Channel), slog.String("module", "signal"))
				continue
			}
			select {
			case response <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Publishers fans an event out to every publisher and joins their errors.
type Publishers []usecase.EventPublisher

func (p Publishers) Publish(ctx context.Context, event domain.WorkflowEvent) error {
	var errs []error
	for _, pub := range p {
		if pub == nil {
			continue
		}
		if err := pub.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
