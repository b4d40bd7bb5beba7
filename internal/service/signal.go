package service

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/usecase"
)

// EventChannel receives every work event. Per-domain subscribers can use
// EventChannel + ":" + domain instead.
const EventChannel = "catalog:events"

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event domain.WorkEvent) error {
	ctx, span := tracer.Start(ctx, "Signal.Service.Publish")
	defer span.End()

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	for _, channel := range []string{EventChannel, EventChannel + ":" + string(event.Domain)} {
		if err := s.rdb.Publish(ctx, channel, jsonstr).Err(); err != nil {
			span.RecordError(err)
			return errors.Wrap(err, "publish "+channel)
		}
	}

	return nil
}

var _ usecase.EventPublisher = (*SignalService)(nil)
