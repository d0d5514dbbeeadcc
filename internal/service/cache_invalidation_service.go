package service

import (
	"context"
	"fmt"
	"os"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/pkg/logger"
	"companion-game-be/pkg/events"
	pktNats "companion-game-be/pkg/nats"

	"github.com/google/uuid"
)

type ICacheInvalidationService interface {
	Start() error
}

// EventSubscriber is the slice of the NATS subscriber this service needs.
type EventSubscriber interface {
	Subscribe(eventType string, durableName string, handler pktNats.EventHandler) error
}

// PromptInvalidator drops cached prompt copies for one user and platform.
type PromptInvalidator interface {
	Invalidate(ctx context.Context, userId uuid.UUID, platform entity.Platform)
}

// cacheInvalidationService keeps this instance's prompt caches coherent with
// pipeline runs that finished on other instances: when a run completes
// anywhere, the locally cached prompt for that user is stale and gets
// dropped so the next session read falls through to the fresh row.
type cacheInvalidationService struct {
	subscriber EventSubscriber
	loader     PromptInvalidator
	log        logger.ILogger
}

func NewCacheInvalidationService(
	subscriber EventSubscriber,
	loader PromptInvalidator,
	log logger.ILogger,
) ICacheInvalidationService {
	return &cacheInvalidationService{
		subscriber: subscriber,
		loader:     loader,
		log:        log,
	}
}

func (s *cacheInvalidationService) Start() error {
	// Per-instance durable: every instance holds its own local cache, so
	// every instance must see every completion. A shared durable would split
	// the stream between them.
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = uuid.NewString()[:8]
	}
	durable := fmt.Sprintf("prompt-invalidator-%s", host)

	return s.subscriber.Subscribe(events.TypePipelineCompleted, durable, s.handlePipelineCompleted)
}

func (s *cacheInvalidationService) handlePipelineCompleted(ctx context.Context, event events.Event) error {
	raw, ok := event.Payload()["user_id"].(string)
	if !ok || raw == "" {
		s.log.Warn("cache_invalidation", "event_missing_user_id", map[string]interface{}{
			"type": event.EventType(),
		})
		return nil
	}

	userId, err := uuid.Parse(raw)
	if err != nil {
		s.log.Warn("cache_invalidation", "event_bad_user_id", map[string]interface{}{
			"raw": raw,
		})
		return nil
	}

	// A completed run rebuilds prompts for both platforms.
	s.loader.Invalidate(ctx, userId, entity.PlatformText)
	s.loader.Invalidate(ctx, userId, entity.PlatformVoice)

	s.log.Debug("cache_invalidation", "prompt_cache_dropped", map[string]interface{}{
		"user_id": raw,
	})
	return nil
}
