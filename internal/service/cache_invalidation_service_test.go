package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"companion-game-be/internal/entity"
	"companion-game-be/pkg/events"
	pktNats "companion-game-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	eventType string
	durable   string
	handler   pktNats.EventHandler
}

func (s *fakeSubscriber) Subscribe(eventType string, durableName string, handler pktNats.EventHandler) error {
	s.eventType = eventType
	s.durable = durableName
	s.handler = handler
	return nil
}

type fakeInvalidator struct {
	calls []struct {
		userId   uuid.UUID
		platform entity.Platform
	}
}

func (f *fakeInvalidator) Invalidate(_ context.Context, userId uuid.UUID, platform entity.Platform) {
	f.calls = append(f.calls, struct {
		userId   uuid.UUID
		platform entity.Platform
	}{userId, platform})
}

func startInvalidation(t *testing.T) (*fakeSubscriber, *fakeInvalidator) {
	t.Helper()
	sub := &fakeSubscriber{}
	inv := &fakeInvalidator{}
	svc := NewCacheInvalidationService(sub, inv, noopLogger{})
	require.NoError(t, svc.Start())
	require.NotNil(t, sub.handler)
	return sub, inv
}

func TestInvalidationSubscribesToCompletions(t *testing.T) {
	sub, _ := startInvalidation(t)

	assert.Equal(t, events.TypePipelineCompleted, sub.eventType)
	assert.True(t, strings.HasPrefix(sub.durable, "prompt-invalidator-"))
	assert.Greater(t, len(sub.durable), len("prompt-invalidator-"))
}

func TestInvalidationDropsBothPlatforms(t *testing.T) {
	sub, inv := startInvalidation(t)

	userId := uuid.New()
	event := events.NewPipelineCompleted(uuid.NewString(), userId.String(), 120)

	require.NoError(t, sub.handler(context.Background(), event))

	require.Len(t, inv.calls, 2)
	assert.Equal(t, userId, inv.calls[0].userId)
	assert.Equal(t, entity.PlatformText, inv.calls[0].platform)
	assert.Equal(t, userId, inv.calls[1].userId)
	assert.Equal(t, entity.PlatformVoice, inv.calls[1].platform)
}

func TestInvalidationIgnoresMalformedEvents(t *testing.T) {
	sub, inv := startInvalidation(t)

	noUser := events.BaseEvent{
		Type:       events.TypePipelineCompleted,
		Data:       map[string]interface{}{"conversation_id": uuid.NewString()},
		OccurredAt: time.Now().UTC(),
	}
	assert.NoError(t, sub.handler(context.Background(), noUser))

	badUser := events.BaseEvent{
		Type:       events.TypePipelineCompleted,
		Data:       map[string]interface{}{"user_id": "not-a-uuid"},
		OccurredAt: time.Now().UTC(),
	}
	assert.NoError(t, sub.handler(context.Background(), badUser))

	assert.Empty(t, inv.calls)
}
