package service

import (
	"context"
	"encoding/json"
	"time"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/pkg/logger"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/specification"
	"companion-game-be/pkg/events"
	"companion-game-be/pkg/pipeline"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the onboarding topic: for each new user it runs the
// user-scoped pipeline so their default states and first ready prompt exist
// before their first real conversation.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	users     contract.UserRepository
	batch     *pipeline.Orchestrator
	publisher pipeline.EventPublisher
	log       logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	users contract.UserRepository,
	batch *pipeline.Orchestrator,
	publisher pipeline.EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		users:     users,
		batch:     batch,
		publisher: publisher,
		log:       log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload onboardingMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		// Malformed messages are acked: retrying cannot fix them.
		cs.log.Error("onboarding_consumer", "unmarshal_failed", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	userId, err := uuid.Parse(payload.UserId)
	if err != nil {
		cs.log.Error("onboarding_consumer", "invalid_user_id", map[string]interface{}{"raw": payload.UserId})
		msg.Ack()
		return
	}

	if _, runErr := cs.batch.ProcessUser(ctx, userId); runErr != nil {
		cs.log.Error("onboarding_consumer", "bootstrap_failed", map[string]interface{}{
			"user_id": payload.UserId, "kind": runErr.Kind, "error": runErr.Message,
		})
		msg.Nack()
		return
	}

	user, err := cs.users.FindOne(ctx, specification.ByID{ID: userId})
	if err != nil || user == nil {
		cs.log.Error("onboarding_consumer", "user_lookup_failed", map[string]interface{}{"user_id": payload.UserId})
		msg.Nack()
		return
	}

	now := time.Now().UTC()
	user.Status = entity.UserStatusActive
	user.OnboardedAt = &now
	if err := cs.users.Update(ctx, user); err != nil {
		cs.log.Error("onboarding_consumer", "activate_failed", map[string]interface{}{
			"user_id": payload.UserId, "error": err.Error(),
		})
		msg.Nack()
		return
	}

	if cs.publisher != nil {
		if err := cs.publisher.Publish(ctx, events.NewUserOnboarded(payload.UserId)); err != nil {
			cs.log.Warn("onboarding_consumer", "publish_failed", map[string]interface{}{"error": err.Error()})
		}
	}

	cs.log.Info("onboarding_consumer", "user_bootstrapped", map[string]interface{}{"user_id": payload.UserId})
	msg.Ack()
}
