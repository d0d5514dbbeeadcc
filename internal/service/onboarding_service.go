package service

import (
	"context"
	"encoding/json"
	"errors"

	"companion-game-be/internal/dto"
	"companion-game-be/internal/entity"
	"companion-game-be/internal/pkg/logger"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/specification"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

var ErrEmailTaken = errors.New("email already registered")

type onboardingMessage struct {
	UserId   string `json:"user_id"`
	Platform string `json:"platform"`
}

type IOnboardingService interface {
	OnboardUser(ctx context.Context, req *dto.OnboardUserRequest) (*dto.OnboardUserResponse, error)
}

// onboardingService creates the user row synchronously and defers everything
// slow (state bootstrap, first ready prompt) to the in-process bus.
type onboardingService struct {
	users     contract.UserRepository
	pubSub    *gochannel.GoChannel
	topicName string
	log       logger.ILogger
}

func NewOnboardingService(
	users contract.UserRepository,
	pubSub *gochannel.GoChannel,
	topicName string,
	log logger.ILogger,
) IOnboardingService {
	return &onboardingService{
		users:     users,
		pubSub:    pubSub,
		topicName: topicName,
		log:       log,
	}
}

func (s *onboardingService) OnboardUser(ctx context.Context, req *dto.OnboardUserRequest) (*dto.OnboardUserResponse, error) {
	existing, err := s.users.FindOne(ctx, specification.Filter("email", req.Email))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	user := &entity.User{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        entity.UserRolePlayer,
		Status:      entity.UserStatusOnboarding,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(onboardingMessage{
		UserId:   user.Id.String(),
		Platform: req.Platform,
	})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		// The user exists but bootstrap never queued; the legacy prompt
		// builder covers them until a pipeline run happens.
		s.log.Error("onboarding", "publish_failed", map[string]interface{}{
			"user_id": user.Id.String(), "error": err.Error(),
		})
	}

	return &dto.OnboardUserResponse{
		UserId: user.Id,
		Status: string(user.Status),
	}, nil
}
