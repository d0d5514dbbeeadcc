package service

import (
	"context"
	"errors"
	"time"

	"companion-game-be/internal/dto"
	"companion-game-be/internal/pkg/logger"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/specification"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	users     contract.UserRepository
	jwtSecret string
	log       logger.ILogger
}

func NewAuthService(users contract.UserRepository, jwtSecret string, log logger.ILogger) IAuthService {
	return &authService{
		users:     users,
		jwtSecret: jwtSecret,
		log:       log,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.users.FindOne(ctx, specification.Filter("email", req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		s.log.Warn("auth", "login_failed", map[string]interface{}{"email": req.Email})
		return nil, ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"user_id": user.Id.String(),
		"role":    string(user.Role),
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken: token,
		User: dto.UserDTO{
			Id:          user.Id,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Role:        string(user.Role),
			Status:      string(user.Status),
		},
	}, nil
}
