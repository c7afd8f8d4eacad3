package authservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	"github.com/Leopold1975/awr_control/internal/awr/domain/seed"
	"github.com/Leopold1975/awr_control/internal/awr/repository/userrepo"
	"github.com/Leopold1975/awr_control/internal/awr/services/policy"
	"github.com/Leopold1975/awr_control/internal/pkg/config"
	"github.com/Leopold1975/awr_control/pkg/jwtauth"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo Repository
	cfg      config.Auth
}

var (
	ErrInvalidCredentials = errors.New("invalid telegram id or password")
	ErrUnauthorized       = errors.New("invalid or expired token")
	ErrInvalidUser        = errors.New("invalid user")
	ErrAlreadyExists      = errors.New("user already exists")
)

type Repository interface {
	CreateUser(context.Context, models.User) error
	GetUserByTelegramID(context.Context, int64) (models.User, error)
}

func New(userRepo Repository, cfg config.Auth) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// Authenticate возвращает пользователя, если telegramID и пароль совпали.
func (as *AuthService) Authenticate(ctx context.Context, telegramID int64, password string) (models.User, error) {
	u, err := as.userRepo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}

		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return u, nil
}

func (as *AuthService) Login(ctx context.Context, telegramID int64, password string) (LoginResponse, error) {
	u, err := as.Authenticate(ctx, telegramID, password)
	if err != nil {
		return LoginResponse{}, err
	}

	token, err := jwtauth.GetToken(u, as.cfg.TTL, as.cfg.Secret)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("can't get token error: %w", err)
	}

	return LoginResponse{
		Token: token,
		Role:  u.Role,
		User:  u,
	}, nil
}

func (as *AuthService) Auth(token string) (models.Actor, error) {
	a, err := jwtauth.ValidateToken(token, as.cfg.Secret)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	return a, nil
}

// CreateUser - только админ заводит новых пользователей.
func (as *AuthService) CreateUser(ctx context.Context, actor models.Actor, req CreateUserRequest) (models.User, error) {
	if err := policy.Check(actor, policy.CreateUser); err != nil {
		return models.User{}, err
	}

	return as.createUser(ctx, req)
}

// EnsureUsers заводит пользователей из стартовых данных, уже существующих пропускает.
func (as *AuthService) EnsureUsers(ctx context.Context, users []seed.User) error {
	for _, su := range users {
		_, err := as.createUser(ctx, CreateUserRequest{
			TelegramID: su.TelegramID,
			Password:   su.Password,
			Role:       su.Role,
			Name:       su.Name,
			BrigadeID:  su.BrigadeID,
		})
		if err != nil && !errors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("seed user %d error: %w", su.TelegramID, err)
		}
	}

	return nil
}

func (as *AuthService) createUser(ctx context.Context, req CreateUserRequest) (models.User, error) {
	if !req.Role.Valid() || req.TelegramID == 0 || req.Password == "" {
		return models.User{}, ErrInvalidUser
	}

	if req.Role == models.RoleCrew && req.BrigadeID == nil {
		return models.User{}, fmt.Errorf("%w: crew user needs a brigade", ErrInvalidUser)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("generate from password error: %w", err)
	}

	u := models.User{
		TelegramID:   req.TelegramID,
		PasswordHash: string(hash),
		Role:         req.Role,
		Name:         req.Name,
		BrigadeID:    req.BrigadeID,
	}

	if err := as.userRepo.CreateUser(ctx, u); err != nil {
		switch {
		case errors.Is(err, userrepo.ErrAlreadyExists):
			return models.User{}, ErrAlreadyExists
		case errors.Is(err, userrepo.ErrBrigadeNotFound):
			return models.User{}, fmt.Errorf("%w: brigade %d not found", ErrInvalidUser, *req.BrigadeID)
		}

		return models.User{}, fmt.Errorf("create user error: %w", err)
	}

	created, err := as.userRepo.GetUserByTelegramID(ctx, req.TelegramID)
	if err != nil {
		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	return created, nil
}
