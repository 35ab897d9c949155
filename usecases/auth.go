package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"home-energy/auth"
	"home-energy/entities"
	"home-energy/repositories"

	"go.uber.org/zap"
)

const minPasswordLength = 6

// AuthUseCase registers users and exchanges credentials for access tokens.
type AuthUseCase struct {
	store  repositories.Store
	tokens *auth.TokenIssuer
	log    *zap.Logger
}

func NewAuthUseCase(store repositories.Store, tokens *auth.TokenIssuer, log *zap.Logger) *AuthUseCase {
	return &AuthUseCase{store: store, tokens: tokens, log: log.Named("auth")}
}

type Session struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        *entities.User `json:"user"`
}

func (uc *AuthUseCase) Register(ctx context.Context, email, name, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validation("a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if _, err := uc.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, storeErr(err, "look up user")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &entities.User{Email: email, Name: name, PasswordHash: hash}
	if err := uc.store.Users().Create(ctx, user); err != nil {
		return nil, storeErr(err, "create user")
	}
	uc.log.Info("user registered", zap.String("user_id", user.ID))
	return uc.session(user)
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := uc.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
		}
		return nil, storeErr(err, "look up user")
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	return uc.session(user)
}

// Authenticate resolves a bearer token to its user.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*entities.User, error) {
	claims, err := uc.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	user, err := uc.store.Users().GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrUnauthorized)
		}
		return nil, storeErr(err, "look up user")
	}
	return user, nil
}

func (uc *AuthUseCase) session(user *entities.User) (*Session, error) {
	token, err := uc.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, TokenType: "bearer", User: user}, nil
}
