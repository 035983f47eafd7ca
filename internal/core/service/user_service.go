package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/userhub/accounts-service/internal/core/domain"
	"github.com/userhub/accounts-service/internal/core/ports"
)

// UserService implements account registration, login, and self-service
// profile management.
type UserService struct {
	repo   ports.UserRepository
	tokens ports.TokenService
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, tokens ports.TokenService, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, tokens: tokens, logger: logger}
}

// Register creates an account with a bcrypt-hashed password and issues a
// token for the new identity.
func (s *UserService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(created)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Str("user_id", created.ID).Msg("user registered")
	return created, token, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password both surface as ErrInvalidCredentials so callers cannot probe
// which addresses are registered.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

// Update applies an allow-listed partial patch to the caller's own record.
// The password hash is recomputed only when a new password is present.
func (s *UserService) Update(ctx context.Context, input ports.UpdateUserInput) (*domain.User, error) {
	if input.ActorID != input.TargetID {
		return nil, domain.ErrForbidden
	}

	patch := ports.UserPatch{
		Name:      input.Name,
		Email:     input.Email,
		UpdatedAt: time.Now().UTC(),
	}

	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashed := string(hash)
		patch.PasswordHash = &hashed
	}

	updated, err := s.repo.Update(ctx, input.TargetID, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", updated.ID).Msg("user updated")
	return updated, nil
}

// Delete removes the caller's own record. The acted-upon entity is derived
// from the authenticated identity, never from an arbitrary client-supplied id.
func (s *UserService) Delete(ctx context.Context, input ports.DeleteUserInput) error {
	if input.ActorID != input.TargetID {
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, input.ActorID); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", input.ActorID).Msg("user deleted")
	return nil
}
