package ports

import (
	"context"

	"github.com/userhub/accounts-service/internal/core/domain"
)

// RegisterInput carries the data needed to create a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateUserInput carries a partial profile update. TargetID comes from the
// request path, ActorID from the authenticated identity; the service rejects
// the update unless they match. Only the allow-listed fields below can be
// changed; nil means "leave unchanged".
type UpdateUserInput struct {
	TargetID string
	ActorID  string
	Name     *string
	Email    *string
	Password *string
}

// DeleteUserInput identifies the record to remove. Deletion is always
// self-deletion: ActorID must match TargetID.
type DeleteUserInput struct {
	TargetID string
	ActorID  string
}

// UserService defines account use-cases.
type UserService interface {
	// Register creates an account and returns it with a freshly issued token.
	Register(ctx context.Context, input RegisterInput) (*domain.User, string, error)
	// Login verifies credentials and returns a token with the matching user.
	// Unknown email and wrong password are deliberately indistinguishable.
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, input DeleteUserInput) error
}
