package ports

import (
	"context"
	"time"

	"github.com/userhub/accounts-service/internal/core/domain"
)

// UserPatch carries a partial update. Nil fields are left untouched, so the
// stored password hash survives updates that do not set a new password.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	UpdatedAt    time.Time
}

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Update applies the non-nil fields of patch and returns the updated record.
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
