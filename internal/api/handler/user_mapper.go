package handler

import "github.com/userhub/accounts-service/internal/core/domain"

// toUserResponse maps the domain user to its transport shape.
func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}
