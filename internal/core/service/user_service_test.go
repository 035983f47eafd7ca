package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/userhub/accounts-service/internal/core/domain"
	"github.com/userhub/accounts-service/internal/core/ports"
)

type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, id string, patch ports.UserPatch) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	u.UpdatedAt = patch.UpdatedAt
	return cloneUser(u), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type stubTokenIssuer struct {
	issued int
}

func (s *stubTokenIssuer) Issue(user *domain.User) (string, error) {
	s.issued++
	return fmt.Sprintf("token-%s-%d", user.ID, s.issued), nil
}

func (s *stubTokenIssuer) Verify(context.Context, string) (*ports.TokenClaims, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *stubTokenIssuer) Revoke(context.Context, string) error {
	return fmt.Errorf("not implemented")
}

func newTestUserService(t *testing.T) (*UserService, *stubUserRepo) {
	t.Helper()
	repo := newStubUserRepo()
	return NewUserService(repo, &stubTokenIssuer{}, zerolog.Nop()), repo
}

func strPtr(s string) *string { return &s }

func TestUserService_Register_HashesPassword(t *testing.T) {
	svc, _ := newTestUserService(t)

	user, token, err := svc.Register(context.Background(), ports.RegisterInput{
		Name:     "John Doe",
		Email:    "john.doe@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if user.Name != "John Doe" || user.Email != "john.doe@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "password123" {
		t.Fatalf("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := newTestUserService(t)

	if _, _, err := svc.Register(context.Background(), ports.RegisterInput{Name: "a", Email: "dup@example.com", Password: "password123"}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, _, err := svc.Register(context.Background(), ports.RegisterInput{Name: "b", Email: "dup@example.com", Password: "password456"}); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserService_Login_Success(t *testing.T) {
	svc, _ := newTestUserService(t)

	created, _, err := svc.Register(context.Background(), ports.RegisterInput{Name: "carol", Email: "carol@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "carol@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if user.ID != created.ID {
		t.Fatalf("expected user %s, got %s", created.ID, user.ID)
	}
}

func TestUserService_Login_FailuresIndistinguishable(t *testing.T) {
	svc, _ := newTestUserService(t)

	if _, _, err := svc.Register(context.Background(), ports.RegisterInput{Name: "dave", Email: "dave@example.com", Password: "goodpass1"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, _, wrongPass := svc.Login(context.Background(), "dave@example.com", "badpass99")
	_, _, unknownEmail := svc.Login(context.Background(), "ghost@example.com", "whatever1")

	if wrongPass != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPass)
	}
	if unknownEmail != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknownEmail)
	}
}

func TestUserService_Update_OwnRecordOnly(t *testing.T) {
	svc, _ := newTestUserService(t)

	user, _, _ := svc.Register(context.Background(), ports.RegisterInput{Name: "eve", Email: "eve@example.com", Password: "password123"})

	if _, err := svc.Update(context.Background(), ports.UpdateUserInput{
		TargetID: user.ID,
		ActorID:  "someone-else",
		Name:     strPtr("Mallory"),
	}); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUserService_Update_PartialPatchKeepsHash(t *testing.T) {
	svc, repo := newTestUserService(t)

	user, _, _ := svc.Register(context.Background(), ports.RegisterInput{Name: "John Doe", Email: "john.doe@example.com", Password: "password123"})
	originalHash := repo.users[user.ID].PasswordHash

	updated, err := svc.Update(context.Background(), ports.UpdateUserInput{
		TargetID: user.ID,
		ActorID:  user.ID,
		Name:     strPtr("Jane Doe"),
		Email:    strPtr("jane.doe@example.com"),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Jane Doe" || updated.Email != "jane.doe@example.com" {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if repo.users[user.ID].PasswordHash != originalHash {
		t.Fatalf("password hash changed on an update without a password")
	}

	// Re-applying the same patch yields the same final state.
	again, err := svc.Update(context.Background(), ports.UpdateUserInput{
		TargetID: user.ID,
		ActorID:  user.ID,
		Name:     strPtr("Jane Doe"),
		Email:    strPtr("jane.doe@example.com"),
	})
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if again.Name != updated.Name || again.Email != updated.Email {
		t.Fatalf("update not idempotent: %+v vs %+v", again, updated)
	}
}

func TestUserService_Update_NewPasswordRehashed(t *testing.T) {
	svc, repo := newTestUserService(t)

	user, _, _ := svc.Register(context.Background(), ports.RegisterInput{Name: "frank", Email: "frank@example.com", Password: "oldpassword"})
	originalHash := repo.users[user.ID].PasswordHash

	if _, err := svc.Update(context.Background(), ports.UpdateUserInput{
		TargetID: user.ID,
		ActorID:  user.ID,
		Password: strPtr("newpassword"),
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	newHash := repo.users[user.ID].PasswordHash
	if newHash == originalHash {
		t.Fatalf("expected hash to change when password is set")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(newHash), []byte("newpassword")); err != nil {
		t.Fatalf("new hash does not match new password: %v", err)
	}
}

func TestUserService_Update_MissingRecord(t *testing.T) {
	svc, _ := newTestUserService(t)

	if _, err := svc.Update(context.Background(), ports.UpdateUserInput{
		TargetID: "ghost",
		ActorID:  "ghost",
		Name:     strPtr("Nobody"),
	}); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_Delete_SelfOnly(t *testing.T) {
	svc, repo := newTestUserService(t)

	user, _, _ := svc.Register(context.Background(), ports.RegisterInput{Name: "grace", Email: "grace@example.com", Password: "password123"})

	if err := svc.Delete(context.Background(), ports.DeleteUserInput{TargetID: user.ID, ActorID: "intruder"}); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, ok := repo.users[user.ID]; !ok {
		t.Fatalf("record removed despite rejection")
	}

	if err := svc.Delete(context.Background(), ports.DeleteUserInput{TargetID: user.ID, ActorID: user.ID}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), user.ID); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
}
