package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/soportehq/helpdesk/internal/domain"
	"github.com/soportehq/helpdesk/internal/observability"
	"github.com/soportehq/helpdesk/internal/repository"
	"github.com/soportehq/helpdesk/internal/repository/memory"
	apperrors "github.com/soportehq/helpdesk/pkg/util"
)

func newUserFixture(store repository.Store) *UserService {
	activity := NewActivityService(store, zap.NewNop(), observability.NewMetrics("test"))
	return NewUserService(store, activity, zap.NewNop())
}

func TestCreateUserBootstrapsFirstAdmin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newUserFixture(store)

	first, err := svc.CreateUser(ctx, UserCreateInput{
		Email: "maria@soporte.example.com",
		Name:  "María García",
	}, "")
	if err != nil {
		t.Fatalf("create first user: %v", err)
	}
	if first.Role != domain.RoleAdmin {
		t.Fatalf("first user role = %q, want %q", first.Role, domain.RoleAdmin)
	}

	entries, err := store.Activity().List(ctx, repository.ActivityFilter{})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("journal entries = %d, want 1 bootstrap record", len(entries))
	}
	entry := entries[0]
	if entry.Action != ActionAdminBootstrapped {
		t.Fatalf("action = %q, want %q", entry.Action, ActionAdminBootstrapped)
	}
	if entry.Actor != ActorSystem {
		t.Fatalf("actor = %q, want %q", entry.Actor, ActorSystem)
	}
	if entry.Entity != first.Email {
		t.Fatalf("entity = %q, want %q", entry.Entity, first.Email)
	}
	if entry.Metadata["promoted"] != true {
		t.Fatalf("promoted = %v, want true", entry.Metadata["promoted"])
	}

	second, err := svc.CreateUser(ctx, UserCreateInput{
		Email: "pedro@soporte.example.com",
		Name:  "Pedro Ruiz",
	}, "")
	if err != nil {
		t.Fatalf("create second user: %v", err)
	}
	if second.Role != domain.RoleAgent {
		t.Fatalf("second user role = %q, want %q", second.Role, domain.RoleAgent)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newUserFixture(memory.NewStore())

	if _, err := svc.CreateUser(ctx, UserCreateInput{
		Email: "dup@soporte.example.com",
		Name:  "Uno",
	}, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.CreateUser(ctx, UserCreateInput{
		Email: "dup@soporte.example.com",
		Name:  "Dos",
	}, "")
	if !apperrors.IsConflict(err, ErrCodeEmailExists) {
		t.Fatalf("err = %v, want %s conflict", err, ErrCodeEmailExists)
	}
}

func TestCreateUserHonorsExternalID(t *testing.T) {
	ctx := context.Background()
	svc := newUserFixture(memory.NewStore())

	user, err := svc.CreateUser(ctx, UserCreateInput{
		Email: "ext@soporte.example.com",
		Name:  "Externa",
	}, "idp-12345")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.ID != "idp-12345" {
		t.Fatalf("id = %q, want pre-allocated idp-12345", user.ID)
	}
}

func TestUpdateUserKeepingOwnEmail(t *testing.T) {
	ctx := context.Background()
	svc := newUserFixture(memory.NewStore())

	user, err := svc.CreateUser(ctx, UserCreateInput{
		Email: "laura@soporte.example.com",
		Name:  "Laura",
	}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Laura Pérez"
	updated, err := svc.UpdateUser(ctx, user.ID, UserUpdateInput{
		Email: &user.Email,
		Name:  &name,
	})
	if err != nil {
		t.Fatalf("update with own email: %v", err)
	}
	if updated.Name != name {
		t.Fatalf("name = %q, want %q", updated.Name, name)
	}
}

func TestUpdateUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newUserFixture(memory.NewStore())

	if _, err := svc.CreateUser(ctx, UserCreateInput{
		Email: "a@soporte.example.com",
		Name:  "A",
	}, ""); err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := svc.CreateUser(ctx, UserCreateInput{
		Email: "b@soporte.example.com",
		Name:  "B",
	}, "")
	if err != nil {
		t.Fatalf("create b: %v", err)
	}

	taken := "a@soporte.example.com"
	_, err = svc.UpdateUser(ctx, b.ID, UserUpdateInput{Email: &taken})
	if !apperrors.IsConflict(err, ErrCodeEmailExists) {
		t.Fatalf("err = %v, want %s conflict", err, ErrCodeEmailExists)
	}
}

func TestUpdateUserUnknown(t *testing.T) {
	ctx := context.Background()
	svc := newUserFixture(memory.NewStore())

	name := "Nadie"
	if _, err := svc.UpdateUser(ctx, "missing", UserUpdateInput{Name: &name}); !apperrors.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestCreateUserRoleOverrideNotPromoted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newUserFixture(store)

	first, err := svc.CreateUser(ctx, UserCreateInput{
		Email: "admin@soporte.example.com",
		Name:  "Admin",
		Role:  domain.RoleAdmin,
	}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Role != domain.RoleAdmin {
		t.Fatalf("role = %q, want admin", first.Role)
	}

	entries, err := store.Activity().List(ctx, repository.ActivityFilter{})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(entries))
	}
	// requested admin explicitly, so the bootstrap did not promote
	if entries[0].Metadata["promoted"] != false {
		t.Fatalf("promoted = %v, want false", entries[0].Metadata["promoted"])
	}
}
