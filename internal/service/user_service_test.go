package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
	"hostelhub/internal/repository"
)

func TestRegisterStudentAndSelfVerify(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	svc := NewUserService(store, testLogger())

	user, profile, err := svc.RegisterStudent(ctx, "fresh@test.pk")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.False(t, profile.SelfVerified)

	verified, err := svc.SelfVerify(ctx, user.ID, "Hamza Tariq", "LUMS")
	require.NoError(t, err)
	assert.True(t, verified.SelfVerified)
	assert.Equal(t, "Hamza Tariq", verified.FullName)

	_, err = svc.SelfVerify(ctx, user.ID, "Hamza Tariq", "LUMS")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestSelfVerifyRequiresDetails(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	svc := NewUserService(store, testLogger())

	user, _, err := svc.RegisterStudent(ctx, "fresh@test.pk")
	require.NoError(t, err)

	_, err = svc.SelfVerify(ctx, user.ID, "", "LUMS")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestRegisterRequiresEmail(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewUserService(store, testLogger())

	_, _, err := svc.RegisterStudent(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
	_, _, err = svc.RegisterManager(context.Background(), "", "Name", "0300-0000000")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestRegisterManagerStartsUnverified(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewUserService(store, testLogger())

	user, profile, err := svc.RegisterManager(context.Background(), "boss@test.pk", "Usman Ghani", "0345-1112223")
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, user.Role)
	assert.False(t, profile.Verified)
}

func TestTerminateUserAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewUserService(f.store, testLogger())

	err := svc.TerminateUser(ctx, f.studentUser.ID, f.managerUser.ID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	require.NoError(t, svc.TerminateUser(ctx, f.admin.ID, f.managerUser.ID))

	got, err := f.store.GetUser(ctx, f.managerUser.ID)
	require.NoError(t, err)
	assert.True(t, got.IsTerminated)

	// a terminated actor is locked out of every workflow
	_, err = activeUser(ctx, f.store, f.managerUser.ID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestTerminateAdminRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewUserService(f.store, testLogger())

	other := &models.User{Email: "admin2@hostelhub.pk", Role: models.RoleAdmin}
	require.NoError(t, f.store.CreateUser(ctx, other))

	err := svc.TerminateUser(ctx, f.admin.ID, other.ID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestListUsersAndAuditAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewUserService(f.store, testLogger())

	_, err := svc.ListUsers(ctx, f.managerUser.ID, models.RoleStudent)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	students, err := svc.ListUsers(ctx, f.admin.ID, models.RoleStudent)
	require.NoError(t, err)
	assert.Len(t, students, 1)

	_, err = svc.ListAudit(ctx, f.studentUser.ID, 10)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	require.NoError(t, svc.TerminateUser(ctx, f.admin.ID, f.managerUser.ID))
	trail, err := svc.ListAuditByTarget(ctx, f.admin.ID, "User", f.managerUser.ID)
	require.NoError(t, err)
	assert.Len(t, trail, 1)
}
