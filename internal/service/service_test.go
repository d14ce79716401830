package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"hostelhub/internal/models"
	"hostelhub/internal/repository"
)

// eventRecorder captures published event types for assertions.
type eventRecorder struct {
	mu    sync.Mutex
	types []string
}

func (r *eventRecorder) PublishJSON(eventType string, _ interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, eventType)
	return nil
}

func (r *eventRecorder) published() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.types))
	copy(out, r.types)
	return out
}

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// fixture wires a memory store with one admin, one self-verified student,
// one verified manager and one active hostel owned by that manager.
type fixture struct {
	store       *repository.MemoryStore
	admin       *models.User
	studentUser *models.User
	student     *models.StudentProfile
	managerUser *models.User
	manager     *models.ManagerProfile
	hostel      *models.Hostel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()

	admin := &models.User{Email: "admin@hostelhub.pk", Role: models.RoleAdmin}
	require.NoError(t, store.CreateUser(ctx, admin))

	studentUser := &models.User{Email: "student@test.pk", Role: models.RoleStudent}
	require.NoError(t, store.CreateUser(ctx, studentUser))
	student := &models.StudentProfile{UserID: studentUser.ID}
	require.NoError(t, store.CreateStudentProfile(ctx, student))
	student, err := store.SelfVerifyStudent(ctx, studentUser.ID, "Ali Raza", "NUST")
	require.NoError(t, err)

	managerUser := &models.User{Email: "manager@test.pk", Role: models.RoleManager}
	require.NoError(t, store.CreateUser(ctx, managerUser))
	manager := &models.ManagerProfile{UserID: managerUser.ID, FullName: "Bilal Khan", Verified: true}
	require.NoError(t, store.CreateManagerProfile(ctx, manager))

	hostel := &models.Hostel{
		ManagerID:      manager.ID,
		Name:           "Gulberg Boys Hostel",
		City:           "Lahore",
		HostelType:     models.HostelPrivate,
		HostelFor:      "boys",
		TotalRooms:     3,
		AvailableRooms: 3,
		RoomPrice:      5000,
		IsActive:       true,
	}
	require.NoError(t, store.CreateHostel(ctx, hostel))

	return &fixture{
		store:       store,
		admin:       admin,
		studentUser: studentUser,
		student:     student,
		managerUser: managerUser,
		manager:     manager,
		hostel:      hostel,
	}
}

// addStudent registers an extra self-verified student.
func (f *fixture) addStudent(t *testing.T, email string) (*models.User, *models.StudentProfile) {
	t.Helper()
	ctx := context.Background()
	user := &models.User{Email: email, Role: models.RoleStudent}
	require.NoError(t, f.store.CreateUser(ctx, user))
	profile := &models.StudentProfile{UserID: user.ID}
	require.NoError(t, f.store.CreateStudentProfile(ctx, profile))
	profile, err := f.store.SelfVerifyStudent(ctx, user.ID, "Extra Student", "FAST")
	require.NoError(t, err)
	return user, profile
}

// addManager registers an extra manager.
func (f *fixture) addManager(t *testing.T, email string, verified bool) (*models.User, *models.ManagerProfile) {
	t.Helper()
	ctx := context.Background()
	user := &models.User{Email: email, Role: models.RoleManager}
	require.NoError(t, f.store.CreateUser(ctx, user))
	profile := &models.ManagerProfile{UserID: user.ID, FullName: "Other Manager", Verified: verified}
	require.NoError(t, f.store.CreateManagerProfile(ctx, profile))
	return user, profile
}

func validTransfer() models.TransferProof {
	return models.TransferProof{
		Image:       "transfers/rcpt-001.jpg",
		Date:        "2026-08-01",
		Time:        "14:05",
		FromAccount: "0301-1234567",
		ToAccount:   "0333-7654321",
	}
}
