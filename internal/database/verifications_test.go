package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
)

func submitVerification(t *testing.T, db *DB, managerID string) *models.ManagerVerification {
	t.Helper()
	v := &models.ManagerVerification{
		ManagerID:     managerID,
		OwnerName:     "Owner",
		City:          "Lahore",
		Address:       "12 Mall Road",
		HostelNames:   "Sunrise Hostel",
		HostelFor:     "boys",
		AcceptedRules: true,
	}
	require.NoError(t, db.SubmitVerificationGuarded(context.Background(), v))
	return v
}

func TestSubmitVerification(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	manager := seedManager(t, db, "m@test.com", false)
	v := submitVerification(t, db, manager.ID)
	assert.Equal(t, models.VerificationPending, v.Status)

	// only one pending submission at a time
	err := db.SubmitVerificationGuarded(ctx, &models.ManagerVerification{ManagerID: manager.ID})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestSubmitVerificationAlreadyVerified(t *testing.T) {
	db := newTestDB(t)

	manager := seedManager(t, db, "m@test.com", true)
	err := db.SubmitVerificationGuarded(context.Background(), &models.ManagerVerification{ManagerID: manager.ID})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestReviewVerificationApprove(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	manager := seedManager(t, db, "m@test.com", false)
	v := submitVerification(t, db, manager.ID)

	reviewed, err := db.ReviewVerification(ctx, v.ID, models.VerificationApproved, "documents check out", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationApproved, reviewed.Status)
	assert.Equal(t, "admin-1", reviewed.ReviewedBy)

	profile, err := db.GetManagerProfile(ctx, manager.ID)
	require.NoError(t, err)
	assert.True(t, profile.Verified)

	trail, err := db.ListAuditByTarget(ctx, "ManagerVerification", v.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, "VERIFICATION_APPROVED", trail[0].Action)
}

func TestReviewVerificationReject(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	manager := seedManager(t, db, "m@test.com", false)
	v := submitVerification(t, db, manager.ID)

	reviewed, err := db.ReviewVerification(ctx, v.ID, models.VerificationRejected, "blurry building photo", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationRejected, reviewed.Status)

	// rejection leaves the manager unverified and frees a resubmission
	profile, err := db.GetManagerProfile(ctx, manager.ID)
	require.NoError(t, err)
	assert.False(t, profile.Verified)

	second := submitVerification(t, db, manager.ID)
	assert.NotEqual(t, v.ID, second.ID)
}

func TestReviewVerificationTwice(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	manager := seedManager(t, db, "m@test.com", false)
	v := submitVerification(t, db, manager.ID)

	_, err := db.ReviewVerification(ctx, v.ID, models.VerificationApproved, "", "admin-1")
	require.NoError(t, err)

	_, err = db.ReviewVerification(ctx, v.ID, models.VerificationRejected, "", "admin-2")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestListVerifications(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m1 := seedManager(t, db, "m1@test.com", false)
	m2 := seedManager(t, db, "m2@test.com", false)
	v1 := submitVerification(t, db, m1.ID)
	submitVerification(t, db, m2.ID)

	_, err := db.ReviewVerification(ctx, v1.ID, models.VerificationApproved, "", "admin-1")
	require.NoError(t, err)

	pending, err := db.ListVerifications(ctx, models.VerificationPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	all, err := db.ListVerifications(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := db.ListVerificationsByManager(ctx, m1.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
