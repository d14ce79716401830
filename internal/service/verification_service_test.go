package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
)

func verificationRequest() *models.ManagerVerification {
	return &models.ManagerVerification{
		OwnerName:     "Usman Ghani",
		City:          "Islamabad",
		Address:       "Street 4, G-10",
		HostelNames:   "Margalla Lodge",
		HostelFor:     "boys",
		BuildingImage: "buildings/front.jpg",
		AcceptedRules: true,
	}
}

func TestSubmitVerificationValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewVerificationService(f.store, nil, testLogger())

	user, _ := f.addManager(t, "newbie@test.pk", false)

	req := verificationRequest()
	req.AcceptedRules = false
	_, err := svc.SubmitVerification(ctx, user.ID, req)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	req = verificationRequest()
	req.Address = ""
	_, err = svc.SubmitVerification(ctx, user.ID, req)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestVerificationApproveFlipsVerified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewVerificationService(f.store, nil, testLogger())

	user, profile := f.addManager(t, "newbie@test.pk", false)

	submitted, err := svc.SubmitVerification(ctx, user.ID, verificationRequest())
	require.NoError(t, err)
	assert.Equal(t, models.VerificationPending, submitted.Status)
	assert.Equal(t, profile.ID, submitted.ManagerID)

	// only one pending submission at a time
	_, err = svc.SubmitVerification(ctx, user.ID, verificationRequest())
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	reviewed, err := svc.ReviewVerification(ctx, f.admin.ID, submitted.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationApproved, reviewed.Status)

	got, err := f.store.GetManagerProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.True(t, got.Verified)

	// a verified manager has nothing left to submit
	_, err = svc.SubmitVerification(ctx, user.ID, verificationRequest())
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestVerificationRejectAllowsResubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewVerificationService(f.store, nil, testLogger())

	user, profile := f.addManager(t, "newbie@test.pk", false)

	submitted, err := svc.SubmitVerification(ctx, user.ID, verificationRequest())
	require.NoError(t, err)

	_, err = svc.ReviewVerification(ctx, f.admin.ID, submitted.ID, false, "")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	rejected, err := svc.ReviewVerification(ctx, f.admin.ID, submitted.ID, false, "building photo is unreadable")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationRejected, rejected.Status)

	got, err := f.store.GetManagerProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.False(t, got.Verified)

	_, err = svc.SubmitVerification(ctx, user.ID, verificationRequest())
	assert.NoError(t, err)
}

func TestReviewVerificationAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewVerificationService(f.store, nil, testLogger())

	user, _ := f.addManager(t, "newbie@test.pk", false)
	submitted, err := svc.SubmitVerification(ctx, user.ID, verificationRequest())
	require.NoError(t, err)

	_, err = svc.ReviewVerification(ctx, user.ID, submitted.ID, true, "")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = svc.ListVerifications(ctx, user.ID, models.VerificationPending)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	pending, err := svc.ListVerifications(ctx, f.admin.ID, models.VerificationPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
