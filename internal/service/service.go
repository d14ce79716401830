// Package service implements the workflow layer. Each service resolves
// the acting user, checks static preconditions, then invokes exactly one
// guarded store operation; mutable preconditions are re-checked inside
// the store's transaction.
package service

import (
	"context"
	"errors"
	"fmt"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
)

// outcome labels a failed guarded operation for metrics.
func outcome(err error) string {
	if errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrPreconditionFailed) {
		return "conflict"
	}
	return "error"
}

// activeUser loads the actor and rejects terminated accounts.
func activeUser(ctx context.Context, store domain.Store, userID string) (*models.User, error) {
	user, err := store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsTerminated {
		return nil, fmt.Errorf("%w: account is terminated", domain.ErrNotAuthorized)
	}
	return user, nil
}

// requireAdmin loads the actor and rejects non-admin roles.
func requireAdmin(ctx context.Context, store domain.Store, userID string) (*models.User, error) {
	user, err := activeUser(ctx, store, userID)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrNotAuthorized)
	}
	return user, nil
}

// managerOwnsHostel resolves the actor's manager profile and checks the
// hostel belongs to them. Admins bypass the ownership check.
func managerOwnsHostel(ctx context.Context, store domain.Store, userID, hostelID string) (*models.Hostel, error) {
	user, err := activeUser(ctx, store, userID)
	if err != nil {
		return nil, err
	}
	hostel, err := store.GetHostel(ctx, hostelID)
	if err != nil {
		return nil, err
	}
	if user.Role.IsAdmin() {
		return hostel, nil
	}
	profile, err := store.GetManagerProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if hostel.ManagerID != profile.ID {
		return nil, fmt.Errorf("%w: hostel belongs to another manager", domain.ErrNotAuthorized)
	}
	return hostel, nil
}
