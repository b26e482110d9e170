// Package governance implements the reconciliation engine: it converges
// remote access-control state to the desired state declared in governance
// manifests.
package governance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"qs-governance/internal/domain"
)

// UserReconciler converges one user's namespace membership, registration,
// role, and group memberships. Every step is an idempotent checkpoint: the
// reconciler re-queries live state each pass and is safe to re-run from any
// point.
type UserReconciler struct {
	gw         domain.AccessGateway
	rolePrefix string
	settle     time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

// NewUserReconciler creates a UserReconciler. settle is the wait applied
// after namespace creation while the remote side provisions asynchronously.
func NewUserReconciler(gw domain.AccessGateway, rolePrefix string, settle time.Duration, logger *slog.Logger) *UserReconciler {
	return &UserReconciler{
		gw:         gw,
		rolePrefix: rolePrefix,
		settle:     settle,
		sleep:      sleepContext,
		logger:     logger,
	}
}

// Reconcile applies user governance for a single record:
//  1. create the namespace if absent (then wait out the settling period)
//  2. register the user if absent
//  3. converge the role; a downgrade signal deletes the user instead
//  4. on role success, converge group existence and memberships
func (r *UserReconciler) Reconcile(ctx context.Context, rec domain.UserRecord) (domain.Outcome, error) {
	if err := rec.Validate(); err != nil {
		return domain.OutcomeFailed, err
	}
	handle := rec.IdentityHandle(r.rolePrefix)
	r.logger.Info("governing user", "user", handle, "namespace", rec.Namespace)

	if err := r.ensureNamespace(ctx, rec); err != nil {
		return domain.OutcomeFailed, err
	}
	if err := r.ensureRegistered(ctx, rec, handle); err != nil {
		return domain.OutcomeFailed, err
	}

	if err := r.gw.UpdateUserRole(ctx, rec.AccountID, rec.Namespace, handle, rec.Role, rec.Email); err != nil {
		if !domain.IsDowngradeSignal(err) {
			return domain.OutcomeFailed, fmt.Errorf("update role for %q: %w", handle, err)
		}
		// The target role is not valid for this user's current state.
		// Policy: delete the user rather than attempt a partial
		// downgrade. A deleted user cannot hold memberships, so group
		// convergence is skipped entirely.
		if delErr := r.gw.DeleteUser(ctx, rec.AccountID, rec.Namespace, handle); delErr != nil {
			return domain.OutcomeFailed, fmt.Errorf("delete user %q after role downgrade: %w", handle, delErr)
		}
		r.logger.Info("user deleted on role downgrade", "user", handle, "role", rec.Role)
		return domain.OutcomeDeleted, nil
	}
	r.logger.Info("user role set", "user", handle, "role", rec.Role)

	if groups := rec.DesiredGroups(); len(groups) > 0 {
		if err := r.ensureGroups(ctx, rec, groups); err != nil {
			return domain.OutcomeFailed, err
		}
		if err := r.syncMemberships(ctx, rec, handle, groups); err != nil {
			return domain.OutcomeFailed, err
		}
	}
	return domain.OutcomeConverged, nil
}

// ensureNamespace creates the record's namespace when absent. Remote
// provisioning is asynchronous and not query-consistent immediately after
// creation, so a freshly created namespace gets the settling wait.
func (r *UserReconciler) ensureNamespace(ctx context.Context, rec domain.UserRecord) error {
	exists, err := r.gw.NamespaceExists(ctx, rec.AccountID, rec.Namespace)
	if err != nil {
		return fmt.Errorf("probe namespace %q: %w", rec.Namespace, err)
	}
	if exists {
		return nil
	}
	if err := r.gw.CreateNamespace(ctx, rec.AccountID, rec.Namespace); err != nil {
		return fmt.Errorf("create namespace %q: %w", rec.Namespace, err)
	}
	r.logger.Info("namespace created", "namespace", rec.Namespace, "settle", r.settle)
	return r.sleep(ctx, r.settle)
}

// ensureRegistered registers the user when absent. Registration is not
// re-applied over an existing user; role changes go through UpdateUserRole.
func (r *UserReconciler) ensureRegistered(ctx context.Context, rec domain.UserRecord, handle string) error {
	exists, err := r.gw.UserExists(ctx, rec.AccountID, rec.Namespace, handle)
	if err != nil {
		return fmt.Errorf("probe user %q: %w", handle, err)
	}
	if exists {
		return nil
	}
	reg := domain.UserRegistration{
		Email:       rec.Email,
		Role:        rec.Role,
		IAMRoleARN:  domain.IAMRoleARN(rec.AccountID, r.rolePrefix),
		SessionName: rec.Email,
	}
	if err := r.gw.RegisterUser(ctx, rec.AccountID, rec.Namespace, reg); err != nil {
		return fmt.Errorf("register user %q: %w", handle, err)
	}
	r.logger.Info("user registered", "user", handle, "namespace", rec.Namespace)
	return nil
}

// ensureGroups creates any desired group that is absent. Order-independent
// and idempotent.
func (r *UserReconciler) ensureGroups(ctx context.Context, rec domain.UserRecord, groups []string) error {
	for _, group := range groups {
		exists, err := r.gw.GroupExists(ctx, rec.AccountID, rec.Namespace, group)
		if err != nil {
			return fmt.Errorf("probe group %q: %w", group, err)
		}
		if exists {
			continue
		}
		if err := r.gw.CreateGroup(ctx, rec.AccountID, rec.Namespace, group); err != nil {
			return fmt.Errorf("create group %q: %w", group, err)
		}
		r.logger.Info("group created", "group", group, "namespace", rec.Namespace)
	}
	return nil
}

// syncMemberships reconciles the full symmetric difference between desired
// and current memberships: additions first, then removals. Re-running
// against converged state issues zero mutating calls.
func (r *UserReconciler) syncMemberships(ctx context.Context, rec domain.UserRecord, handle string, desired []string) error {
	current, err := r.gw.ListUserGroups(ctx, rec.AccountID, rec.Namespace, handle)
	if err != nil {
		return fmt.Errorf("list groups for %q: %w", handle, err)
	}

	currentSet := make(map[string]bool, len(current))
	for _, g := range current {
		currentSet[g] = true
	}
	desiredSet := make(map[string]bool, len(desired))
	for _, g := range desired {
		desiredSet[g] = true
	}

	for _, group := range desired {
		if currentSet[group] {
			continue
		}
		if err := r.gw.AddMembership(ctx, rec.AccountID, rec.Namespace, handle, group); err != nil {
			return fmt.Errorf("add %q to group %q: %w", handle, group, err)
		}
		r.logger.Info("membership added", "user", handle, "group", group)
	}
	for _, group := range current {
		if desiredSet[group] {
			continue
		}
		if err := r.gw.RemoveMembership(ctx, rec.AccountID, rec.Namespace, handle, group); err != nil {
			return fmt.Errorf("remove %q from group %q: %w", handle, group, err)
		}
		r.logger.Info("membership removed", "user", handle, "group", group)
	}
	return nil
}

// sleepContext sleeps for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
