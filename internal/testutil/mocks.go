// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"fmt"

	"qs-governance/internal/domain"
)

// === Access Gateway Mock ===

// MockGateway implements domain.AccessGateway for testing. Each operation
// delegates to its Fn field when set; unset probe/list operations return
// zero values and unset mutations succeed, so converged-state scenarios
// need no setup. Every invocation is appended to Calls for sequence and
// call-count assertions.
type MockGateway struct {
	NamespaceExistsFn         func(ctx context.Context, accountID, namespace string) (bool, error)
	CreateNamespaceFn         func(ctx context.Context, accountID, namespace string) error
	UserExistsFn              func(ctx context.Context, accountID, namespace, handle string) (bool, error)
	RegisterUserFn            func(ctx context.Context, accountID, namespace string, reg domain.UserRegistration) error
	UpdateUserRoleFn          func(ctx context.Context, accountID, namespace, handle, role, email string) error
	DeleteUserFn              func(ctx context.Context, accountID, namespace, handle string) error
	GroupExistsFn             func(ctx context.Context, accountID, namespace, group string) (bool, error)
	CreateGroupFn             func(ctx context.Context, accountID, namespace, group string) error
	ListUserGroupsFn          func(ctx context.Context, accountID, namespace, handle string) ([]string, error)
	AddMembershipFn           func(ctx context.Context, accountID, namespace, handle, group string) error
	RemoveMembershipFn        func(ctx context.Context, accountID, namespace, handle, group string) error
	ListDatasetsFn            func(ctx context.Context, accountID string) ([]domain.DatasetSummary, error)
	GrantDatasetPermissionsFn func(ctx context.Context, accountID, datasetID, principalARN string, actions []string) error

	// Calls records every operation in invocation order, formatted as
	// "op(arg1,arg2,...)" without the account ID.
	Calls []string
}

func (m *MockGateway) record(op string, args ...string) {
	call := op + "("
	for i, a := range args {
		if i > 0 {
			call += ","
		}
		call += a
	}
	m.Calls = append(m.Calls, call+")")
}

// MutatingCalls returns the recorded calls that mutate remote state.
func (m *MockGateway) MutatingCalls() []string {
	var out []string
	for _, c := range m.Calls {
		switch {
		case hasPrefix(c, "CreateNamespace"), hasPrefix(c, "RegisterUser"),
			hasPrefix(c, "UpdateUserRole"), hasPrefix(c, "DeleteUser"),
			hasPrefix(c, "CreateGroup"), hasPrefix(c, "AddMembership"),
			hasPrefix(c, "RemoveMembership"), hasPrefix(c, "GrantDatasetPermissions"):
			out = append(out, c)
		}
	}
	return out
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// NamespaceExists implements the interface method for testing.
func (m *MockGateway) NamespaceExists(ctx context.Context, accountID, namespace string) (bool, error) {
	m.record("NamespaceExists", namespace)
	if m.NamespaceExistsFn != nil {
		return m.NamespaceExistsFn(ctx, accountID, namespace)
	}
	return false, nil
}

// CreateNamespace implements the interface method for testing.
func (m *MockGateway) CreateNamespace(ctx context.Context, accountID, namespace string) error {
	m.record("CreateNamespace", namespace)
	if m.CreateNamespaceFn != nil {
		return m.CreateNamespaceFn(ctx, accountID, namespace)
	}
	return nil
}

// UserExists implements the interface method for testing.
func (m *MockGateway) UserExists(ctx context.Context, accountID, namespace, handle string) (bool, error) {
	m.record("UserExists", namespace, handle)
	if m.UserExistsFn != nil {
		return m.UserExistsFn(ctx, accountID, namespace, handle)
	}
	return false, nil
}

// RegisterUser implements the interface method for testing.
func (m *MockGateway) RegisterUser(ctx context.Context, accountID, namespace string, reg domain.UserRegistration) error {
	m.record("RegisterUser", namespace, reg.Email, reg.Role)
	if m.RegisterUserFn != nil {
		return m.RegisterUserFn(ctx, accountID, namespace, reg)
	}
	return nil
}

// UpdateUserRole implements the interface method for testing.
func (m *MockGateway) UpdateUserRole(ctx context.Context, accountID, namespace, handle, role, email string) error {
	m.record("UpdateUserRole", namespace, handle, role)
	if m.UpdateUserRoleFn != nil {
		return m.UpdateUserRoleFn(ctx, accountID, namespace, handle, role, email)
	}
	return nil
}

// DeleteUser implements the interface method for testing.
func (m *MockGateway) DeleteUser(ctx context.Context, accountID, namespace, handle string) error {
	m.record("DeleteUser", namespace, handle)
	if m.DeleteUserFn != nil {
		return m.DeleteUserFn(ctx, accountID, namespace, handle)
	}
	return nil
}

// GroupExists implements the interface method for testing.
func (m *MockGateway) GroupExists(ctx context.Context, accountID, namespace, group string) (bool, error) {
	m.record("GroupExists", namespace, group)
	if m.GroupExistsFn != nil {
		return m.GroupExistsFn(ctx, accountID, namespace, group)
	}
	return false, nil
}

// CreateGroup implements the interface method for testing.
func (m *MockGateway) CreateGroup(ctx context.Context, accountID, namespace, group string) error {
	m.record("CreateGroup", group)
	if m.CreateGroupFn != nil {
		return m.CreateGroupFn(ctx, accountID, namespace, group)
	}
	return nil
}

// ListUserGroups implements the interface method for testing.
func (m *MockGateway) ListUserGroups(ctx context.Context, accountID, namespace, handle string) ([]string, error) {
	m.record("ListUserGroups", namespace, handle)
	if m.ListUserGroupsFn != nil {
		return m.ListUserGroupsFn(ctx, accountID, namespace, handle)
	}
	return nil, nil
}

// AddMembership implements the interface method for testing.
func (m *MockGateway) AddMembership(ctx context.Context, accountID, namespace, handle, group string) error {
	m.record("AddMembership", group)
	if m.AddMembershipFn != nil {
		return m.AddMembershipFn(ctx, accountID, namespace, handle, group)
	}
	return nil
}

// RemoveMembership implements the interface method for testing.
func (m *MockGateway) RemoveMembership(ctx context.Context, accountID, namespace, handle, group string) error {
	m.record("RemoveMembership", group)
	if m.RemoveMembershipFn != nil {
		return m.RemoveMembershipFn(ctx, accountID, namespace, handle, group)
	}
	return nil
}

// ListDatasets implements the interface method for testing.
func (m *MockGateway) ListDatasets(ctx context.Context, accountID string) ([]domain.DatasetSummary, error) {
	m.record("ListDatasets")
	if m.ListDatasetsFn != nil {
		return m.ListDatasetsFn(ctx, accountID)
	}
	return nil, nil
}

// GrantDatasetPermissions implements the interface method for testing.
func (m *MockGateway) GrantDatasetPermissions(ctx context.Context, accountID, datasetID, principalARN string, actions []string) error {
	m.record("GrantDatasetPermissions", datasetID, principalARN)
	if m.GrantDatasetPermissionsFn != nil {
		return m.GrantDatasetPermissionsFn(ctx, accountID, datasetID, principalARN, actions)
	}
	return nil
}

var _ domain.AccessGateway = (*MockGateway)(nil)

// === Manifest Store Mock ===

// MockManifestStore implements domain.ManifestStore backed by a map.
// A missing key returns a domain NotFoundError, matching S3 semantics.
type MockManifestStore struct {
	Objects map[string][]byte
	GetErr  error // returned by Get when set (overrides Objects)
	PutErr  error // returned by Put when set
}

// Get implements the interface method for testing.
func (m *MockManifestStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	data, ok := m.Objects[key]
	if !ok {
		return nil, domain.ErrNotFound("object %q not found", key)
	}
	return data, nil
}

// Put implements the interface method for testing.
func (m *MockManifestStore) Put(_ context.Context, key string, body []byte) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	if m.Objects == nil {
		m.Objects = map[string][]byte{}
	}
	m.Objects[key] = body
	return nil
}

var _ domain.ManifestStore = (*MockManifestStore)(nil)

// === Secrets Provider Mock ===

// MockSecrets returns canned secret strings by ID.
type MockSecrets struct {
	Secrets map[string]string
}

// Secret implements the collector.SecretsProvider contract for testing.
func (m *MockSecrets) Secret(_ context.Context, id string) (string, error) {
	s, ok := m.Secrets[id]
	if !ok {
		return "", fmt.Errorf("secret %q not found", id)
	}
	return s, nil
}
