package domain

import "context"

// DatasetSummary is the id/name pair the asset reconciler needs to resolve
// manifest dataset names to remote dataset IDs.
type DatasetSummary struct {
	ID   string
	Name string
}

// UserRegistration carries the fields needed to register a user in a
// namespace. The handle is derived by the remote system from the federated
// role and session name, so it is not part of the registration input.
type UserRegistration struct {
	Email       string
	Role        string
	IAMRoleARN  string
	SessionName string
}

// AccessGateway abstracts the remote access-control system. It is pure
// interface: reconcilers own all decision logic, the gateway only queries
// and mutates remote state.
//
// Existence probes return (bool, error) — a missing entity is a regular
// false, never an error. Mutating operations return a *NotFoundError or
// *InvalidRoleError where the remote system signals one, and a *RemoteError
// for any other failure.
type AccessGateway interface {
	NamespaceExists(ctx context.Context, accountID, namespace string) (bool, error)
	// CreateNamespace provisions asynchronously on the remote side; the
	// caller must treat the namespace as not-yet-ready for a settling
	// period after this returns.
	CreateNamespace(ctx context.Context, accountID, namespace string) error

	UserExists(ctx context.Context, accountID, namespace, handle string) (bool, error)
	RegisterUser(ctx context.Context, accountID, namespace string, reg UserRegistration) error
	UpdateUserRole(ctx context.Context, accountID, namespace, handle, role, email string) error
	DeleteUser(ctx context.Context, accountID, namespace, handle string) error

	GroupExists(ctx context.Context, accountID, namespace, group string) (bool, error)
	CreateGroup(ctx context.Context, accountID, namespace, group string) error
	ListUserGroups(ctx context.Context, accountID, namespace, handle string) ([]string, error)
	AddMembership(ctx context.Context, accountID, namespace, handle, group string) error
	RemoveMembership(ctx context.Context, accountID, namespace, handle, group string) error

	ListDatasets(ctx context.Context, accountID string) ([]DatasetSummary, error)
	// GrantDatasetPermissions is additive and idempotent on the remote
	// side; the engine never revokes asset permissions.
	GrantDatasetPermissions(ctx context.Context, accountID, datasetID, principalARN string, actions []string) error
}

// ManifestStore abstracts the blob store holding manifest documents.
// Get returns a *NotFoundError when the key does not exist.
type ManifestStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte) error
}
