package domain

import (
	"fmt"
	"strings"
)

// UserRecord is one user entry from the user governance manifest. It declares
// the desired remote state for a single user: the namespace it lives in, its
// role, and the groups it belongs to.
type UserRecord struct {
	Username  string `json:"username"`
	Namespace string `json:"namespace"`
	Groups    string `json:"groups"` // comma-separated group names
	Role      string `json:"role"`
	Email     string `json:"email"`

	// AccountID is stamped by the batch driver from the invocation
	// environment; it is never part of the manifest document.
	AccountID string `json:"-"`
}

// IdentityHandle returns the identifier under which this user is addressed
// in the remote system: "{rolePrefix}/{username}". It is a pure function of
// the record and the federated role binding.
func (u UserRecord) IdentityHandle(rolePrefix string) string {
	return rolePrefix + "/" + u.Username
}

// DesiredGroups splits the Groups field into group names, dropping empties.
func (u UserRecord) DesiredGroups() []string {
	if u.Groups == "" {
		return nil
	}
	var groups []string
	for _, g := range strings.Split(u.Groups, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

// Validate checks the fields the reconciler depends on.
func (u UserRecord) Validate() error {
	if u.Username == "" {
		return ErrValidation("user record is missing username")
	}
	if u.Namespace == "" {
		return ErrValidation("user record %q is missing namespace", u.Username)
	}
	if u.Role == "" {
		return ErrValidation("user record %q is missing role", u.Username)
	}
	return nil
}

// String identifies the record in logs and run reports.
func (u UserRecord) String() string {
	return fmt.Sprintf("%s/%s", u.Namespace, u.Username)
}

// IAMRoleARN builds the ARN of the federated role that manifest users are
// bound to when registered with the remote system.
func IAMRoleARN(accountID, roleName string) string {
	return fmt.Sprintf("arn:aws:iam::%s:role/%s", accountID, roleName)
}
