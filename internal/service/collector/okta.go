// Package collector builds the user governance manifest from the upstream
// identity provider and uploads it to the manifest store.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"qs-governance/internal/domain"
)

// SecretsProvider fetches secret strings by ID.
type SecretsProvider interface {
	Secret(ctx context.Context, id string) (string, error)
}

// oktaCredentials is the JSON shape of the Okta secret.
type oktaCredentials struct {
	AccountID string `json:"okta-account-id-secret"`
	AppID     string `json:"okta-app-id-secret"`
	AppToken  string `json:"okta-app-token-secret"`
}

// oktaAppUser is one entry of the Okta application user listing. Only the
// fields the manifest needs are decoded.
type oktaAppUser struct {
	Credentials struct {
		UserName string `json:"userName"`
	} `json:"credentials"`
	Profile struct {
		Organization string `json:"organization"`
		Department   string `json:"department"`
		UserType     string `json:"userType"`
		Email        string `json:"email"`
	} `json:"profile"`
}

// complete reports whether the user carries every field the manifest maps.
// Partially-specified Okta profiles are dropped, not defaulted.
func (u oktaAppUser) complete() bool {
	return u.Credentials.UserName != "" &&
		u.Profile.Organization != "" &&
		u.Profile.Department != "" &&
		u.Profile.UserType != "" &&
		u.Profile.Email != ""
}

// Collector fetches the user list for one Okta application and publishes it
// as the user governance manifest.
type Collector struct {
	http    *http.Client
	secrets SecretsProvider
	store   domain.ManifestStore
	logger  *slog.Logger

	secretID    string
	manifestKey string
	// baseURL overrides the Okta host, for tests. Empty means
	// https://{account}.okta.com.
	baseURL string
}

// Options configures a Collector.
type Options struct {
	SecretID    string // Secrets Manager ID holding the Okta credentials
	ManifestKey string // manifest store key to publish under
	BaseURL     string // optional Okta base URL override
}

// New creates a Collector.
func New(secrets SecretsProvider, store domain.ManifestStore, opts Options, logger *slog.Logger) *Collector {
	return &Collector{
		http:        &http.Client{Timeout: 30 * time.Second},
		secrets:     secrets,
		store:       store,
		logger:      logger,
		secretID:    opts.SecretID,
		manifestKey: opts.ManifestKey,
		baseURL:     opts.BaseURL,
	}
}

// Collect fetches the Okta application users, builds the user manifest from
// the fully-specified profiles, and uploads it. It returns the number of
// manifest records published.
func (c *Collector) Collect(ctx context.Context) (int, error) {
	raw, err := c.secrets.Secret(ctx, c.secretID)
	if err != nil {
		return 0, err
	}
	var creds oktaCredentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return 0, fmt.Errorf("parse okta secret: %w", err)
	}

	users, err := c.fetchAppUsers(ctx, creds)
	if err != nil {
		return 0, err
	}

	manifest := buildManifest(users)
	data, err := manifest.Encode()
	if err != nil {
		return 0, err
	}
	if err := c.store.Put(ctx, c.manifestKey, data); err != nil {
		return 0, err
	}

	c.logger.Info("user manifest published",
		"key", c.manifestKey,
		"okta_users", len(users),
		"records", len(manifest.Users),
	)
	return len(manifest.Users), nil
}

func (c *Collector) fetchAppUsers(ctx context.Context, creds oktaCredentials) ([]oktaAppUser, error) {
	base := c.baseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.okta.com", creds.AccountID)
	}
	url := fmt.Sprintf("%s/api/v1/apps/%s/users", base, creds.AppID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build okta request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "SSWS "+creds.AppToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch okta users: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("okta users request failed: %s: %s", resp.Status, body)
	}

	var users []oktaAppUser
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("parse okta users: %w", err)
	}
	return users, nil
}

// buildManifest maps Okta profiles onto manifest records: organization →
// namespace, department → groups, userType → role.
func buildManifest(users []oktaAppUser) *domain.UserManifest {
	manifest := &domain.UserManifest{Users: []domain.UserRecord{}}
	for _, u := range users {
		if !u.complete() {
			continue
		}
		manifest.Users = append(manifest.Users, domain.UserRecord{
			Username:  u.Credentials.UserName,
			Namespace: u.Profile.Organization,
			Groups:    u.Profile.Department,
			Role:      u.Profile.UserType,
			Email:     u.Profile.Email,
		})
	}
	return manifest
}
