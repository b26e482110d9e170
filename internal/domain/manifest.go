package domain

import (
	"encoding/json"
	"fmt"
)

// UserManifest is the JSON document declaring desired user state:
// {"users": [{username, namespace, groups, role, email}, ...]}.
type UserManifest struct {
	Users []UserRecord `json:"users"`
}

// AssetManifest is the JSON document declaring desired asset grants:
// {"assets": [{name, category, namespace, group, permission}, ...]}.
type AssetManifest struct {
	Assets []AssetRecord `json:"assets"`
}

// DecodeUserManifest parses a user manifest document.
func DecodeUserManifest(data []byte) (*UserManifest, error) {
	var m UserManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse user manifest: %w", err)
	}
	return &m, nil
}

// DecodeAssetManifest parses an asset manifest document.
func DecodeAssetManifest(data []byte) (*AssetManifest, error) {
	var m AssetManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse asset manifest: %w", err)
	}
	return &m, nil
}

// Encode serializes the manifest for upload to the manifest store.
func (m *UserManifest) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal user manifest: %w", err)
	}
	return data, nil
}
