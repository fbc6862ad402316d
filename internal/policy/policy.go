package policy

import (
	"embed"
	"fmt"
	"os"
	"sync"

	"assetlib/internal/domain/models"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

const defaultBatchMax = 500

// Policy holds the access policy consulted by the resolver and services.
type Policy struct {
	adminRoles map[string]struct{}
	lockAllows models.PermissionSet
	doc        Document
	mu         sync.RWMutex
}

// Load reads the embedded default policy, then applies overridePath when
// it is non-empty.
func Load(overridePath string) (*Policy, error) {
	data, err := configFiles.ReadFile("config/default.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read default policy: %w", err)
	}
	if overridePath != "" {
		data, err = os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read policy file %s: %w", overridePath, err)
		}
	}
	return Parse(data)
}

// Parse builds a Policy from YAML.
func Parse(data []byte) (*Policy, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy: %w", err)
	}
	p := &Policy{}
	if err := p.apply(doc); err != nil {
		return nil, err
	}
	return p, nil
}

// Default returns the embedded policy. It panics if the embedded file is broken.
func Default() *Policy {
	p, err := Load("")
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Policy) apply(doc Document) error {
	roles := make(map[string]struct{}, len(doc.AdminRoles))
	for _, r := range doc.AdminRoles {
		roles[r] = struct{}{}
	}

	allows := models.NewPermissionSet()
	for _, perm := range doc.Lock.AllowedPermissions {
		if !perm.Valid() {
			return fmt.Errorf("policy: unknown permission %q in lock.allowed_permissions", perm)
		}
		allows.Add(perm)
	}

	if doc.Batch.MaxItems <= 0 {
		doc.Batch.MaxItems = defaultBatchMax
	}

	p.mu.Lock()
	p.adminRoles = roles
	p.lockAllows = allows
	p.doc = doc
	p.mu.Unlock()
	return nil
}

// IsAdminRole reports whether role bypasses ownership and grants.
func (p *Policy) IsAdminRole(role string) bool {
	if role == "" {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.adminRoles[role]
	return ok
}

// LockEnabled reports whether folder locks narrow access.
func (p *Policy) LockEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc.Lock.Enabled
}

// LockAllows reports whether perm survives on a locked resource.
func (p *Policy) LockAllows(perm models.Permission) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lockAllows.Has(perm)
}

// PurgeOnDelete reports whether recursive deletes remove stored objects.
func (p *Policy) PurgeOnDelete() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc.Objects.PurgeOnDelete
}

// MaxBatchItems bounds batch file operations.
func (p *Policy) MaxBatchItems() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc.Batch.MaxItems
}

// Snapshot returns a copy of the loaded policy document.
func (p *Policy) Snapshot() Document {
	p.mu.RLock()
	defer p.mu.RUnlock()
	doc := p.doc
	doc.AdminRoles = append([]string(nil), p.doc.AdminRoles...)
	doc.Lock.AllowedPermissions = append([]models.Permission(nil), p.doc.Lock.AllowedPermissions...)
	return doc
}
