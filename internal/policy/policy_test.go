package policy

import (
	"os"
	"path/filepath"
	"testing"

	"assetlib/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := Default()

	assert.True(t, p.IsAdminRole("admin"))
	assert.True(t, p.IsAdminRole("super_admin"))
	assert.False(t, p.IsAdminRole("editor"))
	assert.False(t, p.IsAdminRole(""))

	assert.True(t, p.LockEnabled())
	assert.True(t, p.LockAllows(models.PermissionView))
	assert.True(t, p.LockAllows(models.PermissionDownload))
	assert.False(t, p.LockAllows(models.PermissionEdit))
	assert.False(t, p.LockAllows(models.PermissionDelete))

	assert.True(t, p.PurgeOnDelete())
	assert.Equal(t, 500, p.MaxBatchItems())
}

func TestParse_Override(t *testing.T) {
	p, err := Parse([]byte(`
admin_roles: [owner]
lock:
  enabled: false
batch:
  max_items: 0
`))
	require.NoError(t, err)

	assert.True(t, p.IsAdminRole("owner"))
	assert.False(t, p.IsAdminRole("admin"))
	assert.False(t, p.LockEnabled())
	assert.False(t, p.PurgeOnDelete())
	assert.Equal(t, defaultBatchMax, p.MaxBatchItems())
}

func TestParse_RejectsUnknownPermission(t *testing.T) {
	_, err := Parse([]byte(`
lock:
  enabled: true
  allowed_permissions: [view, share]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share")
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("admin_roles: [root]\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.True(t, p.IsAdminRole("root"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSnapshot_IsCopy(t *testing.T) {
	p := Default()
	snap := p.Snapshot()
	snap.AdminRoles[0] = "mutated"

	assert.True(t, p.IsAdminRole("admin"))
}
