package policy

import "assetlib/internal/domain/models"

// Document is the YAML shape of an access policy file.
type Document struct {
	AdminRoles []string     `yaml:"admin_roles" json:"admin_roles"`
	Lock       LockPolicy   `yaml:"lock" json:"lock"`
	Objects    ObjectPolicy `yaml:"objects" json:"objects"`
	Batch      BatchPolicy  `yaml:"batch" json:"batch"`
}

// LockPolicy controls how folder locks narrow access.
type LockPolicy struct {
	Enabled            bool                `yaml:"enabled" json:"enabled"`
	AllowedPermissions []models.Permission `yaml:"allowed_permissions" json:"allowed_permissions"`
}

// ObjectPolicy controls object store side effects.
type ObjectPolicy struct {
	PurgeOnDelete bool `yaml:"purge_on_delete" json:"purge_on_delete"`
}

// BatchPolicy bounds batch file operations.
type BatchPolicy struct {
	MaxItems int `yaml:"max_items" json:"max_items"`
}
