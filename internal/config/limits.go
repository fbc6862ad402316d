package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxFolderNameLength = 255

	// MaxFolderDescriptionLength bounds the free-text description.
	MaxFolderDescriptionLength = 2000

	// DefaultPageSize and MaxPageSize bound folder content listings.
	DefaultPageSize = 50
	MaxPageSize     = 200

	// MaxTeamNameLength is the maximum length for team names.
	MaxTeamNameLength = 100
)
