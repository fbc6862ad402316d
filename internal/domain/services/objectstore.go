package services

import "context"

// ObjectStore is the blob storage the folder core keeps aligned with
// folder paths. Prefixes end with "/".
type ObjectStore interface {
	// Relocate renames every object under oldPrefix to newPrefix
	Relocate(ctx context.Context, oldPrefix, newPrefix string) error
	// Copy duplicates every object under srcPrefix to dstPrefix
	Copy(ctx context.Context, srcPrefix, dstPrefix string) error
	// DeleteAll removes every object under prefix
	DeleteAll(ctx context.Context, prefix string) error
}
