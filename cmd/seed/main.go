package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"assetlib/internal/auth"
	"assetlib/internal/bootstrap"
	"assetlib/internal/config"
	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/services"

	"github.com/joho/godotenv"
)

func main() {
	owner := flag.String("owner", "demo-owner", "User ID that owns the seeded folders")
	viewer := flag.String("viewer", "demo-viewer", "User ID granted view access to the seeded campaign")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "Lifetime of the printed HS256 tokens (0 skips tokens)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: never seed demo data into production
	if cfg.Environment == "prod" {
		log.Fatalf("BLOCKED: refusing to seed the prod environment")
	}

	logger := config.NewLogger(cfg.Environment, os.Stdout)
	ctx := context.Background()

	backend, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize library: %v", err)
	}
	defer backend.Close()

	if err := seed(ctx, backend.Services.Folders, backend.Services.Sharing, *owner, *viewer); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")

	if *tokenTTL > 0 && cfg.JWTSecret != "" {
		printTokens(cfg.JWTSecret, *tokenTTL, logger, *owner, *viewer)
	}
}

// seed creates Campaigns/2024/{Q1,Q2} plus a dated uploads folder and
// shares the campaign read-only with the viewer. Existing folders are reused.
func seed(ctx context.Context, folders services.FolderService, sharing services.SharingService, ownerID, viewerID string) error {
	owner := models.Principal{UserID: ownerID}

	campaigns, err := ensureFolder(ctx, folders, owner, "Campaigns", nil)
	if err != nil {
		return err
	}
	year, err := ensureFolder(ctx, folders, owner, "2024", &campaigns.ID)
	if err != nil {
		return err
	}
	for _, q := range []string{"Q1", "Q2"} {
		if _, err := ensureFolder(ctx, folders, owner, q, &year.ID); err != nil {
			return err
		}
	}

	uploads, err := ensureFolder(ctx, folders, owner, "Uploads", nil)
	if err != nil {
		return err
	}
	month, err := folders.EnsureDateFolder(ctx, owner, &uploads.ID, time.Now())
	if err != nil {
		return fmt.Errorf("date folder: %w", err)
	}
	log.Printf("Upload folder ready: %s", month.StoragePath)

	_, err = sharing.Share(ctx, owner, &services.ShareRequest{
		Resource:    models.FolderRef(campaigns.ID),
		Grantee:     models.UserGrantee(viewerID),
		Permissions: []models.Permission{models.PermissionView, models.PermissionDownload},
	})
	if err != nil {
		return fmt.Errorf("share campaigns: %w", err)
	}
	log.Printf("Shared %s with %s (view, download)", campaigns.StoragePath, viewerID)
	return nil
}

func ensureFolder(ctx context.Context, folders services.FolderService, p models.Principal, name string, parentID *string) (*models.Folder, error) {
	folder, err := folders.Create(ctx, p, &services.CreateFolderRequest{Name: name, ParentID: parentID})
	if err == nil {
		log.Printf("Created folder %s", folder.StoragePath)
		return folder, nil
	}

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) || conflict.ResourceID == "" {
		return nil, fmt.Errorf("create folder %q: %w", name, err)
	}

	// Already seeded: find it again through the contents listing
	page, err := contentsOf(ctx, folders, p, parentID)
	if err != nil {
		return nil, err
	}
	for i := range page {
		if page[i].ID == conflict.ResourceID {
			return &page[i], nil
		}
	}
	return nil, fmt.Errorf("folder %q exists but is not listed", name)
}

func contentsOf(ctx context.Context, folders services.FolderService, p models.Principal, parentID *string) ([]models.Folder, error) {
	var out []models.Folder
	if parentID == nil {
		roots, err := folders.GetTree(ctx, p, nil)
		if err != nil {
			return nil, err
		}
		for _, n := range roots {
			out = append(out, models.Folder{ID: n.ID, Name: n.Name, ParentID: n.ParentID, StoragePath: n.StoragePath})
		}
		return out, nil
	}

	page, err := folders.GetContents(ctx, p, *parentID, models.Pagination{Limit: config.MaxPageSize})
	if err != nil {
		return nil, err
	}
	for _, item := range page.Folders {
		out = append(out, item.Folder)
	}
	return out, nil
}

func printTokens(secret string, ttl time.Duration, logger *slog.Logger, users ...string) {
	v, err := auth.NewHMACVerifier(secret, logger)
	if err != nil {
		log.Printf("Skipping tokens: %v", err)
		return
	}
	for _, u := range users {
		token, err := v.GenerateToken(u, "", ttl)
		if err != nil {
			log.Printf("Token for %s failed: %v", u, err)
			continue
		}
		fmt.Printf("%s\t%s\n", u, token)
	}
}
