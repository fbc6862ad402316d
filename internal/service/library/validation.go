package library

import (
	"fmt"
	"regexp"
	"strings"

	"assetlib/internal/config"
	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	noSlashes = validation.Match(regexp.MustCompile(`^[^/]+$`)).Error("folder name cannot contain slashes")
	hexColor  = validation.Match(regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)).Error("color must be a hex value like #1a2b3c")
)

func folderNameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(1, config.MaxFolderNameLength),
		noSlashes,
		validation.By(func(v interface{}) error {
			s, _ := v.(string)
			if strings.TrimSpace(s) != s {
				return fmt.Errorf("folder name cannot start or end with whitespace")
			}
			if s == "." || s == ".." {
				return fmt.Errorf("folder name cannot be %q", s)
			}
			return nil
		}),
	}
}

// validateFolderName checks a single folder name.
func validateFolderName(name string) error {
	if err := validation.Validate(name, folderNameRules()...); err != nil {
		return fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
	}
	return nil
}

// validateCreateRequest validates a folder creation request
func validateCreateRequest(req *services.CreateFolderRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Name, folderNameRules()...),
		validation.Field(&req.FolderType, validation.By(func(v interface{}) error {
			t, _ := v.(models.FolderType)
			if t != "" && !t.Valid() {
				return fmt.Errorf("unknown folder type %q", t)
			}
			return nil
		})),
		validation.Field(&req.Color, hexColor),
		validation.Field(&req.Description, validation.Length(0, config.MaxFolderDescriptionLength)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// validateShareRequest validates a grant request
func validateShareRequest(req *services.ShareRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Permissions, validation.Required, validation.Each(validation.By(func(v interface{}) error {
			p, _ := v.(models.Permission)
			if !p.Valid() {
				return fmt.Errorf("unknown permission %q", p)
			}
			return nil
		}))),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.Resource.IsZero() {
		return fmt.Errorf("%w: resource is required", domain.ErrValidation)
	}
	if req.Grantee.ID() == "" {
		return fmt.Errorf("%w: grantee is required", domain.ErrValidation)
	}
	return nil
}

// validateTeamName checks a team name.
func validateTeamName(name string) error {
	err := validation.Validate(strings.TrimSpace(name),
		validation.Required,
		validation.Length(1, config.MaxTeamNameLength),
	)
	if err != nil {
		return fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
	}
	return nil
}

// normalizePage applies default and maximum page sizes.
func normalizePage(page models.Pagination) (models.Pagination, error) {
	if page.Limit < 0 || page.Offset < 0 {
		return page, fmt.Errorf("%w: limit and offset must be non-negative", domain.ErrValidation)
	}
	if page.Limit == 0 {
		page.Limit = config.DefaultPageSize
	}
	if page.Limit > config.MaxPageSize {
		page.Limit = config.MaxPageSize
	}
	return page, nil
}
