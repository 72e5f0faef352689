package project

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/worktally/worktally-backend/internal/pkg/validator"
)

const maxSlugAttempts = 5

type SlugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// AvailableSlug derives a slug from name, adding a short random suffix until it is free.
func AvailableSlug(ctx context.Context, checker SlugChecker, name string) (string, error) {
	base := validator.Slugify(name)
	if len(base) > 40 {
		base = strings.TrimRight(base[:40], "-")
	}
	if len(base) < 3 {
		base = "project"
	}

	candidate := base
	for i := 0; i < maxSlugAttempts; i++ {
		exists, err := checker.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + uuid.NewString()[:6]
	}
	return "", ErrProjectSlugExists
}
