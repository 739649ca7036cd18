// Package services – UserService
//
// User account operations. Accounts support hard deletion only: deleting a
// user removes the row and cascades to their reports and payments through the
// schema's foreign keys, so no orphaned payment-gated content survives an
// account removal.
package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/unipath-labs/go-abroad-backend/internal/domain"
	"github.com/unipath-labs/go-abroad-backend/internal/repo"
)

// UserService implements account-level operations.
type UserService struct {
	DB *gorm.DB
}

// Get returns the user by internal id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// Delete hard-deletes the account. The database cascades the removal to the
// user's reports and payments; there is no soft-delete or restore path for
// accounts.
func (s *UserService) Delete(ctx context.Context, id string) error {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("user.id", id)),
	)
	defer span.End()

	if err := repo.HardDeleteUser(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	log.Info().Str("user_id", id).Msg("user account hard-deleted with cascade")
	return nil
}
