// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// Users have no soft-delete state: SoftDeleteUser and RestoreUser are
// deliberate no-ops returning ErrNotFound, and HardDeleteUser is the only
// destructive operation. The hard delete cascades to the user's reports and
// payments through the FK constraints declared on the models, which is the
// GDPR erasure path.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/unipath-labs/go-abroad-backend/internal/domain"
)

// userMutableFields is the allow-list of attributes a partial update may
// touch. Unknown keys in the update map are silently ignored.
var userMutableFields = map[string]struct{}{
	"email": {},
}

// CreateUser inserts a new User row keyed by the identity-provider subject.
func CreateUser(ctx context.Context, db *gorm.DB, externalID, email string) (*domain.User, error) {
	u := &domain.User{
		ID:         uuid.NewString(),
		ExternalID: externalID,
		Email:      email,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser fetches a user by internal id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByExternalID fetches a user by identity-provider subject, or
// ErrNotFound.
func GetUserByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("external_id = ?", externalID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindOrCreateUser returns the user for externalID, creating the row on the
// first authenticated request. One internal record per external identity id.
func FindOrCreateUser(ctx context.Context, db *gorm.DB, externalID, email string) (*domain.User, error) {
	u, err := GetUserByExternalID(ctx, db, externalID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return CreateUser(ctx, db, externalID, email)
}

// UpdateUser applies the allow-listed keys from the partial-update map to the
// user identified by id and returns the refreshed row. Unknown keys are
// ignored; a missing user yields ErrNotFound.
func UpdateUser(ctx context.Context, db *gorm.DB, id string, data map[string]any) (*domain.User, error) {
	if _, err := GetUser(ctx, db, id); err != nil {
		return nil, err
	}
	updates := filterAllowed(data, userMutableFields)
	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return GetUser(ctx, db, id)
}

// SoftDeleteUser is a deliberate no-op: users carry no soft-delete state.
// It always reports ErrNotFound so callers treat the operation as having
// matched nothing.
func SoftDeleteUser(ctx context.Context, db *gorm.DB, id string) error {
	return ErrNotFound
}

// HardDeleteUser permanently removes the user row. Owned reports and
// payments are removed by the FK cascade.
func HardDeleteUser(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RestoreUser is a deliberate no-op mirroring SoftDeleteUser.
func RestoreUser(ctx context.Context, db *gorm.DB, id string) error {
	return ErrNotFound
}

// filterAllowed keeps only the keys of data present in the allow-list.
func filterAllowed(data map[string]any, allowed map[string]struct{}) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if _, ok := allowed[k]; ok {
			out[k] = v
		}
	}
	return out
}
