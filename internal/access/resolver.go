// Package access resolves per-application authorization. Grants are always
// queried live; revoking a grant takes effect on the very next check.
package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ssohub/internal/models"
)

type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// HasAccess reports whether a grant exists for the (employee, application)
// pair.
func (r *Resolver) HasAccess(ctx context.Context, employeeID, applicationID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AccessGrant{}).
		Where("employee_id = ? AND application_id = ?", employeeID, applicationID).
		Count(&count).Error
	return count > 0, err
}

// RoleFor returns the granted role, or false when no grant exists. A missing
// grant means not authorized, never a default role.
func (r *Resolver) RoleFor(ctx context.Context, employeeID, applicationID uint) (models.Role, bool, error) {
	var g models.AccessGrant
	err := r.db.WithContext(ctx).
		First(&g, "employee_id = ? AND application_id = ?", employeeID, applicationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return g.Role, true, nil
}

// Grant upserts the single edge for the pair: creating it when absent,
// replacing the role in place when present.
func (r *Resolver) Grant(ctx context.Context, employeeID, applicationID uint, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("grant: unknown role %q", role)
	}
	g := models.AccessGrant{
		EmployeeID:    employeeID,
		ApplicationID: applicationID,
		Role:          role,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}, {Name: "application_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"role":       role,
			"updated_at": time.Now(),
		}),
	}).Create(&g).Error
}

// Revoke deletes the edge unconditionally, succeeding silently when no grant
// existed.
func (r *Resolver) Revoke(ctx context.Context, employeeID, applicationID uint) error {
	return r.db.WithContext(ctx).
		Where("employee_id = ? AND application_id = ?", employeeID, applicationID).
		Delete(&models.AccessGrant{}).Error
}

// GrantsForEmployee lists the employee's grants with applications preloaded,
// for the management surface.
func (r *Resolver) GrantsForEmployee(ctx context.Context, employeeID uint) ([]models.AccessGrant, error) {
	var grants []models.AccessGrant
	err := r.db.WithContext(ctx).
		Preload("Application").
		Where("employee_id = ?", employeeID).
		Order("created_at asc").
		Find(&grants).Error
	return grants, err
}
