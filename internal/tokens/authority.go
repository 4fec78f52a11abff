// Package tokens implements the token authority: issuing, validating,
// refreshing and revoking employee bearer tokens. Only the sha256 of a bearer
// value is ever persisted; a token row is live while revoked_at is null.
package tokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ssohub/internal/auth"
	"ssohub/internal/models"
)

var (
	// ErrTokenInvalid covers bad signatures, expiry, unknown hashes and
	// revoked rows. Once a token is dead it stays dead.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrEmployeeInactive means the token verified but its subject no longer
	// authenticates: account state overrides cryptographic validity.
	ErrEmployeeInactive = errors.New("invalid or inactive employee")
)

type Authority struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
}

func NewAuthority(db *gorm.DB, secret []byte, ttl time.Duration) *Authority {
	return &Authority{db: db, secret: secret, ttl: ttl}
}

// HashBearer is the storage form of a bearer value.
func HashBearer(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Issue mints a signed token for the employee and persists its hash. The
// application is recorded when the login is tied to one, nil otherwise.
func (a *Authority) Issue(ctx context.Context, emp *models.Employee, app *models.Application) (string, error) {
	raw, err := auth.Sign(a.secret, emp.UUID, a.ttl)
	if err != nil {
		return "", err
	}
	t := models.Token{
		UUID:       uuid.NewString(),
		EmployeeID: emp.ID,
		TokenHash:  HashBearer(raw),
	}
	if app != nil {
		t.ApplicationID = &app.ID
	}
	if err := a.db.WithContext(ctx).Create(&t).Error; err != nil {
		return "", err
	}
	return raw, nil
}

// Validate checks signature and expiry, requires a live token row for the
// presented bearer, and resolves an active employee. The row's last_used_at
// is stamped on success.
func (a *Authority) Validate(ctx context.Context, raw string) (*models.Employee, error) {
	claims, err := auth.Verify(a.secret, raw)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	db := a.db.WithContext(ctx)
	var t models.Token
	if err := db.First(&t, "token_hash = ?", HashBearer(raw)).Error; err != nil {
		return nil, ErrTokenInvalid
	}
	if t.IsRevoked() {
		return nil, ErrTokenInvalid
	}

	var emp models.Employee
	if err := db.First(&emp, "uuid = ? AND is_active = ?", claims.Subject, true).Error; err != nil {
		return nil, ErrEmployeeInactive
	}

	now := time.Now()
	if err := db.Model(&t).Update("last_used_at", now).Error; err != nil {
		return nil, err
	}
	return &emp, nil
}

// Refresh validates the presented token, kills it and issues a replacement
// for the same employee. The old bearer never validates again.
func (a *Authority) Refresh(ctx context.Context, raw string) (string, *models.Employee, error) {
	emp, err := a.Validate(ctx, raw)
	if err != nil {
		return "", nil, err
	}
	if err := a.Revoke(ctx, raw); err != nil {
		return "", nil, err
	}
	newRaw, err := a.Issue(ctx, emp, nil)
	if err != nil {
		return "", nil, err
	}
	return newRaw, emp, nil
}

// Revoke marks the token row for the bearer revoked. Revoking an already
// revoked or unknown token is a no-op.
func (a *Authority) Revoke(ctx context.Context, raw string) error {
	return a.db.WithContext(ctx).
		Model(&models.Token{}).
		Where("token_hash = ? AND revoked_at IS NULL", HashBearer(raw)).
		Update("revoked_at", time.Now()).Error
}

// RevokeAllForEmployee kills every live token owned by the employee.
func (a *Authority) RevokeAllForEmployee(ctx context.Context, employeeID uint) error {
	return a.db.WithContext(ctx).
		Model(&models.Token{}).
		Where("employee_id = ? AND revoked_at IS NULL", employeeID).
		Update("revoked_at", time.Now()).Error
}

// RevokeAllForApplication kills every live token issued through the
// application, used when an application is deleted or deactivated.
func (a *Authority) RevokeAllForApplication(ctx context.Context, applicationID uint) error {
	return a.db.WithContext(ctx).
		Model(&models.Token{}).
		Where("application_id = ? AND revoked_at IS NULL", applicationID).
		Update("revoked_at", time.Now()).Error
}
