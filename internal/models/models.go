package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Employee is an SSO-authenticated principal. The numeric ID is internal;
// only the UUID is ever exposed outside the service.
type Employee struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"-"`
	UUID         string         `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	FirstName    string         `gorm:"not null" json:"first_name"`
	MiddleName   string         `json:"middle_name,omitempty"`
	LastName     string         `gorm:"not null" json:"last_name"`
	Suffix       string         `json:"suffix,omitempty"`
	Position     string         `json:"position,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *Employee) FullName() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{e.FirstName, e.MiddleName, e.LastName, e.Suffix} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Application is a registered client of the SSO authority. The client secret
// is stored only as a bcrypt hash; the plaintext is returned exactly once on
// creation or rotation.
type Application struct {
	ID                 uint           `gorm:"primaryKey;autoIncrement" json:"-"`
	UUID               string         `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Name               string         `gorm:"not null" json:"name"`
	Description        string         `json:"description,omitempty"`
	ClientID           string         `gorm:"uniqueIndex;size:40;not null" json:"client_id"`
	ClientSecretHash   string         `gorm:"not null" json:"-"`
	RedirectURIs       JSONB          `gorm:"type:jsonb;default:'[]'::jsonb" json:"redirect_uris"`
	RateLimitPerMinute int            `gorm:"not null;default:60" json:"rate_limit_per_minute"`
	IsActive           bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// AccessGrant links one employee to one application at exactly one role.
// The (employee, application) pair is unique; regranting replaces the role.
type AccessGrant struct {
	ID            uint        `gorm:"primaryKey;autoIncrement" json:"-"`
	EmployeeID    uint        `gorm:"not null;uniqueIndex:idx_grant_employee_application" json:"-"`
	ApplicationID uint        `gorm:"not null;uniqueIndex:idx_grant_employee_application" json:"-"`
	Role          Role        `gorm:"size:32;not null" json:"role"`
	Employee      Employee    `gorm:"foreignKey:EmployeeID" json:"-"`
	Application   Application `gorm:"foreignKey:ApplicationID" json:"-"`
	CreatedAt     time.Time   `json:"granted_at"`
	UpdatedAt     time.Time   `json:"-"`
}

// Token is one issued bearer credential. Only the sha256 of the bearer value
// is stored. Rows are never deleted; dead tokens stay for history.
type Token struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"-"`
	UUID          string     `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	EmployeeID    uint       `gorm:"index;not null" json:"-"`
	ApplicationID *uint      `gorm:"index" json:"-"`
	TokenHash     string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (t *Token) IsRevoked() bool {
	return t.RevokedAt != nil
}

// AuditLog is an append-only record of a security decision. Rows are written
// once and never mutated.
type AuditLog struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EmployeeID    *uint     `gorm:"index" json:"employee_id,omitempty"`
	ApplicationID *uint     `gorm:"index" json:"application_id,omitempty"`
	Action        string    `gorm:"size:32;index;not null" json:"action"`
	IPAddress     string    `gorm:"size:45" json:"ip_address"`
	UserAgent     string    `json:"user_agent"`
	Metadata      JSONB     `gorm:"type:jsonb;default:'{}'::jsonb" json:"metadata"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}
