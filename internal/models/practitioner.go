package models

import (
	"strings"
	"time"
)

// Practitioner mirrors an identity that is subject to the continuing-education requirement.
type Practitioner struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:128;not null" json:"first_name"`
	LastName  string    `gorm:"size:128;not null" json:"last_name"`
	Email     string    `gorm:"size:255;index" json:"email"`
	Role      string    `gorm:"size:32;not null;index" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName joins first and last names.
func (p Practitioner) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Roles understood by the ledger. Tokens are issued by the identity provider.
const (
	RolePractitioner = "practitioner"
	RoleModerator    = "moderator"
	RoleAdmin        = "admin"
	RoleSystem       = "system"
)
