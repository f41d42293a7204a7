package models

import (
	"time"
)

// RepositoryLink is a GitHub repository connected to an organization.
// FullName and DefaultBranch are immutable once created.
type RepositoryLink struct {
	ID            string    `db:"id"             json:"id"`
	OrgID         OrgID     `db:"organization_id" json:"organization_id"`
	CredentialID  string    `db:"credential_id"  json:"credential_id"`
	FullName      string    `db:"full_name"      json:"full_name"`
	DefaultBranch string    `db:"default_branch" json:"default_branch"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"     json:"updated_at"`
}
