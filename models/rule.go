package models

import (
	"time"
)

// RuleType partitions rules into the categories the virtual tree projects
type RuleType string

const (
	RuleTypeProject RuleType = "project_rule"
	RuleTypeUser    RuleType = "user_rule"
	RuleTypeCommand RuleType = "command"
)

// IsValid reports whether the rule type is one of the known categories
func (t RuleType) IsValid() bool {
	switch t {
	case RuleTypeProject, RuleTypeUser, RuleTypeCommand:
		return true
	}
	return false
}

// Rule is one editor-configuration rule row scoped to a connected repository.
// FileNameStem never includes a file extension; the extension is derived from
// Type when the rule tree is projected.
type Rule struct {
	ID                string     `db:"id"                 json:"id"`
	OrgID             OrgID      `db:"organization_id"    json:"organization_id"`
	RepositoryID      string     `db:"repository_id"      json:"repository_id"`
	Type              RuleType   `db:"type"               json:"type"`
	FileNameStem      string     `db:"file_name_stem"     json:"file_name_stem"`
	Content           string     `db:"content"            json:"content"`
	IsActive          bool       `db:"is_active"          json:"is_active"`
	AppliedConditions *string    `db:"applied_conditions" json:"applied_conditions"`
	CreatedAt         time.Time  `db:"created_at"         json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"         json:"updated_at"`
	DeletedAt         *time.Time `db:"deleted_at"         json:"-"`
}
