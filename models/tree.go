package models

// TreeEntryKind distinguishes files from directories in tree structures
type TreeEntryKind string

const (
	TreeEntryKindFile      TreeEntryKind = "file"
	TreeEntryKindDirectory TreeEntryKind = "directory"
)

// FlatTreeEntry is one path from the provider's recursive tree listing.
// Paths use /-separated segments with no leading slash.
type FlatTreeEntry struct {
	Path string        `json:"path"`
	Kind TreeEntryKind `json:"kind"`
}

// TreeNode is a node in the hierarchical tree handed to the UI. Directory
// children are always ordered; file nodes never have children. RuleID and
// IsActive are only set on nodes projected from rule rows.
type TreeNode struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Kind     TreeEntryKind `json:"kind"`
	Children []*TreeNode   `json:"children,omitempty"`
	RuleID   string        `json:"rule_id,omitempty"`
	IsActive *bool         `json:"is_active,omitempty"`
}
