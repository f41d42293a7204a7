package tree

import (
	"sort"
	"strings"

	"rulesync/models"
)

// reservedDirNames are version-control internals that must never surface
// in a file tree handed to the UI
var reservedDirNames = map[string]struct{}{
	".git": {},
	".svn": {},
	".hg":  {},
}

// Build turns an unordered flat entry list from the provider into an
// ordered forest of tree nodes representing the root level.
//
// Entries under hidden or reserved version-control directories are
// filtered out. Entries whose parent directory is absent from the input
// are dropped: a directory never appears in the output without also
// appearing as an entry in the input.
func Build(entries []models.FlatTreeEntry) []*models.TreeNode {
	filtered := make([]models.FlatTreeEntry, 0, len(entries))
	for _, entry := range entries {
		if !isVisiblePath(entry.Path) {
			continue
		}
		filtered = append(filtered, entry)
	}

	// Lexicographic path order guarantees a directory is processed before
	// any of its descendants, even when the provider returns entries out
	// of order.
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Path < filtered[j].Path
	})

	nodesByPath := make(map[string]*models.TreeNode, len(filtered))
	var roots []*models.TreeNode

	for _, entry := range filtered {
		segments := strings.Split(entry.Path, "/")
		name := segments[len(segments)-1]

		node := &models.TreeNode{
			Name: name,
			Path: entry.Path,
			Kind: entry.Kind,
		}
		nodesByPath[entry.Path] = node

		parentPath := strings.Join(segments[:len(segments)-1], "/")
		if parentPath == "" {
			roots = append(roots, node)
			continue
		}

		parent, ok := nodesByPath[parentPath]
		if !ok || parent.Kind != models.TreeEntryKindDirectory {
			// Parent was filtered or never listed; drop the orphan
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	sortNodes(roots)
	return roots
}

// isVisiblePath reports whether a path survives filtering. Paths with an
// empty segment are malformed and treated as non-existent.
func isVisiblePath(path string) bool {
	if path == "" {
		return false
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			return false
		}
		if strings.HasPrefix(segment, ".") {
			return false
		}
		if _, reserved := reservedDirNames[segment]; reserved {
			return false
		}
	}
	return true
}

// sortNodes orders siblings directory-first, then by name case-insensitively,
// and recurses into directory children. The comparator is a total order, so
// re-sorting an already sorted list is a no-op.
func sortNodes(nodes []*models.TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return lessNode(nodes[i], nodes[j])
	})
	for _, node := range nodes {
		if node.Kind == models.TreeEntryKindDirectory {
			sortNodes(node.Children)
		}
	}
}

func lessNode(a, b *models.TreeNode) bool {
	if a.Kind != b.Kind {
		return a.Kind == models.TreeEntryKindDirectory
	}
	nameA := strings.ToLower(a.Name)
	nameB := strings.ToLower(b.Name)
	if nameA != nameB {
		return nameA < nameB
	}
	// Stable tiebreak for names differing only by case
	return a.Name < b.Name
}
