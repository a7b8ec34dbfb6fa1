package service

import (
	"strings"

	"github.com/nestmarket/session-gateway/internal/core/domain"
)

// FilterMenu returns the nodes of tree visible to role. A node is kept when
// its own AllowedRoles contains role; children are filtered independently
// and attached to kept parents, so a kept parent may end up with none.
// Hidden parents take their subtree with them. The input is not modified.
func FilterMenu(tree []domain.NavigationMenuNode, role domain.Role) []domain.NavigationMenuNode {
	out := make([]domain.NavigationMenuNode, 0, len(tree))
	for i := range tree {
		node := tree[i]
		children := FilterMenu(node.Children, role)
		if !node.Allows(role) {
			continue
		}
		node.AllowedRoles = append([]domain.Role(nil), node.AllowedRoles...)
		node.Children = children
		out = append(out, node)
	}
	return out
}

// ActiveMenuKey returns the key of the node whose path is the longest
// prefix of currentPath. The walk is depth-first in declaration order and
// only a strictly longer match replaces the current best, so descendants
// beat ancestors and earlier siblings win ties.
func ActiveMenuKey(tree []domain.NavigationMenuNode, currentPath string) (string, bool) {
	best, bestLen := "", -1
	var walk func(nodes []domain.NavigationMenuNode)
	walk = func(nodes []domain.NavigationMenuNode) {
		for i := range nodes {
			n := &nodes[i]
			if n.Path != "" && pathHasPrefix(currentPath, n.Path) && len(n.Path) > bestLen {
				best, bestLen = n.Key, len(n.Path)
			}
			walk(n.Children)
		}
	}
	walk(tree)
	return best, bestLen >= 0
}

// pathHasPrefix matches whole path segments: /listings covers /listings and
// /listings/42 but not /listings-archive.
func pathHasPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return strings.HasPrefix(path, "/")
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/' || rest[0] == '?' || rest[0] == '#'
}

// Navigator serves the filtered menu for a static tree.
type Navigator struct {
	tree []domain.NavigationMenuNode
}

func NewNavigator(tree []domain.NavigationMenuNode) *Navigator {
	return &Navigator{tree: tree}
}

// Menu returns the tree visible to role and the active entry for
// currentPath within that visible tree ("" when nothing matches).
func (n *Navigator) Menu(role domain.Role, currentPath string) ([]domain.NavigationMenuNode, string) {
	visible := FilterMenu(n.tree, role)
	active, _ := ActiveMenuKey(visible, currentPath)
	return visible, active
}
