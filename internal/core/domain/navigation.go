package domain

// NavigationMenuNode is one entry of the declarative menu tree.
type NavigationMenuNode struct {
	Key          string               `json:"key" yaml:"key"`
	Label        string               `json:"label" yaml:"label"`
	Path         string               `json:"path,omitempty" yaml:"path"`
	AllowedRoles []Role               `json:"allowedRoles" yaml:"roles"`
	Children     []NavigationMenuNode `json:"children,omitempty" yaml:"children"`
}

// Allows reports whether role is in the node's own AllowedRoles.
func (n *NavigationMenuNode) Allows(role Role) bool {
	for _, r := range n.AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}
