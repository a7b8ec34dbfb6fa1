// Package navigation loads the declarative menu tree.
package navigation

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nestmarket/session-gateway/internal/core/domain"
)

//go:embed menu.yaml
var defaultMenu []byte

// Default returns the tree shipped with the binary.
func Default() ([]domain.NavigationMenuNode, error) {
	return Parse(bytes.NewReader(defaultMenu))
}

// LoadFile reads a tree from path, for deployments that override the
// embedded one.
func LoadFile(path string) ([]domain.NavigationMenuNode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load navigation: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a YAML tree and validates it. Unknown fields are rejected.
func Parse(r io.Reader) ([]domain.NavigationMenuNode, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var tree []domain.NavigationMenuNode
	if err := dec.Decode(&tree); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidNavigation)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidNavigation, err)
	}
	if err := Validate(tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// Validate checks that every key is present and unique across the whole
// tree and that every role name is known.
func Validate(tree []domain.NavigationMenuNode) error {
	seen := make(map[string]struct{})
	var walk func(nodes []domain.NavigationMenuNode, parent string) error
	walk = func(nodes []domain.NavigationMenuNode, parent string) error {
		for i := range nodes {
			n := &nodes[i]
			if n.Key == "" {
				return fmt.Errorf("%w: node %d under %q has no key", domain.ErrInvalidNavigation, i, parent)
			}
			if _, dup := seen[n.Key]; dup {
				return fmt.Errorf("%w: duplicate key %q", domain.ErrInvalidNavigation, n.Key)
			}
			seen[n.Key] = struct{}{}
			for _, r := range n.AllowedRoles {
				if _, ok := domain.ParseRole(string(r)); !ok {
					return fmt.Errorf("%w: node %q: unknown role %q", domain.ErrInvalidNavigation, n.Key, r)
				}
			}
			if err := walk(n.Children, n.Key); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(tree, "")
}
