package zarr

import (
	"fmt"
	"strings"
)

// NodeKey is an ordered sequence of validated name components
// identifying a node (group or array) in the hierarchy. The empty
// NodeKey denotes the root.
type NodeKey struct {
	names []string
}

// RootKey is the hierarchy root.
func RootKey() NodeKey { return NodeKey{} }

// ValidateName reports whether name is a legal NodeKey component: a
// non-empty string, not purely "." characters, containing no "/", and
// not beginning with "__".
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("node name must not be empty")
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("node name %q must not contain '/'", name)
	}
	if strings.HasPrefix(name, "__") {
		return fmt.Errorf("node name %q must not begin with '__'", name)
	}
	if strings.Trim(name, ".") == "" {
		return fmt.Errorf("node name %q must not be purely '.' characters", name)
	}
	return nil
}

// Child returns the NodeKey for name nested under k.
func (k NodeKey) Child(name string) (NodeKey, error) {
	if err := ValidateName(name); err != nil {
		return NodeKey{}, newErr(KindInvalidMetadata, "node_key_child", name, err)
	}
	names := make([]string, len(k.names)+1)
	copy(names, k.names)
	names[len(k.names)] = name
	return NodeKey{names: names}, nil
}

// Parent returns k's parent and true, or the zero value and false if k
// is the root.
func (k NodeKey) Parent() (NodeKey, bool) {
	if len(k.names) == 0 {
		return NodeKey{}, false
	}
	return NodeKey{names: k.names[:len(k.names)-1]}, true
}

// IsRoot reports whether k is the hierarchy root.
func (k NodeKey) IsRoot() bool { return len(k.names) == 0 }

// Names returns a copy of k's path components.
func (k NodeKey) Names() []string {
	out := make([]string, len(k.names))
	copy(out, k.names)
	return out
}

// String joins the path components with "/"; the root is "".
func (k NodeKey) String() string {
	return strings.Join(k.names, "/")
}

// StorePrefix is the store-key prefix every descendant of k (and k's
// own metadata) lives under.
func (k NodeKey) StorePrefix() string {
	s := k.String()
	if s == "" {
		return ""
	}
	return s + "/"
}

// MetadataKey is the store key of k's zarr.json document.
func (k NodeKey) MetadataKey() string {
	if k.IsRoot() {
		return "zarr.json"
	}
	return k.String() + "/zarr.json"
}
