package zarr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Group binds a group node's metadata and store into child
// creation/navigation, attribute mutation, and subtree erase (§4.K).
type Group struct {
	key    NodeKey
	store  Store
	meta   *GroupMetadata
	logger *slog.Logger
}

// OpenGroup reads and parses key's zarr.json as a group document.
func OpenGroup(ctx context.Context, store Store, key NodeKey, logger *slog.Logger) (*Group, error) {
	logger = orDiscardLogger(logger)
	r, err := store.Get(ctx, key.MetadataKey())
	if err != nil {
		return nil, errOp("open_group", key.MetadataKey(), err)
	}
	if r == nil {
		return nil, newErr(KindNotFound, "open_group", key.MetadataKey(), fmt.Errorf("no group metadata at %s", key.MetadataKey()))
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errOp("open_group", key.MetadataKey(), err)
	}
	meta, err := ParseGroupMetadata(data)
	if err != nil {
		return nil, err
	}
	return &Group{key: key, store: store, meta: meta, logger: logger}, nil
}

// CreateGroup writes a group's metadata document at key, erasing any
// pre-existing prefix first.
func CreateGroup(ctx context.Context, store Store, key NodeKey, attrs map[string]any, logger *slog.Logger) (*Group, error) {
	logger = orDiscardLogger(logger)
	if err := store.ErasePrefix(ctx, key.StorePrefix()); err != nil {
		return nil, errOp("create_group", key.StorePrefix(), err)
	}
	meta := &GroupMetadata{Attributes: attrs}
	data, err := meta.MarshalJSON()
	if err != nil {
		return nil, newErr(KindInvalidMetadata, "create_group", key.MetadataKey(), err)
	}
	if err := store.Set(ctx, key.MetadataKey(), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return nil, errOp("create_group", key.MetadataKey(), err)
	}
	logger.Info("created group", "key", key.String())
	return &Group{key: key, store: store, meta: meta, logger: logger}, nil
}

func (g *Group) Metadata() *GroupMetadata { return g.meta }
func (g *Group) Key() NodeKey             { return g.key }

// CreateChildGroup creates a new group nested under g.
func (g *Group) CreateChildGroup(ctx context.Context, name string, attrs map[string]any) (*Group, error) {
	childKey, err := g.key.Child(name)
	if err != nil {
		return nil, err
	}
	return CreateGroup(ctx, g.store, childKey, attrs, g.logger)
}

// CreateChildArray creates a new array nested under g.
func (g *Group) CreateChildArray(ctx context.Context, name string, meta *ArrayMetadata) (*Array, error) {
	childKey, err := g.key.Child(name)
	if err != nil {
		return nil, err
	}
	return CreateArray(ctx, g.store, childKey, meta, g.logger)
}

// GetGroup opens the child group name under g.
func (g *Group) GetGroup(ctx context.Context, name string) (*Group, error) {
	childKey, err := g.key.Child(name)
	if err != nil {
		return nil, err
	}
	return OpenGroup(ctx, g.store, childKey, g.logger)
}

// GetArray opens the child array name under g.
func (g *Group) GetArray(ctx context.Context, name string) (*Array, error) {
	childKey, err := g.key.Child(name)
	if err != nil {
		return nil, err
	}
	return OpenArray(ctx, g.store, childKey, g.logger)
}

// SetAttributes rewrites g's zarr.json with new attributes.
func (g *Group) SetAttributes(ctx context.Context, attrs map[string]any) error {
	g.meta.Attributes = attrs
	data, err := g.meta.MarshalJSON()
	if err != nil {
		return newErr(KindInvalidMetadata, "set_attributes", g.key.MetadataKey(), err)
	}
	if err := g.store.Set(ctx, g.key.MetadataKey(), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return errOp("set_attributes", g.key.MetadataKey(), err)
	}
	return nil
}

// EraseChild removes the entire subtree rooted at name, whether it is
// a group or an array.
func (g *Group) EraseChild(ctx context.Context, name string) error {
	childKey, err := g.key.Child(name)
	if err != nil {
		return err
	}
	if err := g.store.Erase(ctx, childKey.MetadataKey()); err != nil {
		return errOp("erase_child", childKey.MetadataKey(), err)
	}
	if err := g.store.ErasePrefix(ctx, childKey.StorePrefix()); err != nil {
		return errOp("erase_child", childKey.StorePrefix(), err)
	}
	return nil
}
