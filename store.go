package zarr

import (
	"context"
	"io"
)

// ByteRange selects a portion of a stored value for a ranged read.
// Length < 0 means "to the end of the value". A Suffix range is
// expressed with Offset < 0, meaning "the last -Offset bytes".
type ByteRange struct {
	Offset int64
	Length int64
}

// ToEnd builds a ByteRange starting at offset running to the end of
// the value.
func ToEnd(offset int64) ByteRange { return ByteRange{Offset: offset, Length: -1} }

// Suffix builds a ByteRange selecting the last n bytes of the value.
func Suffix(n int64) ByteRange { return ByteRange{Offset: -n, Length: -1} }

// Reader is the handle returned for a stored value. Callers must Close
// it; for file-backed stores this releases the read lock.
type Reader = io.ReadCloser

// PartialGet is one element of a batched ranged-read request.
type PartialGet struct {
	Key   string
	Range ByteRange
}

// Readable is the minimal surface every store backing a node must
// support. Get resolves a missing key to (nil, nil), and
// GetPartialValues to a nil Reader in that key's slots, never an error
// — absence is not a store failure.
type Readable interface {
	Get(ctx context.Context, key string) (Reader, error)
	GetPartialValues(ctx context.Context, gets []PartialGet) ([]Reader, error)
	HasKey(ctx context.Context, key string) (bool, error)
}

// Listable enumerates store contents. Implementations may derive any
// one of these methods from another; override for efficiency when the
// backing transport supports it natively.
type Listable interface {
	List(ctx context.Context) ([]string, error)
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
	// ListDir returns, for everything directly under prefix: keys with
	// no further '/' after the prefix, and the distinct "directory"
	// prefixes (each ending in '/') that do have further path segments.
	ListDir(ctx context.Context, prefix string) (keys []string, dirs []string, err error)
}

// Writable is a Readable + Listable store that also supports mutation.
// Set truncates any existing value; the function passed to it receives
// the entire new value and must write it as one logical operation.
type Writable interface {
	Readable
	Listable
	Set(ctx context.Context, key string, write func(io.Writer) error) error
	Erase(ctx context.Context, key string) error
	ErasePrefix(ctx context.Context, prefix string) error
}

// Store is the full trait the array and group layers depend on.
type Store = Writable

// listPrefixFromList derives ListPrefix from a flat List, for stores
// whose backing transport has no native prefix filter.
func listPrefixFromList(ctx context.Context, l Listable, prefix string) ([]string, error) {
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range all {
		if hasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// listDirFromListPrefix derives ListDir from ListPrefix, splitting on
// the first '/' after the prefix.
func listDirFromListPrefix(ctx context.Context, l Listable, prefix string) ([]string, []string, error) {
	matches, err := l.ListPrefix(ctx, prefix)
	if err != nil {
		return nil, nil, err
	}
	seenDirs := map[string]bool{}
	var keys, dirs []string
	for _, k := range matches {
		rest := k[len(prefix):]
		if rest == "" {
			continue
		}
		if idx := indexByte(rest, '/'); idx >= 0 {
			dir := prefix + rest[:idx+1]
			if !seenDirs[dir] {
				seenDirs[dir] = true
				dirs = append(dirs, dir)
			}
		} else {
			keys = append(keys, k)
		}
	}
	return keys, dirs, nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
