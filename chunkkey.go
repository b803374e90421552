package zarr

import (
	"fmt"
	"strconv"
	"strings"
)

// ChunkKeyEncoding names a chunk-key layout, selected from an array's
// zarr.json "chunk_key_encoding". Both variants take an optional
// separator, restricted to "/" or ".".
type ChunkKeyEncoding struct {
	V2        bool
	Separator byte
}

func NewChunkKeyEncoding(name, separator string) (ChunkKeyEncoding, error) {
	if separator == "" {
		separator = "/"
	}
	if separator != "/" && separator != "." {
		return ChunkKeyEncoding{}, newErr(KindInvalidMetadata, "new_chunk_key_encoding", "", fmt.Errorf("chunk_key_encoding separator %q must be / or .", separator))
	}
	switch name {
	case "default":
		return ChunkKeyEncoding{V2: false, Separator: separator[0]}, nil
	case "v2":
		return ChunkKeyEncoding{V2: true, Separator: separator[0]}, nil
	}
	return ChunkKeyEncoding{}, newErr(KindInvalidMetadata, "new_chunk_key_encoding", "", fmt.Errorf("unrecognized chunk_key_encoding %q", name))
}

// Components returns the key's path components (before joining onto
// the array's node key) for a chunk index coord.
func (e ChunkKeyEncoding) Components(coord []int) []string {
	if e.Separator == '/' {
		parts := make([]string, 0, len(coord)+1)
		if !e.V2 {
			parts = append(parts, "c")
		}
		if e.V2 && len(coord) == 0 {
			return []string{"0"}
		}
		for _, c := range coord {
			parts = append(parts, strconv.Itoa(c))
		}
		return parts
	}

	// "." separator: a single dotted component.
	var sb strings.Builder
	if e.V2 && len(coord) == 0 {
		sb.WriteString("0")
	} else {
		if !e.V2 {
			sb.WriteString("c")
		}
		for i, c := range coord {
			if !e.V2 || i > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(strconv.Itoa(c))
		}
	}
	return []string{sb.String()}
}

// Key joins an array's node key with the encoded chunk-key components.
func (e ChunkKeyEncoding) Key(arrayKey NodeKey, coord []int) string {
	comps := e.Components(coord)
	prefix := arrayKey.String()
	if prefix == "" {
		return strings.Join(comps, "/")
	}
	return prefix + "/" + strings.Join(comps, "/")
}
