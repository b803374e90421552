package zarr

import (
	"encoding/json"
	"fmt"
)

// ArrayMetadata is the parsed, validated contents of an array's
// zarr.json document (§6).
type ArrayMetadata struct {
	Shape              []int
	DataType           DataType
	ChunkGrid          *RegularChunkGrid
	ChunkKeyEncoding   ChunkKeyEncoding
	FillValueRaw       json.RawMessage
	FillValue          any
	Codecs             *CodecChain
	CodecSpecs         []CodecSpec
	Attributes         map[string]any
	DimensionNames     []*string
	StorageTransformers []json.RawMessage
	Extensions         map[string]any
}

type rawArrayMetadata struct {
	ZarrFormat int    `json:"zarr_format"`
	NodeType   string `json:"node_type"`
	Shape      []int  `json:"shape"`
	DataType   string `json:"data_type"`
	ChunkGrid  struct {
		Name          string `json:"name"`
		Configuration struct {
			ChunkShape []int `json:"chunk_shape"`
		} `json:"configuration"`
	} `json:"chunk_grid"`
	ChunkKeyEncoding struct {
		Name          string `json:"name"`
		Configuration struct {
			Separator string `json:"separator"`
		} `json:"configuration"`
	} `json:"chunk_key_encoding"`
	FillValue           json.RawMessage   `json:"fill_value"`
	Codecs              []CodecSpec       `json:"codecs"`
	Attributes          map[string]any    `json:"attributes"`
	DimensionNames      []*string         `json:"dimension_names,omitempty"`
	StorageTransformers []json.RawMessage `json:"storage_transformers,omitempty"`
	Extensions          map[string]any    `json:"extensions,omitempty"`
}

// ParseArrayMetadata validates and decodes a <array>/zarr.json document.
func ParseArrayMetadata(data []byte) (*ArrayMetadata, error) {
	var raw rawArrayMetadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, newErr(KindInvalidMetadata, "parse_array_metadata", "", err)
	}
	if raw.ZarrFormat != 3 {
		return nil, newErr(KindInvalidMetadata, "parse_array_metadata", "", fmt.Errorf("unsupported zarr_format %d", raw.ZarrFormat))
	}
	if raw.NodeType != "array" {
		return nil, newErr(KindInvalidMetadata, "parse_array_metadata", "", fmt.Errorf("node_type %q is not \"array\"", raw.NodeType))
	}
	ndim := len(raw.Shape)

	dt, err := LookupDataType(raw.DataType)
	if err != nil {
		return nil, err
	}

	if raw.ChunkGrid.Name != "regular" {
		return nil, newErr(KindInvalidMetadata, "parse_array_metadata", "", fmt.Errorf("unsupported chunk_grid %q", raw.ChunkGrid.Name))
	}
	if len(raw.ChunkGrid.Configuration.ChunkShape) != ndim {
		return nil, newErr(KindDimensionMismatch, "parse_array_metadata", "", fmt.Errorf("chunk_shape ndim %d != shape ndim %d", len(raw.ChunkGrid.Configuration.ChunkShape), ndim))
	}
	grid, err := NewRegularChunkGrid(raw.ChunkGrid.Configuration.ChunkShape)
	if err != nil {
		return nil, err
	}

	cke := raw.ChunkKeyEncoding.Name
	if cke == "" {
		cke = "default"
	}
	encoding, err := NewChunkKeyEncoding(cke, raw.ChunkKeyEncoding.Configuration.Separator)
	if err != nil {
		return nil, err
	}

	var fillValue any
	if len(raw.FillValue) > 0 {
		fillValue, err = ParseFillValue(raw.FillValue, dt)
		if err != nil {
			return nil, err
		}
	} else {
		fillValue = dt.ZeroValue()
	}

	chain, err := BuildCodecChain(raw.Codecs, dt, ndim)
	if err != nil {
		return nil, err
	}

	if raw.DimensionNames != nil && len(raw.DimensionNames) != ndim {
		return nil, newErr(KindDimensionMismatch, "parse_array_metadata", "", fmt.Errorf("dimension_names length %d != shape ndim %d", len(raw.DimensionNames), ndim))
	}

	// must_understand extensions are treated leniently: unrecognized
	// keys are preserved verbatim (so a deserialize-then-serialize round
	// trip doesn't drop them) but never required to be understood.

	return &ArrayMetadata{
		Shape:               raw.Shape,
		DataType:            dt,
		ChunkGrid:           grid,
		ChunkKeyEncoding:     encoding,
		FillValueRaw:        raw.FillValue,
		FillValue:           fillValue,
		Codecs:              chain,
		CodecSpecs:          raw.Codecs,
		Attributes:          raw.Attributes,
		DimensionNames:      raw.DimensionNames,
		StorageTransformers: raw.StorageTransformers,
		Extensions:          raw.Extensions,
	}, nil
}

// MarshalJSON serializes m back to the zarr.json array document shape.
func (m *ArrayMetadata) MarshalJSON() ([]byte, error) {
	out := rawArrayMetadata{
		ZarrFormat: 3,
		NodeType:   "array",
		Shape:      m.Shape,
		DataType:   m.DataType.Name,
	}
	out.ChunkGrid.Name = "regular"
	out.ChunkGrid.Configuration.ChunkShape = m.ChunkGrid.ChunkShape
	if m.ChunkKeyEncoding.V2 {
		out.ChunkKeyEncoding.Name = "v2"
	} else {
		out.ChunkKeyEncoding.Name = "default"
	}
	out.ChunkKeyEncoding.Configuration.Separator = string(m.ChunkKeyEncoding.Separator)
	if len(m.FillValueRaw) > 0 {
		out.FillValue = m.FillValueRaw
	} else {
		fv, err := json.Marshal(m.FillValue)
		if err != nil {
			return nil, newErr(KindInvalidMetadata, "marshal_array_metadata", "", err)
		}
		out.FillValue = fv
	}
	out.Codecs = m.CodecSpecs
	out.Attributes = m.Attributes
	out.DimensionNames = m.DimensionNames
	out.StorageTransformers = m.StorageTransformers
	if out.StorageTransformers == nil {
		out.StorageTransformers = []json.RawMessage{}
	}
	out.Extensions = m.Extensions
	return json.Marshal(out)
}

// GroupMetadata is the parsed contents of a group's zarr.json.
type GroupMetadata struct {
	Attributes map[string]any
}

type rawGroupMetadata struct {
	ZarrFormat int            `json:"zarr_format"`
	NodeType   string         `json:"node_type"`
	Attributes map[string]any `json:"attributes"`
}

func ParseGroupMetadata(data []byte) (*GroupMetadata, error) {
	var raw rawGroupMetadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, newErr(KindInvalidMetadata, "parse_group_metadata", "", err)
	}
	if raw.ZarrFormat != 3 {
		return nil, newErr(KindInvalidMetadata, "parse_group_metadata", "", fmt.Errorf("unsupported zarr_format %d", raw.ZarrFormat))
	}
	if raw.NodeType != "group" {
		return nil, newErr(KindInvalidMetadata, "parse_group_metadata", "", fmt.Errorf("node_type %q is not \"group\"", raw.NodeType))
	}
	return &GroupMetadata{Attributes: raw.Attributes}, nil
}

func (m *GroupMetadata) MarshalJSON() ([]byte, error) {
	raw := rawGroupMetadata{ZarrFormat: 3, NodeType: "group", Attributes: m.Attributes}
	return json.Marshal(raw)
}
