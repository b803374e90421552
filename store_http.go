package zarr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

// HTTPStoreConfig configures a HTTPStore, following the chunk-manager
// reference's Config shape.
type HTTPStoreConfig struct {
	// BaseURL is the store root (no trailing slash required); one path
	// segment per store key is appended to it.
	BaseURL string

	// Client issues the requests. Defaults to http.DefaultClient.
	Client *http.Client

	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// HTTPStore is a read-only store backed by GET requests against a base
// URL, one path segment per store key. It implements Readable only, not
// the full Store. It coalesces multiple GetPartialValues ranges against
// the same key into a single "Range: bytes=a-b,c-d" request and, when
// the server answers with a multipart/byteranges 206, splits the
// response body on the declared boundary and strips each part's
// headers. A 200 response (the server ignored the Range header) is
// sliced out of the full body locally instead of re-requested.
type HTTPStore struct {
	base   string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPStore builds an HTTPStore per cfg.
func NewHTTPStore(cfg HTTPStoreConfig) *HTTPStore {
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	return &HTTPStore{
		base:   strings.TrimSuffix(cfg.BaseURL, "/"),
		client: client,
		logger: logger.With("component", "zarr", "store", "http"),
	}
}

func (s *HTTPStore) url(key string) string {
	return s.base + "/" + key
}

func (s *HTTPStore) Get(ctx context.Context, key string) (Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(key), nil)
	if err != nil {
		return nil, newErr(KindStoreIO, "get", key, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errOp("get", key, err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, nil
	default:
		resp.Body.Close()
		return nil, newErr(KindStoreIO, "get", key, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}

func (s *HTTPStore) HasKey(ctx context.Context, key string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url(key), nil)
	if err != nil {
		return false, newErr(KindStoreIO, "has_key", key, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, errOp("has_key", key, err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return resp.StatusCode == http.StatusOK, nil
}

// GetPartialValues groups gets by key and issues one coalesced Range
// request per key.
func (s *HTTPStore) GetPartialValues(ctx context.Context, gets []PartialGet) ([]Reader, error) {
	byKey := map[string][]int{}
	order := []string{}
	for i, g := range gets {
		if _, ok := byKey[g.Key]; !ok {
			order = append(order, g.Key)
		}
		byKey[g.Key] = append(byKey[g.Key], i)
	}

	out := make([]Reader, len(gets))
	for _, key := range order {
		idxs := byKey[key]
		ranges := make([]ByteRange, len(idxs))
		for j, idx := range idxs {
			ranges[j] = gets[idx].Range
		}
		readers, err := s.getKeyRanges(ctx, key, ranges)
		if err != nil {
			return nil, err
		}
		for j, idx := range idxs {
			out[idx] = readers[j]
		}
	}
	return out, nil
}

func (s *HTTPStore) getKeyRanges(ctx context.Context, key string, ranges []ByteRange) ([]Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(key), nil)
	if err != nil {
		return nil, newErr(KindStoreIO, "get_partial_values", key, err)
	}
	req.Header.Set("Range", "bytes="+rangeHeaderValue(ranges))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errOp("get_partial_values", key, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return make([]Reader, len(ranges)), nil
	case http.StatusPartialContent:
		ct := resp.Header.Get("Content-Type")
		if mediaType, params, err := mime.ParseMediaType(ct); err == nil && strings.HasPrefix(mediaType, "multipart/") {
			return s.splitMultipart(resp.Body, params["boundary"], len(ranges))
		}
		// Single range, single part: server answered exactly one range.
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errOp("get_partial_values", key, err)
		}
		out := make([]Reader, len(ranges))
		out[0] = io.NopCloser(bytes.NewReader(body))
		for i := 1; i < len(ranges); i++ {
			out[i] = io.NopCloser(bytes.NewReader(nil))
		}
		return out, nil
	case http.StatusOK:
		// Server ignored Range: slice the full body locally.
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errOp("get_partial_values", key, err)
		}
		out := make([]Reader, len(ranges))
		for i, r := range ranges {
			out[i] = io.NopCloser(bytes.NewReader(sliceRange(body, r)))
		}
		return out, nil
	default:
		return nil, newErr(KindStoreIO, "get_partial_values", key, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}

func (s *HTTPStore) splitMultipart(body io.Reader, boundary string, want int) ([]Reader, error) {
	mr := multipart.NewReader(body, boundary)
	var out []Reader
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, newErr(KindStoreIO, "get_partial_values", "", err)
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, newErr(KindStoreIO, "get_partial_values", "", err)
		}
		out = append(out, io.NopCloser(bytes.NewReader(data)))
	}
	for len(out) < want {
		out = append(out, io.NopCloser(bytes.NewReader(nil)))
	}
	return out, nil
}

func rangeHeaderValue(ranges []ByteRange) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		switch {
		case r.Offset < 0:
			parts[i] = "-" + strconv.FormatInt(-r.Offset, 10)
		case r.Length < 0:
			parts[i] = strconv.FormatInt(r.Offset, 10) + "-"
		default:
			parts[i] = strconv.FormatInt(r.Offset, 10) + "-" + strconv.FormatInt(r.Offset+r.Length-1, 10)
		}
	}
	return strings.Join(parts, ",")
}

func sliceRange(body []byte, r ByteRange) []byte {
	n := int64(len(body))
	offset, length := r.Offset, r.Length
	if offset < 0 {
		offset = n + offset
		if offset < 0 {
			offset = 0
		}
		length = -1
	}
	if offset > n {
		offset = n
	}
	end := n
	if length >= 0 && offset+length < n {
		end = offset + length
	}
	return body[offset:end]
}

