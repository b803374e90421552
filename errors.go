package zarr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error by the class of failure described in the
// core's error handling design; a kind may be produced by several
// components, and nothing is retried internally.
type Kind int

const (
	// KindStoreIO means the underlying store failed; the store's own
	// error is wrapped and surfaced unchanged.
	KindStoreIO Kind = iota
	// KindNotFound means a group/array metadata key was absent on
	// open. Missing chunks are not an error and never produce this.
	KindNotFound
	// KindDimensionMismatch means a codec, chunk grid, region, or
	// coordinate dimensionality differs from the array's ndim.
	KindDimensionMismatch
	// KindOutOfBounds means a chunk index exceeds the chunk grid.
	KindOutOfBounds
	// KindInvalidMetadata means the JSON parsed but violated an
	// invariant (bad fill value, non-divisible shard inner shape). Unknown
	// extensions are tolerated and never produce this.
	KindInvalidMetadata
	// KindChecksumFailure means a CRC recorded in a shard index or a
	// crc32c BB codec trailer did not match the payload.
	KindChecksumFailure
	// KindDecodeFailure means a compression codec rejected its input,
	// or an endianness-requiring type had none configured.
	KindDecodeFailure
	// KindInvalidCodecChain means codec chain construction found a
	// duplicate AB codec or an ordering violation.
	KindInvalidCodecChain
	// KindLocked means a non-blocking flock conflicted with a lock held
	// by another process or reader.
	KindLocked
)

func (k Kind) String() string {
	switch k {
	case KindStoreIO:
		return "store_io"
	case KindNotFound:
		return "not_found"
	case KindDimensionMismatch:
		return "dimension_mismatch"
	case KindOutOfBounds:
		return "out_of_bounds"
	case KindInvalidMetadata:
		return "invalid_metadata"
	case KindChecksumFailure:
		return "checksum_failure"
	case KindDecodeFailure:
		return "decode_failure"
	case KindInvalidCodecChain:
		return "invalid_codec_chain"
	case KindLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Error is the error type every exported operation in this package
// returns. Callers that need to branch on the failure class should use
// errors.As to recover the Kind, or errors.Is against one of the
// sentinel kind values below.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "read_chunk", "write_region"
	Key  string // store key or node key involved, if any
	Err  error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("zarr: %s: %s", e.Op, e.Kind)
	if e.Key != "" {
		msg += fmt.Sprintf(" (key=%q)", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel for e's Kind, so that
// errors.Is(err, zarr.ErrNotFound) works without exposing Kind
// comparisons to callers that don't need the full Error struct.
func (e *Error) Is(target error) bool {
	sentinel, ok := target.(*kindSentinel)
	return ok && sentinel.kind == e.Kind
}

type kindSentinel struct{ kind Kind }

func (s *kindSentinel) Error() string { return "zarr: " + s.kind.String() }

// Sentinels usable with errors.Is against any *Error of the matching Kind.
var (
	ErrStoreIO            = &kindSentinel{KindStoreIO}
	ErrNotFound           = &kindSentinel{KindNotFound}
	ErrDimensionMismatch  = &kindSentinel{KindDimensionMismatch}
	ErrOutOfBounds        = &kindSentinel{KindOutOfBounds}
	ErrInvalidMetadata    = &kindSentinel{KindInvalidMetadata}
	ErrChecksumFailure    = &kindSentinel{KindChecksumFailure}
	ErrDecodeFailure      = &kindSentinel{KindDecodeFailure}
	ErrInvalidCodecChain  = &kindSentinel{KindInvalidCodecChain}
	ErrLocked             = &kindSentinel{KindLocked}
)

func newErr(kind Kind, op, key string, err error) *Error {
	return &Error{Kind: kind, Op: op, Key: key, Err: err}
}

// errOp wraps err (if non-nil) as a KindStoreIO Error, the policy used
// by every component that talks to a Store.
func errOp(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var zerr *Error
	if errors.As(err, &zerr) {
		return zerr
	}
	return newErr(KindStoreIO, op, key, err)
}
