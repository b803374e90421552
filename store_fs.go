package zarr

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
)

// FSStoreConfig configures a FSStore, following the chunk-manager
// reference's Config shape (dir, file mode, logger) rather than a long
// positional parameter list.
type FSStoreConfig struct {
	// Dir is the root directory of the store. Created if missing.
	Dir string

	// FileMode is the permission bits used for newly created chunk and
	// metadata files. Defaults to 0o644.
	FileMode os.FileMode

	// NonBlockingLocks makes flock calls fail immediately with
	// KindLocked instead of waiting when a conflicting lock is held.
	// Defaults to false (block until the lock is available).
	NonBlockingLocks bool

	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// FSStore is a Store backed directly by the local filesystem. Unlike
// BlobStore it applies the per-value flock discipline the spec
// requires: a shared lock is held for the lifetime of a reader, an
// exclusive lock while a value is written or erased. Locks are taken
// on the target file itself (not a separate directory lock file) and
// released when the returned Reader is closed.
type FSStore struct {
	root     string
	fileMode os.FileMode
	lockFlag int
	logger   *slog.Logger
}

// NewFSStore opens (creating if necessary) a filesystem-backed store
// per cfg.
func NewFSStore(cfg FSStoreConfig) (*FSStore, error) {
	abs, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, newErr(KindStoreIO, "new_fs_store", cfg.Dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, newErr(KindStoreIO, "new_fs_store", cfg.Dir, err)
	}
	fileMode := cfg.FileMode
	if fileMode == 0 {
		fileMode = 0o644
	}
	lockFlag := 0
	if cfg.NonBlockingLocks {
		lockFlag = syscall.LOCK_NB
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	return &FSStore{
		root:     abs,
		fileMode: fileMode,
		lockFlag: lockFlag,
		logger:   logger.With("component", "zarr", "store", "fs"),
	}, nil
}

// flock acquires how on fd, respecting the store's lock-wait
// configuration; a non-blocking conflict is reported as KindLocked.
func (s *FSStore) flock(fd int, op, key string, how int) error {
	if err := syscall.Flock(fd, how|s.lockFlag); err != nil {
		if s.lockFlag != 0 && err == syscall.EWOULDBLOCK {
			return newErr(KindLocked, op, key, err)
		}
		return errOp(op, key, err)
	}
	return nil
}

// path resolves key to an absolute filesystem path, rejecting any key
// that would escape the store's root.
func (s *FSStore) path(key string) (string, error) {
	clean := filepath.Clean(key)
	if filepath.IsAbs(key) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes store root", key)
	}
	full := filepath.Join(s.root, clean)
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes store root", key)
	}
	return full, nil
}

// lockedFile wraps an *os.File that holds a flock, releasing the lock
// on Close.
type lockedFile struct {
	f *os.File
	r io.Reader
}

func (l *lockedFile) Read(p []byte) (int, error) { return l.r.Read(p) }

func (l *lockedFile) Close() error {
	syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	return l.f.Close()
}

func (s *FSStore) Get(ctx context.Context, key string) (Reader, error) {
	full, err := s.path(key)
	if err != nil {
		return nil, newErr(KindStoreIO, "get", key, err)
	}
	f, err := os.Open(full)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errOp("get", key, err)
	}
	if err := s.flock(int(f.Fd()), "get", key, syscall.LOCK_SH); err != nil {
		f.Close()
		return nil, err
	}
	return &lockedFile{f: f, r: f}, nil
}

func (s *FSStore) GetPartialValues(ctx context.Context, gets []PartialGet) ([]Reader, error) {
	out := make([]Reader, len(gets))
	for i, g := range gets {
		r, err := s.getRange(g.Key, g.Range)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (s *FSStore) getRange(key string, rng ByteRange) (Reader, error) {
	full, err := s.path(key)
	if err != nil {
		return nil, newErr(KindStoreIO, "get_partial_values", key, err)
	}
	f, err := os.Open(full)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errOp("get_partial_values", key, err)
	}
	if err := s.flock(int(f.Fd()), "get_partial_values", key, syscall.LOCK_SH); err != nil {
		f.Close()
		return nil, err
	}
	offset, length := rng.Offset, rng.Length
	if offset < 0 {
		info, err := f.Stat()
		if err != nil {
			syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
			f.Close()
			return nil, errOp("get_partial_values", key, err)
		}
		offset = info.Size() + offset
		if offset < 0 {
			offset = 0
		}
		length = -1
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		return nil, errOp("get_partial_values", key, err)
	}
	var r io.Reader = f
	if length >= 0 {
		r = io.LimitReader(f, length)
	}
	return &lockedFile{f: f, r: r}, nil
}

func (s *FSStore) HasKey(ctx context.Context, key string) (bool, error) {
	full, err := s.path(key)
	if err != nil {
		return false, newErr(KindStoreIO, "has_key", key, err)
	}
	_, err = os.Stat(full)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errOp("has_key", key, err)
	}
	return true, nil
}

func (s *FSStore) List(ctx context.Context) ([]string, error) {
	return s.ListPrefix(ctx, "")
}

func (s *FSStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if hasPrefix(rel, prefix) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errOp("list_prefix", prefix, err)
	}
	sort.Strings(out)
	return out, nil
}

func (s *FSStore) ListDir(ctx context.Context, prefix string) ([]string, []string, error) {
	return listDirFromListPrefix(ctx, s, prefix)
}

func (s *FSStore) Set(ctx context.Context, key string, write func(io.Writer) error) error {
	full, err := s.path(key)
	if err != nil {
		return newErr(KindStoreIO, "set", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errOp("set", key, err)
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_RDWR, s.fileMode)
	if err != nil {
		return errOp("set", key, err)
	}
	defer f.Close()
	if err := s.flock(int(f.Fd()), "set", key, syscall.LOCK_EX); err != nil {
		return err
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	if err := f.Truncate(0); err != nil {
		return errOp("set", key, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return errOp("set", key, err)
	}
	if err := write(f); err != nil {
		return errOp("set", key, err)
	}
	return nil
}

func (s *FSStore) Erase(ctx context.Context, key string) error {
	full, err := s.path(key)
	if err != nil {
		return newErr(KindStoreIO, "erase", key, err)
	}
	f, err := os.OpenFile(full, os.O_RDWR, 0)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errOp("erase", key, err)
	}
	lockErr := s.flock(int(f.Fd()), "erase", key, syscall.LOCK_EX)
	f.Close()
	if lockErr != nil {
		return lockErr
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errOp("erase", key, err)
	}
	return nil
}

// ErasePrefix performs the depth-first traversal the spec requires:
// files first, then the now-empty directories that held them.
func (s *FSStore) ErasePrefix(ctx context.Context, prefix string) error {
	full, err := s.path(strings.TrimSuffix(prefix, "/"))
	if err != nil {
		return newErr(KindStoreIO, "erase_prefix", prefix, err)
	}
	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errOp("erase_prefix", prefix, err)
	}
	if !info.IsDir() {
		return s.Erase(ctx, prefix)
	}
	s.logger.Debug("erasing prefix", "prefix", prefix)
	return s.eraseDir(full)
}

func (s *FSStore) eraseDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errOp("erase_prefix", dir, err)
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if err := s.eraseDir(p); err != nil {
				return err
			}
			continue
		}
		if f, err := os.OpenFile(p, os.O_RDWR, 0); err == nil {
			syscall.Flock(int(f.Fd()), syscall.LOCK_EX)
			f.Close()
		}
		if err := os.Remove(p); err != nil {
			return errOp("erase_prefix", p, err)
		}
	}
	return os.Remove(dir)
}
