// Package cache memoizes the result of argument-independent functions on disk.
//
// A [Memo] stores its value as JSON next to an expiry timestamp:
//
//	{"expire": 1718000000.5, "content": <value>}
//
// While the timestamp lies in the future the file is returned as is;
// afterwards, or when the file is missing, empty or unreadable, the wrapped
// function runs again and its result replaces the file. Failed calls are
// never written. There is one writer per file.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicutil/internal/shared"
	"github.com/spf13/afero"
)

// Ext is the extension of every cache file.
const Ext = ".cache"

// DefaultExpire is how long a value stays fresh when [Options.Expire] is zero.
const DefaultExpire = 24 * time.Hour

// Dir returns the default cache directory: musicutil under the user cache
// directory, or ./.cache when that cannot be determined.
func Dir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		return ".cache"
	}
	return filepath.Join(base, "musicutil")
}

// DefaultPath returns <dir>/<name>.cache, using [Dir] when dir is empty.
func DefaultPath(dir, name string) string {
	if dir == "" {
		dir = Dir()
	}
	return filepath.Join(dir, name+Ext)
}

// Options configures a [Memo]. Zero values fall back to defaults.
type Options struct {
	Dir    string
	Path   string
	Expire time.Duration
	Fs     afero.Fs
	Now    func() time.Time
	Logger *log.Logger
}

// Entry is the on-disk form of a cached value.
type Entry[T any] struct {
	Expire  float64 `json:"expire"`
	Content T       `json:"content"`
}

// ExpiresAt converts the stored timestamp to a [time.Time].
func (e Entry[T]) ExpiresAt() time.Time {
	return unixFloat(e.Expire)
}

// Memo wraps fn so its result is read from a file until it expires.
type Memo[T any] struct {
	name   string
	path   string
	expire time.Duration
	fs     afero.Fs
	now    func() time.Time
	logger *log.Logger
	fn     func(context.Context) (T, error)
	mu     sync.Mutex
}

// Constant memoizes fn under name. Arguments fn closes over are ignored by
// the cache: every call returns the same stored value while it is fresh.
func Constant[T any](name string, fn func(context.Context) (T, error), opts Options) *Memo[T] {
	m := &Memo[T]{
		name:   name,
		path:   opts.Path,
		expire: opts.Expire,
		fs:     opts.Fs,
		now:    opts.Now,
		logger: opts.Logger,
		fn:     fn,
	}

	if m.path == "" {
		m.path = DefaultPath(opts.Dir, name)
	}
	if m.expire <= 0 {
		m.expire = DefaultExpire
	}
	if m.fs == nil {
		m.fs = afero.NewOsFs()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = shared.NewLogger(nil)
		m.logger.SetLevel(log.WarnLevel)
	}
	return m
}

// Path returns the file backing m.
func (m *Memo[T]) Path() string { return m.path }

// Get returns the cached value, calling the wrapped function on a miss.
func (m *Memo[T]) Get(ctx context.Context) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ensureFile(m.fs, m.path); err != nil {
		var zero T
		return zero, err
	}

	entry, err := Read[T](m.fs, m.path)
	switch {
	case err == nil && !IsExpired(entry.Expire, m.now()):
		m.logger.Debug("cache hit", "name", m.name, "expires", entry.ExpiresAt())
		return entry.Content, nil
	case err == nil:
		m.logger.Debug("cache expired", "name", m.name, "expired", entry.ExpiresAt())
	default:
		m.logger.Debug("cache miss", "name", m.name, "reason", err)
	}

	value, err := m.fn(ctx)
	if err != nil {
		return value, err
	}

	if err := Write(m.fs, m.path, value, m.now().Add(m.expire)); err != nil {
		m.logger.Warn("failed to write cache", "name", m.name, "error", err)
	}
	return value, nil
}

// Invalidate removes the backing file so the next [Memo.Get] calls through.
func (m *Memo[T]) Invalidate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fs.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

// IsExpired reports whether now is past the unix timestamp ts.
func IsExpired(ts float64, now time.Time) bool {
	return now.After(unixFloat(ts))
}

// ErrIncomplete is returned by [Read] when a file lacks "expire" or "content".
var ErrIncomplete = errors.New("cache entry is incomplete")

// Read decodes the entry stored at path.
func Read[T any](fsys afero.Fs, path string) (Entry[T], error) {
	var entry Entry[T]

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return entry, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return entry, fmt.Errorf("failed to decode cache file: %w", err)
	}

	expire, hasExpire := raw["expire"]
	content, hasContent := raw["content"]
	if !hasExpire || !hasContent {
		return entry, ErrIncomplete
	}

	if err := json.Unmarshal(expire, &entry.Expire); err != nil {
		return entry, fmt.Errorf("failed to decode expiry: %w", err)
	}
	if err := json.Unmarshal(content, &entry.Content); err != nil {
		return entry, fmt.Errorf("failed to decode content: %w", err)
	}
	return entry, nil
}

// Write stores value at path with the given expiry, creating parent directories.
func Write[T any](fsys afero.Fs, path string, value T, expire time.Time) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	entry := Entry[T]{Expire: float64(expire.UnixNano()) / float64(time.Second), Content: value}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	return afero.WriteFile(fsys, path, data, 0o644)
}

// Info describes a cache file on disk.
type Info struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	Expires time.Time `json:"expires,omitzero"`
	Expired bool      `json:"expired"`
	Valid   bool      `json:"valid"`
}

// List describes every cache file in dir, sorted by name.
func List(fsys afero.Fs, dir string, now time.Time) ([]Info, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var infos []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		info := Info{Name: strings.TrimSuffix(e.Name(), Ext), Path: path, Size: e.Size()}
		if entry, err := Read[json.RawMessage](fsys, path); err == nil {
			info.Valid = true
			info.Expires = entry.ExpiresAt()
			info.Expired = IsExpired(entry.Expire, now)
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Clear removes every cache file in dir and returns how many were deleted.
func Clear(fsys afero.Fs, dir string) (int, error) {
	infos, err := List(fsys, dir, time.Now())
	if err != nil {
		return 0, err
	}

	for i, info := range infos {
		if err := fsys.Remove(info.Path); err != nil {
			return i, fmt.Errorf("failed to remove %s: %w", info.Path, err)
		}
	}
	return len(infos), nil
}

func ensureFile(fsys afero.Fs, path string) error {
	if _, err := fsys.Stat(path); err == nil {
		return nil
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	f, err := fsys.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	return f.Close()
}

func unixFloat(ts float64) time.Time {
	sec := int64(ts)
	return time.Unix(sec, int64((ts-float64(sec))*float64(time.Second)))
}
