package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce"
)

// DisableEnv turns the file store into a permanent miss when set.
const DisableEnv = "ZEROBOUNCE_NO_CACHE"

type fileEntry struct {
	CachedAt time.Time       `json:"cached_at"`
	TTL      time.Duration   `json:"ttl"`
	Response json.RawMessage `json:"response"`
}

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	dir string
	now func() time.Time
}

var _ zerobounce.Cache = (*FileStore)(nil)

// NewFileStore creates a store rooted at dir (typically from DefaultDir).
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

// Dir returns the cache directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Get loads a cached response. Missing and expired entries are misses;
// unreadable or corrupt files are errors.
func (s *FileStore) Get(_ context.Context, key string) (*zerobounce.Response, bool, error) {
	if disabled() {
		return nil, false, nil
	}
	path := s.path(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var e fileEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrWrongShape, err)
	}
	if e.TTL > 0 && s.now().Sub(e.CachedAt) > e.TTL {
		_ = os.Remove(path)
		return nil, false, nil
	}
	resp, err := decode(e.Response)
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

// Set writes the response atomically (temp file then rename).
func (s *FileStore) Set(_ context.Context, key string, resp *zerobounce.Response, ttl time.Duration) (bool, error) {
	if disabled() {
		return false, nil
	}
	raw, err := encode(resp)
	if err != nil {
		return false, err
	}
	data, err := json.Marshal(fileEntry{CachedAt: s.now(), TTL: ttl, Response: raw})
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return false, err
	}

	// Each writer gets its own temp file; concurrent sets of one key race
	// only on the final rename.
	path := s.path(key)
	f, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return false, err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return false, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}
	return true, nil
}

// Clear removes one key.
func (s *FileStore) Clear(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, fileName(key))
}

// fileName is "<key>_<12 hex of sha1(key)>.json", with the readable part
// sanitized and shortened.
func fileName(key string) string {
	hash := sha1.Sum([]byte(key))
	suffix := hex.EncodeToString(hash[:6])
	return fmt.Sprintf("%s_%s.json", sanitizeKey(key), suffix)
}

// ClearAll removes every cache file from dir and returns how many were removed.
// Only files matching the cache filename scheme are touched.
func ClearAll(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !isCacheFilename(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// DefaultDir returns "$XDG_CACHE_HOME/zerobounce-cli" or the platform equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "zerobounce-cli"), nil
}

func disabled() bool {
	return os.Getenv(DisableEnv) != ""
}

const maxKeyLen = 48

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	key = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, key)
	if len(key) > maxKeyLen {
		key = key[:maxKeyLen]
	}
	return key
}

func isCacheFilename(name string) bool {
	if filepath.Ext(name) != ".json" {
		return false
	}
	base := strings.TrimSuffix(name, ".json")
	i := strings.LastIndexByte(base, '_')
	if i <= 0 {
		return false
	}
	suffix := base[i+1:]
	if len(suffix) != 12 {
		return false
	}
	_, err := hex.DecodeString(suffix)
	return err == nil
}
