package expand

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"vprintf/internal/diag"
	"vprintf/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// Digest is a cache key.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// DiskCache хранит сгенерированные файлы по ключу Digest на диске.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached outcome of expanding one file without errors.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Output []byte
	Calls  int

	// Warnings are replayed on a hit; spans are file-relative offsets.
	Diags []CachedDiag
}

type CachedDiag struct {
	Severity uint8
	Code     uint16
	Start    uint32
	End      uint32
	Message  string
	Notes    []CachedNote
}

type CachedNote struct {
	Start uint32
	End   uint32
	Msg   string
}

// CacheDir returns dir when set, otherwise $XDG_CACHE_HOME/app or
// ~/.cache/app.
func CacheDir(app, dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// OpenDiskCache initializes a disk cache in dir (see CacheDir).
func OpenDiskCache(app, dir string) (*DiskCache, error) {
	dir, err := CacheDir(app, dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// CacheKey hashes everything the generated output depends on: the file
// content, its base name (it appears in the header) and the config
// fingerprint.
func CacheKey(content []byte, name, fingerprint string) Digest {
	h := sha256.New()
	var schema [2]byte
	binary.LittleEndian.PutUint16(schema[:], diskCacheSchemaVersion)
	h.Write(schema[:])
	for _, part := range [][]byte{content, []byte(name), []byte(fingerprint)} {
		var n [8]byte
		binary.LittleEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write(part)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := key.String()
	// подкаталог по первым двум символам, чтобы не раздувать один каталог
	return filepath.Join(c.dir, "gen", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	payload.Schema = diskCacheSchemaVersion
	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, p)
}

// Get reads a payload. A payload written by another schema is a miss.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

func toCached(diags []*diag.Diagnostic) []CachedDiag {
	out := make([]CachedDiag, 0, len(diags))
	for _, d := range diags {
		cd := CachedDiag{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Start:    d.Primary.Start,
			End:      d.Primary.End,
			Message:  d.Message,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		out = append(out, cd)
	}
	return out
}

func fromCached(file source.FileID, cached []CachedDiag) []*diag.Diagnostic {
	out := make([]*diag.Diagnostic, 0, len(cached))
	for _, cd := range cached {
		d := diag.New(diag.Severity(cd.Severity), diag.Code(cd.Code),
			source.Span{File: file, Start: cd.Start, End: cd.End}, cd.Message)
		for _, n := range cd.Notes {
			d.WithNote(source.Span{File: file, Start: n.Start, End: n.End}, n.Msg)
		}
		out = append(out, d)
	}
	return out
}
