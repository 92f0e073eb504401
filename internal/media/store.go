package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store persists generated media onto the local filesystem and hands out
// the public URL each file is served under.
type Store struct {
	dir     string
	baseURL string
	now     func() time.Time
}

// NewStore initializes a Store rooted at dir. Files are addressed as
// baseURL + "/" + key.
func NewStore(dir, baseURL string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("media: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: ensure directory: %w", err)
	}
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Dir returns the configured root directory.
func (s *Store) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

// Save writes data under prefix with a fresh, date-partitioned name and
// returns its public URL.
func (s *Store) Save(ctx context.Context, prefix string, data []byte, contentType string) (string, error) {
	if s == nil {
		return "", errors.New("media: no store configured")
	}
	if len(data) == 0 {
		return "", errors.New("media: refusing to save empty payload")
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	now := s.now()
	key := path.Join(prefix, now.Format("2006"), now.Format("01"), id.String()+ExtensionFor(contentType))

	clean, err := s.write(ctx, key, data)
	if err != nil {
		return "", err
	}
	return s.URL(clean), nil
}

// URL returns the public URL for a stored key.
func (s *Store) URL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// KeyFor reverses URL: it reports the storage key when ref points into
// this store.
func (s *Store) KeyFor(ref string) (string, bool) {
	if s == nil || !strings.HasPrefix(ref, s.baseURL+"/") {
		return "", false
	}
	key, err := sanitizeKey(strings.TrimPrefix(ref, s.baseURL+"/"))
	if err != nil {
		return "", false
	}
	return key, true
}

// Read returns the bytes stored under key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(clean)))
	if err != nil {
		return nil, fmt.Errorf("media: read file: %w", err)
	}
	return data, nil
}

func (s *Store) write(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("media: ensure directory: %w", err)
	}

	// Write then rename so the static handler never serves a partial file.
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("media: write file: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("media: finalize file: %w", err)
	}
	return clean, nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("media: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("media: invalid key")
	}
	return cleaned, nil
}

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

// ExtensionFor maps a content type to a file extension, defaulting to
// ".bin" for anything unrecognized.
func ExtensionFor(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ext, ok := extensions[ct]; ok {
		return ext
	}
	return ".bin"
}

// ContentTypeForFormat maps an image output format name (png, jpeg, webp)
// to its content type.
func ContentTypeForFormat(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
