package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"
)

// maxFetchBytes bounds reference downloads so a hostile URL cannot
// exhaust memory.
const maxFetchBytes = 50 << 20

// Asset is a fetched reference image.
type Asset struct {
	Name        string
	ContentType string
	Data        []byte
}

// Fetcher loads reference images named by URL. URLs that point into the
// local Store are read from disk; everything else is downloaded.
type Fetcher struct {
	store *Store
	http  *http.Client
}

func NewFetcher(store *Store, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{store: store, http: &http.Client{Timeout: timeout}}
}

// Fetch returns the bytes behind ref.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (Asset, error) {
	if key, ok := f.store.KeyFor(ref); ok {
		data, err := f.store.Read(ctx, key)
		if err != nil {
			return Asset{}, err
		}
		return Asset{Name: path.Base(key), ContentType: http.DetectContentType(data), Data: data}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return Asset{}, fmt.Errorf("media: build request: %w", err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to fetch image %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Asset{}, fmt.Errorf("failed to fetch image %s: status %d", ref, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return Asset{}, fmt.Errorf("failed to read image %s: %w", ref, err)
	}
	if len(data) > maxFetchBytes {
		return Asset{}, errors.New("media: reference image exceeds size limit")
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		ct = http.DetectContentType(data)
	}
	name := path.Base(req.URL.Path)
	if name == "" || name == "/" || name == "." {
		name = "image" + ExtensionFor(ct)
	}
	return Asset{Name: name, ContentType: ct, Data: data}, nil
}

// FetchAll fetches every ref in order, failing on the first error.
func (f *Fetcher) FetchAll(ctx context.Context, refs []string) ([]Asset, error) {
	out := make([]Asset, 0, len(refs))
	for _, ref := range refs {
		a, err := f.Fetch(ctx, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
