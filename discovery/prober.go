// Package discovery finds numbered image assets under a folder convention
// (imgs/<folder>/<index><ext>) by probing candidate paths one at a time.
// There is no listing API: an asset exists if it loads as an image.
package discovery

import (
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

// AssetRef is a resolved path or URL to a usable image.
type AssetRef string

// DefaultProbeTimeout bounds a single existence check.
const DefaultProbeTimeout = 5 * time.Second

// Prober checks whether a candidate asset exists. Implementations never
// fail: a missing, broken or timed-out candidate reports ok=false.
type Prober interface {
	Probe(ctx context.Context, path string) (AssetRef, bool)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, path string) (AssetRef, bool)

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, path string) (AssetRef, bool) {
	return f(ctx, path)
}

// decodable reports whether r starts with a registered image header.
func decodable(r io.Reader) bool {
	_, _, err := image.DecodeConfig(r)
	return err == nil
}

// HTTPProber probes assets served over HTTP. Paths are resolved against
// BaseURL and requested as-is, so repeat probes can hit caches.
type HTTPProber struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

// NewHTTPProber creates an HTTPProber with the default per-probe timeout.
func NewHTTPProber(baseURL string) *HTTPProber {
	return &HTTPProber{
		BaseURL: baseURL,
		Client:  &http.Client{},
		Timeout: DefaultProbeTimeout,
	}
}

func (p *HTTPProber) resolve(path string) (string, error) {
	if p.BaseURL == "" {
		return path, nil
	}
	base, err := url.Parse(strings.TrimRight(p.BaseURL, "/") + "/")
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// Probe fetches path and checks that the body decodes as an image header.
func (p *HTTPProber) Probe(ctx context.Context, path string) (AssetRef, bool) {
	target, err := p.resolve(path)
	if err != nil {
		return "", false
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", false
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false
	}
	if !decodable(resp.Body) {
		return "", false
	}
	return AssetRef(path), true
}

// FSProber probes assets inside a filesystem, usually the server's own
// asset directory. Prefix is stripped from probed paths before opening.
type FSProber struct {
	FS     fs.FS
	Prefix string
}

// Probe opens path inside the filesystem and checks its image header.
func (p *FSProber) Probe(ctx context.Context, path string) (AssetRef, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	name := strings.TrimPrefix(strings.TrimPrefix(path, p.Prefix), "/")
	if !fs.ValidPath(name) {
		return "", false
	}
	f, err := p.FS.Open(name)
	if err != nil {
		return "", false
	}
	defer f.Close()
	if info, err := f.Stat(); err != nil || info.IsDir() {
		return "", false
	}
	if !decodable(f) {
		return "", false
	}
	return AssetRef(path), true
}

// CountingProber wraps a Prober and reports every attempt to Observe.
type CountingProber struct {
	Prober  Prober
	Observe func(path string, ok bool)
}

// Probe forwards to the wrapped prober.
func (p *CountingProber) Probe(ctx context.Context, path string) (AssetRef, bool) {
	ref, ok := p.Prober.Probe(ctx, path)
	if p.Observe != nil {
		p.Observe(path, ok)
	}
	return ref, ok
}
