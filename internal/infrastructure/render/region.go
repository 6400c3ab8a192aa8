package render

import (
	"bytes"
	"io"
	"sync"

	"github.com/felixgeelhaar/triage/pkg/domain/response"
)

// Region is an output area whose content is always replaced as a whole.
// It is safe for concurrent use.
type Region struct {
	mu          sync.RWMutex
	content     []byte
	version     uint64
	subscribers []func(version uint64)
}

func NewRegion() *Region {
	return &Region{}
}

// Replace renders resp with r and swaps the result in. On a render error the
// previous content is kept.
func (g *Region) Replace(r Renderer, resp response.Response) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, resp); err != nil {
		return err
	}
	g.mu.Lock()
	g.content = buf.Bytes()
	g.version++
	version := g.version
	subscribers := g.subscribers
	g.mu.Unlock()

	for _, fn := range subscribers {
		fn(version)
	}
	return nil
}

// Subscribe registers fn to be called with the new version after every
// successful Replace. fn runs on the replacing goroutine and must not block.
func (g *Region) Subscribe(fn func(version uint64)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subscribers = append(g.subscribers[:len(g.subscribers):len(g.subscribers)], fn)
}

// Content returns the current content.
func (g *Region) Content() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return string(g.content)
}

// Version increases by one on every successful Replace.
func (g *Region) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// Snapshot returns the content together with its version.
func (g *Region) Snapshot() (string, uint64) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return string(g.content), g.version
}

// WriteTo copies the current content to w.
func (g *Region) WriteTo(w io.Writer) (int64, error) {
	g.mu.RLock()
	data := g.content
	g.mu.RUnlock()
	n, err := w.Write(data)
	return int64(n), err
}
