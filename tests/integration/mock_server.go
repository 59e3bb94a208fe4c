package integration

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
)

// MockStorefrontServer serves listing images the way the storefront's
// static hosts do, with injectable failures for pipeline tests. Page
// HTML itself is played back through scripted browser sessions; this
// server only backs the HTTP side of the media pipeline.
type MockStorefrontServer struct {
	server       *httptest.Server
	requestCount int32

	mu             sync.RWMutex
	errorResponses map[string]int // path substring -> status code
	failuresLeft   map[string]int // path substring -> remaining failures
}

// NewMockStorefrontServer starts a server that answers /img/ requests
// with real image bytes. Paths ending in .png get PNG bytes, anything
// else gets JPEG, so normalization sees both shapes.
func NewMockStorefrontServer() *MockStorefrontServer {
	m := &MockStorefrontServer{
		errorResponses: make(map[string]int),
		failuresLeft:   make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/img/", m.handleImage)
	m.server = httptest.NewServer(mux)
	return m
}

// URL returns the server's base URL.
func (m *MockStorefrontServer) URL() string {
	return m.server.URL
}

// ImageURL builds a full URL for an image path on this server.
func (m *MockStorefrontServer) ImageURL(name string) string {
	return fmt.Sprintf("%s/img/%s", m.server.URL, name)
}

// RequestCount returns how many image requests the server has seen.
func (m *MockStorefrontServer) RequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// FailWith makes every request whose path contains pattern answer with
// the given status code.
func (m *MockStorefrontServer) FailWith(pattern string, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorResponses[pattern] = statusCode
}

// FailNTimes makes the first n requests whose path contains pattern
// answer 503, then recover.
func (m *MockStorefrontServer) FailNTimes(pattern string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failuresLeft[pattern] = n
}

// Close shuts the server down.
func (m *MockStorefrontServer) Close() {
	m.server.Close()
}

func (m *MockStorefrontServer) handleImage(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)

	m.mu.Lock()
	for pattern, left := range m.failuresLeft {
		if strings.Contains(r.URL.Path, pattern) && left > 0 {
			m.failuresLeft[pattern] = left - 1
			m.mu.Unlock()
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	for pattern, code := range m.errorResponses {
		if strings.Contains(r.URL.Path, pattern) {
			m.mu.Unlock()
			http.Error(w, http.StatusText(code), code)
			return
		}
	}
	m.mu.Unlock()

	if strings.HasSuffix(r.URL.Path, ".png") {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes())
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(jpegBytes())
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 255})
		}
	}
	return img
}

func jpegBytes() []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, testImage(), nil)
	return buf.Bytes()
}

func pngBytes() []byte {
	var buf bytes.Buffer
	png.Encode(&buf, testImage())
	return buf.Bytes()
}
