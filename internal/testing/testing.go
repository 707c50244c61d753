// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/spotish/internal/models"
)

// Catalog returns a small track catalog used across tests.
func Catalog() []models.Track {
	return []models.Track{
		{ID: 1, Title: "Moonlight Sonata", Duration: 360, PreviewURL: "https://cdn.example.com/1.mp3",
			Artist: models.Artist{ID: 1, Name: "Beethoven"}, Album: models.Album{ID: 1, Title: "Piano Sonatas"}},
		{ID: 2, Title: "Blue Moon", Duration: 172, PreviewURL: "https://cdn.example.com/2.mp3",
			Artist: models.Artist{ID: 2, Name: "Billie Holiday"}, Album: models.Album{ID: 2, Title: "Lady Day"}},
		{ID: 3, Title: "Clair de Lune", Duration: 300, PreviewURL: "https://cdn.example.com/3.mp3",
			Artist: models.Artist{ID: 3, Name: "Debussy"}, Album: models.Album{ID: 3, Title: "Suite bergamasque"}},
		{ID: 4, Title: "So What", Duration: 545, PreviewURL: "https://cdn.example.com/4.mp3",
			Artist: models.Artist{ID: 4, Name: "Miles Davis"}, Album: models.Album{ID: 4, Title: "Kind of Blue"}},
		{ID: 5, Title: "Walking on the Moon", Duration: 302, PreviewURL: "https://cdn.example.com/5.mp3",
			Artist: models.Artist{ID: 5, Name: "The Police"}, Album: models.Album{ID: 5, Title: "Reggatta de Blanc"}},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
