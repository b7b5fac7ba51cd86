package mediafilter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractImageURLs_FiltersBySuffix(t *testing.T) {
	content := "check this out https://example.com/a.jpg and https://example.com/doc.pdf too"
	urls := extractImageURLs(content)
	assert.Equal(t, []string{"https://example.com/a.jpg"}, urls)
}

func TestExtractImageURLs_NoMatches(t *testing.T) {
	assert.Empty(t, extractImageURLs("no links here"))
}

func newProbeServer(t *testing.T, contentLength string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentLength != "" {
			w.Header().Set("Content-Length", contentLength)
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestShouldDrop_DropsWhenOverThreshold(t *testing.T) {
	srv := newProbeServer(t, strconv.Itoa(2_000_000))
	defer srv.Close()

	f := NewFilter(2*time.Second, 1_000_000)
	content := "image: " + srv.URL + "/big.png"
	assert.True(t, f.ShouldDrop(context.Background(), content))
}

func TestShouldDrop_AllowsWhenUnderThreshold(t *testing.T) {
	srv := newProbeServer(t, strconv.Itoa(500_000))
	defer srv.Close()

	f := NewFilter(2*time.Second, 1_000_000)
	content := "image: " + srv.URL + "/small.gif"
	assert.False(t, f.ShouldDrop(context.Background(), content))
}

func TestShouldDrop_MissingContentLengthTreatedAsZero(t *testing.T) {
	srv := newProbeServer(t, "")
	defer srv.Close()

	f := NewFilter(2*time.Second, 1_000_000)
	content := "image: " + srv.URL + "/unknown.jpg"
	assert.False(t, f.ShouldDrop(context.Background(), content))
}

func TestShouldDrop_ProbeFailureTreatedAsZero(t *testing.T) {
	f := NewFilter(100*time.Millisecond, 1_000_000)
	content := "image: http://127.0.0.1:1/unreachable.png"
	assert.False(t, f.ShouldDrop(context.Background(), content))
}

func TestShouldDrop_NoImagesNeverDrops(t *testing.T) {
	f := NewFilter(time.Second, 1)
	assert.False(t, f.ShouldDrop(context.Background(), "just text"))
}
