// Package mediafilter inspects a verified event's content for referenced
// image URLs and rejects events whose media exceeds a size threshold. Each
// candidate URL is probed in its own goroutine under a
// golang.org/x/sync/errgroup; the number of concurrent probes is not
// limited, and each probe is bounded by the filter's timeout.
package mediafilter

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plebos/nostr-relay-mux/internal/logging"
	"github.com/plebos/nostr-relay-mux/internal/metrics"
)

// imageURLPattern extracts candidate image URLs from event content. The
// regex is intentionally permissive (any non-whitespace run after the
// scheme); the stricter suffix check happens afterward.
var imageURLPattern = regexp.MustCompile(`https?://\S+`)

var imageSuffixes = []string{".jpg", ".png", ".gif"}

// Filter probes referenced media and decides whether an event should be
// dropped for exceeding MaxBytes in any single referenced image.
type Filter struct {
	Client  *http.Client
	Timeout time.Duration

	// MaxBytes is the threshold above which an event is dropped. An image
	// whose Content-Length is missing, or whose probe fails outright, is
	// treated as size zero and never causes a drop on its own.
	MaxBytes int64
}

// NewFilter constructs a Filter with the given probe timeout and size
// threshold, using a dedicated http.Client so probe timeouts never
// interfere with any other HTTP traffic in the process.
func NewFilter(timeout time.Duration, maxBytes int64) *Filter {
	return &Filter{
		Client:   &http.Client{Timeout: timeout},
		Timeout:  timeout,
		MaxBytes: maxBytes,
	}
}

// extractImageURLs returns every URL in content that looks like a reference
// to a jpg/png/gif image.
func extractImageURLs(content string) []string {
	candidates := imageURLPattern.FindAllString(content, -1)
	urls := make([]string, 0, len(candidates))
	for _, c := range candidates {
		for _, suffix := range imageSuffixes {
			if strings.HasSuffix(c, suffix) {
				urls = append(urls, c)
				break
			}
		}
	}
	return urls
}

// ShouldDrop reports whether content references at least one image whose
// probed Content-Length exceeds f.MaxBytes. Probe errors and a missing
// Content-Length both resolve to size zero and never trigger a drop by
// themselves.
func (f *Filter) ShouldDrop(ctx context.Context, content string) bool {
	urls := extractImageURLs(content)
	if len(urls) == 0 {
		return false
	}

	sizes := make([]int64, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			sizes[i] = f.probeSize(gctx, u)
			return nil
		})
	}
	// probeSize never returns an error, so Wait always returns nil; it is
	// called only to block until every probe has finished.
	_ = g.Wait()

	for _, sz := range sizes {
		if sz > f.MaxBytes {
			return true
		}
	}
	return false
}

// probeSize issues a HEAD request for url and returns its Content-Length,
// or zero if the header is absent or the probe fails for any reason.
func (f *Filter) probeSize(ctx context.Context, url string) int64 {
	reqCtx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, url, nil)
	if err != nil {
		metrics.RecordMediaProbeFailure()
		logging.Debug().Err(err).Str("url", url).Msg("failed to build media probe request")
		return 0
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		metrics.RecordMediaProbeFailure()
		logging.Debug().Err(err).Str("url", url).Msg("media probe failed")
		return 0
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.ContentLength <= 0 {
		return 0
	}
	return resp.ContentLength
}
