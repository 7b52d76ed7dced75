package engine

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

var (
	// ErrTooManyRedirects is returned when a redirect chain exceeds the configured max hops.
	ErrTooManyRedirects = errors.New("redirect loop detected")

	// ErrCrossProtocolRedirect is returned when a redirect leaves HTTP/HTTPS.
	ErrCrossProtocolRedirect = errors.New("cross-protocol redirect not supported")
)

func isHTTPScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}

// RedirectPolicy returns a CheckRedirect function. With maxRedirects <= 0
// redirects are not followed and the 3xx response itself is delivered.
// Otherwise it enforces the hop limit, rejects cross-protocol redirects and
// strips non-standard headers (including Cookie) on cross-origin hops.
func RedirectPolicy(maxRedirects int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if maxRedirects <= 0 {
			return http.ErrUseLastResponse
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: exceeded %d hops (last URL: %s)",
				ErrTooManyRedirects, maxRedirects, via[len(via)-1].URL.String())
		}
		if len(via) > 0 {
			prev := via[len(via)-1]
			if isHTTPScheme(prev.URL.Scheme) && !isHTTPScheme(req.URL.Scheme) {
				return fmt.Errorf("%w: %s -> %s",
					ErrCrossProtocolRedirect, prev.URL.Scheme, req.URL.Scheme)
			}
			if isCrossOrigin(prev.URL, req.URL) {
				stripUnsafeHeaders(req)
			}
		}
		return nil
	}
}

func isCrossOrigin(a, b *url.URL) bool {
	return a.Host != b.Host
}

// safeHeaders survive cross-origin redirects.
var safeHeaders = map[string]bool{
	"User-Agent":      true,
	"Accept":          true,
	"Accept-Language": true,
	"Accept-Encoding": true,
}

func stripUnsafeHeaders(req *http.Request) {
	for key := range req.Header {
		if !safeHeaders[http.CanonicalHeaderKey(key)] {
			req.Header.Del(key)
		}
	}
}
