package engine

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/net/proxy"
)

var (
	ErrInvalidProxyURL   = errors.New("invalid proxy URL")
	ErrUnsupportedScheme = errors.New("unsupported proxy scheme")
)

var supportedProxySchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"socks5": true,
}

// parseProxyURL validates a proxy URL of scheme http, https or socks5.
func parseProxyURL(proxyURL string) (*url.URL, error) {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, ErrInvalidProxyURL
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, ErrInvalidProxyURL
	}
	if !supportedProxySchemes[parsed.Scheme] {
		return nil, ErrUnsupportedScheme
	}
	return parsed, nil
}

// applyProxy routes t through proxyURL. socks5 proxies replace the dialer,
// http(s) proxies use the transport's Proxy hook.
func applyProxy(t *http.Transport, proxyURL string) error {
	parsed, err := parseProxyURL(proxyURL)
	if err != nil {
		return err
	}
	if parsed.Scheme != "socks5" {
		t.Proxy = http.ProxyURL(parsed)
		return nil
	}
	var auth *proxy.Auth
	if parsed.User != nil {
		pass, _ := parsed.User.Password()
		auth = &proxy.Auth{
			User:     parsed.User.Username(),
			Password: pass,
		}
	}
	dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
	if err != nil {
		return err
	}
	t.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		t.DialContext = cd.DialContext
	} else {
		t.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return nil
}
