package mcp

import "net/http"

// headerTransport adds static headers to every request sent to an HTTP MCP server.
type headerTransport struct {
	base   http.RoundTripper
	header http.Header
}

// withHeaders returns base unchanged when headers holds no usable entry.
func withHeaders(base http.RoundTripper, headers map[string]string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	header := make(http.Header, len(headers))
	for k, v := range headers {
		if k != "" {
			header.Set(k, v)
		}
	}
	if len(header) == 0 {
		return base
	}
	return &headerTransport{base: base, header: header}
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.header {
		req.Header[k] = v
	}
	return t.base.RoundTrip(req)
}
