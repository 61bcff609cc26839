package fetch

import (
	"net"
	"net/http"
	"time"
)

// NewClient returns a client suited to long transfers: the timeout bounds
// dialing, the TLS handshake and waiting for response headers, but not the
// body read, so a slow multi-chunk download is never killed mid-stream by a
// whole-request deadline.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: timeout,
			}).DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
		},
	}
}
