// Package httpclient builds the outbound http.Client instances used by the
// archive transport, the credential probe, and the metadata generator.
package httpclient

import (
	"net/http"
	"time"
)

// New returns an http.Client configured for outbound requests.
//
// It respects HTTP(S)_PROXY/ALL_PROXY/NO_PROXY via the default transport
// proxy policy.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: Transport(),
	}
}

// Transport returns an http.Transport clone suitable for outbound calls.
func Transport() *http.Transport {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Transport{Proxy: http.ProxyFromEnvironment}
	}
	return base.Clone()
}
