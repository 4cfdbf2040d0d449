//go:build js && wasm

package api

import (
	"net/http"
	"time"
)

// fetchCredentialsHeader is read by the wasm transport and passed to fetch as
// the credentials mode. It is not sent over the wire.
const fetchCredentialsHeader = "js.fetch:credentials"

// The browser owns cookies in wasm builds, so there is no jar.
func newHTTPClient(timeout time.Duration) (*http.Client, error) {
	return &http.Client{Timeout: timeout}, nil
}

func includeCredentials(req *http.Request) {
	req.Header.Set(fetchCredentialsHeader, "include")
}
