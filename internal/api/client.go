package api

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultAPILogPath is where wire-level request logging goes when enabled.
const DefaultAPILogPath = "api.log"

// NewHTTPClient builds the shared outbound HTTP client. When logRequests is
// set, the client's transport dumps every request and response to api.log.
// All catalog adapters and the persistence gateway should use one client so
// connection pooling and logging are shared.
func NewHTTPClient(timeout time.Duration, logRequests bool) *http.Client {
	client := &http.Client{Timeout: timeout}
	if logRequests {
		transport, err := NewLoggingTransport(nil, DefaultAPILogPath)
		if err != nil {
			log.WithError(err).Warn("API request logging disabled")
		} else {
			client.Transport = transport
		}
	}
	return client
}
