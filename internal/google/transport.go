package google

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds every sync request so a wedged network
// cannot hang a save forever.
const DefaultRequestTimeout = 30 * time.Second

// bearerTransport injects the manager's current access token into every
// outgoing request. Requests are cloned, never mutated in place.
type bearerTransport struct {
	manager *Manager
	base    http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.manager.GetValidAccessToken(req.Context(), false)
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(clone)
}

// NewHTTPClient returns an http.Client whose requests carry the manager's
// bearer token. The calendar and backup services are both built on it.
func NewHTTPClient(m *Manager) *http.Client {
	return &http.Client{
		Transport: &bearerTransport{
			manager: m,
			base:    http.DefaultTransport,
		},
		Timeout: DefaultRequestTimeout,
	}
}
