package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// scriptedAuthorizer returns canned results per prompt mode and records the
// modes it was asked for.
type scriptedAuthorizer struct {
	mu      sync.Mutex
	modes   []PromptMode
	silent  error
	consent error
	scope   string
	delay   time.Duration
	counter int
}

func (a *scriptedAuthorizer) RequestToken(ctx context.Context, mode PromptMode) (*oauth2.Token, error) {
	a.mu.Lock()
	a.modes = append(a.modes, mode)
	a.counter++
	n := a.counter
	a.mu.Unlock()

	if a.delay > 0 {
		time.Sleep(a.delay)
	}

	var err error
	switch mode {
	case PromptSilent:
		err = a.silent
	case PromptConsent:
		err = a.consent
	}
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{AccessToken: fmt.Sprintf("tok-%d", n)}
	if a.scope != "" {
		tok = tok.WithExtra(map[string]interface{}{"scope": a.scope})
	}
	return tok, nil
}

func (a *scriptedAuthorizer) requested() []PromptMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]PromptMode(nil), a.modes...)
}

func TestInitializeWithoutAuthorizer(t *testing.T) {
	m := NewManager(nil, nil)
	err := m.Initialize("client-id")
	assert.ErrorIs(t, err, ErrSDKUnavailable)
}

func TestInitializeIsIdempotent(t *testing.T) {
	m := NewManager(&scriptedAuthorizer{}, nil)
	require.NoError(t, m.Initialize("client-id"))
	require.NoError(t, m.Initialize("client-id"))
}

func TestAcquireCachesToken(t *testing.T) {
	auth := &scriptedAuthorizer{}
	m := NewManager(auth, nil)

	tok, err := m.GetValidAccessToken(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	// Second call must hit the cache, not the authorizer.
	tok, err = m.GetValidAccessToken(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Len(t, auth.requested(), 1)
}

func TestSilentFailureEscalatesToConsent(t *testing.T) {
	auth := &scriptedAuthorizer{silent: errors.New("no cached credentials")}
	m := NewManager(auth, nil)

	tok, err := m.GetValidAccessToken(context.Background(), false)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.Equal(t, []PromptMode{PromptSilent, PromptConsent}, auth.requested())
}

func TestFailedAcquisitionClearsCacheAndReturnsAuthDenied(t *testing.T) {
	auth := &scriptedAuthorizer{}
	m := NewManager(auth, nil)

	_, err := m.GetValidAccessToken(context.Background(), false)
	require.NoError(t, err)

	auth.mu.Lock()
	auth.silent = errors.New("revoked")
	auth.consent = errors.New("user closed the window")
	auth.mu.Unlock()

	m.Invalidate()
	_, err = m.GetValidAccessToken(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthDenied)

	// The failed run must not leave a stale token behind.
	assert.Empty(t, m.cached())
}

func TestConcurrentAcquisitionsCoalesce(t *testing.T) {
	auth := &scriptedAuthorizer{delay: 50 * time.Millisecond}
	m := NewManager(auth, nil)

	const callers = 8
	tokens := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = m.GetValidAccessToken(context.Background(), false)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	for _, tok := range tokens {
		assert.Equal(t, tokens[0], tok, "concurrent callers must share one acquisition")
	}
	assert.Len(t, auth.requested(), 1)
}

func TestReauthorizeDropsCachedToken(t *testing.T) {
	auth := &scriptedAuthorizer{}
	m := NewManager(auth, nil)

	first, err := m.GetValidAccessToken(context.Background(), false)
	require.NoError(t, err)

	second, err := m.Reauthorize(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	cached, err := m.GetValidAccessToken(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, second, cached)
}

func TestReauthorizeRunsConsentEvenWhenSilentWouldSucceed(t *testing.T) {
	auth := &scriptedAuthorizer{}
	m := NewManager(auth, nil)

	_, err := m.GetValidAccessToken(context.Background(), false)
	require.NoError(t, err)

	// A 401-triggered renewal must not reuse the refresh path the server
	// just rejected; it goes straight to consent.
	_, err = m.Reauthorize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []PromptMode{PromptSilent, PromptConsent}, auth.requested())
}

func TestAcquireRecordsGrantedScope(t *testing.T) {
	auth := &scriptedAuthorizer{scope: "https://www.googleapis.com/auth/drive.file"}
	m := NewManager(auth, nil)

	_, err := m.GetValidAccessToken(context.Background(), false)
	require.NoError(t, err)

	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotNil(t, m.token)
	assert.Equal(t, "https://www.googleapis.com/auth/drive.file", m.token.Scope)
}

func TestForceReauthRunsConsent(t *testing.T) {
	auth := &scriptedAuthorizer{}
	m := NewManager(auth, nil)

	_, err := m.GetValidAccessToken(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, []PromptMode{PromptConsent}, auth.requested())
}

func TestErrorClassification(t *testing.T) {
	notFound := &googleapi.Error{Code: http.StatusNotFound}
	unauthorized := &googleapi.Error{Code: http.StatusUnauthorized}
	server := &googleapi.Error{Code: http.StatusInternalServerError}

	assert.True(t, IsNotFound(notFound))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", notFound)))
	assert.True(t, IsNotFound(ErrNotFound))
	assert.False(t, IsNotFound(server))
	assert.False(t, IsNotFound(nil))

	assert.True(t, IsUnauthorized(unauthorized))
	assert.True(t, IsUnauthorized(ErrUnauthorized))
	assert.False(t, IsUnauthorized(notFound))
	assert.False(t, IsUnauthorized(nil))
}

func TestBearerTransportSetsAuthorizationHeader(t *testing.T) {
	auth := &scriptedAuthorizer{}
	m := NewManager(auth, nil)

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := NewHTTPClient(m)
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer tok-1", gotAuth)
}
