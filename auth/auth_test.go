package auth

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhppoted/sheets-inventory/logger"
)

type surface struct {
	navigations []string
	hold        bool
	opened      string
	closed      int
}

func (s *surface) Open(ctx context.Context, u string) (<-chan string, error) {
	s.opened = u

	ch := make(chan string, len(s.navigations))
	for _, v := range s.navigations {
		ch <- v
	}

	if !s.hold {
		close(ch)
	}

	return ch, nil
}

func (s *surface) Close() error {
	s.closed++
	return nil
}

var config = Config{
	ClientID:    "172641056593-nemn2u9qbfe0ttvn92k1nd9eafiae3te.apps.googleusercontent.com",
	RedirectURI: "http://localhost:8415",
	Scope:       "https://www.googleapis.com/auth/spreadsheets",
	Prompt:      "none",
	AuthURL:     "https://accounts.google.com/o/oauth2/v2/auth",
}

func newFlow(s Surface) *Flow {
	flow := NewFlow(config, s, logger.Nop())
	flow.state = func() string { return "state-token" }

	return flow
}

func TestURL(t *testing.T) {
	u, err := url.Parse(newFlow(&surface{}).URL("state-token"))
	require.NoError(t, err)

	q := u.Query()

	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "/o/oauth2/v2/auth", u.Path)
	assert.Equal(t, "token", q.Get("response_type"))
	assert.Equal(t, config.ClientID, q.Get("client_id"))
	assert.Equal(t, "http://localhost:8415", q.Get("redirect_uri"))
	assert.Equal(t, "https://www.googleapis.com/auth/spreadsheets", q.Get("scope"))
	assert.Equal(t, "none", q.Get("prompt"))
	assert.Equal(t, "state-token", q.Get("state"))
}

func TestURLWithDefaultEndpoint(t *testing.T) {
	c := config
	c.AuthURL = ""

	u, err := url.Parse(NewFlow(c, &surface{}, logger.Nop()).URL("x"))
	require.NoError(t, err)

	assert.Equal(t, "accounts.google.com", u.Host)
}

func TestAuthenticate(t *testing.T) {
	s := surface{
		navigations: []string{
			"https://accounts.google.com/signin/v2/identifier",
			"http://localhost:8415#access_token=ya29.a0AfH6SMC&token_type=Bearer&expires_in=3599&state=state-token",
		},
		hold: true,
	}

	token, err := newFlow(&s).Authenticate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ya29.a0AfH6SMC", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(3599*time.Second), token.Expiry, 5*time.Second)
	assert.Equal(t, 1, s.closed)
	assert.Contains(t, s.opened, "response_type=token")
}

func TestAuthenticateWithoutAccessToken(t *testing.T) {
	s := surface{
		navigations: []string{"http://localhost:8415#error=interaction_required&state=state-token"},
		hold:        true,
	}

	token, err := newFlow(&s).Authenticate(context.Background())

	assert.Nil(t, token)
	assert.ErrorIs(t, err, ErrNoAccessToken)
	assert.Equal(t, 1, s.closed)
}

func TestAuthenticateWithMismatchedState(t *testing.T) {
	s := surface{
		navigations: []string{"http://localhost:8415#access_token=qwerty&state=forged"},
		hold:        true,
	}

	_, err := newFlow(&s).Authenticate(context.Background())

	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestAuthenticateCancelled(t *testing.T) {
	s := surface{
		navigations: []string{"https://accounts.google.com/signin/v2/identifier"},
	}

	_, err := newFlow(&s).Authenticate(context.Background())

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 0, s.closed)
}

func TestAuthenticateContextCancelled(t *testing.T) {
	s := surface{hold: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newFlow(&s).Authenticate(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, s.closed)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		redirect string
		token    string
		err      error
	}{
		{"token", "http://localhost:8415#access_token=abc&token_type=Bearer", "abc", nil},
		{"token first", "http://localhost:8415/#access_token=abc", "abc", nil},
		{"encoded", "http://localhost:8415#access_token=a%2Fb%3Dc", "a/b=c", nil},
		{"no fragment", "http://localhost:8415", "", ErrNoAccessToken},
		{"error", "http://localhost:8415#error=access_denied", "", ErrNoAccessToken},
		{"state", "http://localhost:8415#access_token=abc&state=other", "", ErrStateMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := Parse(tt.redirect, "state-token")

			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.token, token.AccessToken)
			assert.Equal(t, "Bearer", token.TokenType)
		})
	}
}
