// Package auth implements the OAuth2 implicit grant used to obtain a bearer
// token for the Sheets API.
//
// The interactive part is delegated to a Surface (a browser window or an
// embedded web view) which reports every URL it navigates to. The flow is
// complete when the surface lands on the redirect URI, at which point the
// access token is parsed out of the URL fragment.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/uhppoted/sheets-inventory/logger"
)

var (
	ErrNoAccessToken = errors.New("no access token in redirect")
	ErrStateMismatch = errors.New("redirect state does not match request")
	ErrCancelled     = errors.New("authentication window closed")
)

type Config struct {
	ClientID    string
	RedirectURI string
	Scope       string
	Prompt      string
	AuthURL     string
}

// Surface is an interactive browser view. Open navigates to the URL and
// returns a channel of the URLs subsequently visited, which is closed when
// the surface is closed.
type Surface interface {
	Open(ctx context.Context, url string) (<-chan string, error)
	Close() error
}

type Flow struct {
	config  Config
	surface Surface
	state   func() string
	log     *logger.Logger
}

func NewFlow(config Config, surface Surface, log *logger.Logger) *Flow {
	return &Flow{
		config:  config,
		surface: surface,
		state:   uuid.NewString,
		log:     log.Child("auth"),
	}
}

// URL returns the provider authorization URL for an implicit grant.
func (f *Flow) URL(state string) string {
	endpoint := google.Endpoint
	if f.config.AuthURL != "" {
		endpoint.AuthURL = f.config.AuthURL
	}

	config := oauth2.Config{
		ClientID:    f.config.ClientID,
		Endpoint:    endpoint,
		RedirectURL: f.config.RedirectURI,
		Scopes:      []string{f.config.Scope},
	}

	options := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("response_type", "token"),
	}

	if f.config.Prompt != "" {
		options = append(options, oauth2.SetAuthURLParam("prompt", f.config.Prompt))
	}

	return config.AuthCodeURL(state, options...)
}

// Authenticate opens the surface on the authorization URL and blocks until
// the surface reaches the redirect URI, is closed or ctx is cancelled.
func (f *Flow) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	state := f.state()

	navigations, err := f.surface.Open(ctx, f.URL(state))
	if err != nil {
		return nil, fmt.Errorf("unable to open authentication window (%w)", err)
	}

	for {
		select {
		case <-ctx.Done():
			f.close()
			return nil, ctx.Err()

		case u, ok := <-navigations:
			if !ok {
				return nil, ErrCancelled
			}

			f.log.Debug().Str("url", redact(u)).Msg("navigation")

			if strings.HasPrefix(u, f.config.RedirectURI) {
				f.close()
				return Parse(u, state)
			}
		}
	}
}

func (f *Flow) close() {
	if err := f.surface.Close(); err != nil {
		f.log.Warn().Err(err).Msg("error closing authentication window")
	}
}

// Parse extracts the token from the fragment of an implicit grant redirect.
// A state in the fragment must match the state sent with the request.
func Parse(redirect, state string) (*oauth2.Token, error) {
	u, err := url.Parse(redirect)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URL (%w)", err)
	}

	fragment, err := url.ParseQuery(u.EscapedFragment())
	if err != nil {
		return nil, fmt.Errorf("invalid redirect fragment (%w)", err)
	}

	if s := fragment.Get("state"); s != "" && s != state {
		return nil, ErrStateMismatch
	}

	token := oauth2.Token{
		AccessToken: fragment.Get("access_token"),
		TokenType:   fragment.Get("token_type"),
	}

	if token.AccessToken == "" {
		if e := fragment.Get("error"); e != "" {
			return nil, fmt.Errorf("%w (%v)", ErrNoAccessToken, e)
		}

		return nil, ErrNoAccessToken
	}

	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}

	if v, err := strconv.Atoi(fragment.Get("expires_in")); err == nil && v > 0 {
		token.Expiry = time.Now().Add(time.Duration(v) * time.Second)
	}

	return &token, nil
}

func redact(u string) string {
	if ix := strings.Index(u, "#"); ix >= 0 {
		return u[:ix] + "#..."
	}

	return u
}
