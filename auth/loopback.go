package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cli/browser"

	"github.com/uhppoted/sheets-inventory/logger"
)

// The implicit grant returns the token in the URL fragment, which browsers
// never send to the server. The redirect page hands it back explicitly.
const redirectPage = `<!DOCTYPE html>
<html>
  <head><meta charset="utf-8"><title>Authenticating</title></head>
  <body>
    <p id="status">Completing authentication ...</p>
    <script>
      fetch('/callback?' + window.location.hash.substring(1))
        .then(function() { document.getElementById('status').innerText = 'You can close this window now.'; });
    </script>
  </body>
</html>
`

// Loopback is a Surface that opens the system browser and listens on the
// redirect URI for the provider's redirect.
type Loopback struct {
	redirect string
	address  string
	open     func(string) error
	log      *logger.Logger

	guard       sync.Mutex
	listener    net.Listener
	srv         *http.Server
	navigations chan string
	done        chan struct{}
	stopped     chan struct{}
	closed      bool
}

func NewLoopback(redirectURI string, log *logger.Logger) (*Loopback, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI (%w)", err)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("invalid redirect URI '%s' - missing host", redirectURI)
	}

	return &Loopback{
		redirect: redirectURI,
		address:  u.Host,
		open:     browser.OpenURL,
		log:      log.Child("loopback"),
	}, nil
}

// Addr returns the address the loopback server is actually listening on,
// or "" if the surface is not open.
func (l *Loopback) Addr() string {
	l.guard.Lock()
	defer l.guard.Unlock()

	if l.listener == nil {
		return ""
	}

	return l.listener.Addr().String()
}

func (l *Loopback) Open(ctx context.Context, authURL string) (<-chan string, error) {
	l.guard.Lock()

	if l.srv != nil && !l.closed {
		l.guard.Unlock()
		return nil, fmt.Errorf("authentication window already open")
	}

	listener, err := net.Listen("tcp", l.address)
	if err != nil {
		l.guard.Unlock()
		return nil, err
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, rq *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(redirectPage))
	})

	mux.HandleFunc("/callback", func(w http.ResponseWriter, rq *http.Request) {
		l.publish(l.redirect + "#" + rq.URL.RawQuery)
		w.WriteHeader(http.StatusNoContent)
	})

	l.listener = listener
	l.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	l.navigations = make(chan string, 1)
	l.done = make(chan struct{})
	l.stopped = make(chan struct{})
	l.closed = false

	srv := l.srv
	navigations := l.navigations
	done := l.done

	l.guard.Unlock()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			l.log.Warn().Err(err).Msg("loopback server")
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-done:
		}
	}()

	if err := l.open(authURL); err != nil {
		l.log.Warn().Err(err).Msg("could not open browser")
		fmt.Printf("Could not open the authentication page in your browser - please open %v manually\n", authURL)
	}

	return navigations, nil
}

func (l *Loopback) publish(u string) {
	l.guard.Lock()
	defer l.guard.Unlock()

	if l.closed {
		return
	}

	select {
	case l.navigations <- u:
	default:
		l.log.Warn().Msg("dropped navigation - previous navigation not yet consumed")
	}
}

// Close shuts down the loopback server. Concurrent calls return once the
// server has released the redirect address.
func (l *Loopback) Close() error {
	l.guard.Lock()

	if l.srv == nil {
		l.guard.Unlock()
		return nil
	}

	if l.closed {
		stopped := l.stopped
		l.guard.Unlock()
		<-stopped
		return nil
	}

	l.closed = true
	close(l.navigations)
	close(l.done)
	srv := l.srv
	stopped := l.stopped

	l.guard.Unlock()

	defer close(stopped)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
