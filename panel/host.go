package panel

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/uhppoted/sheets-inventory/logger"
)

//go:embed html
var HTML embed.FS

// Receiver accepts raw inbound panel messages.
type Receiver interface {
	Receive([]byte) error
}

// Host serves the panel page to a browser and implements Surface by
// streaming outbound events to every connected page as server-sent events.
type Host struct {
	echo *echo.Echo
	log  *logger.Logger

	done     chan struct{}
	shutdown sync.Once

	guard       sync.RWMutex
	receiver    Receiver
	visible     bool
	subscribers map[chan []byte]struct{}
}

func NewHost(log *logger.Logger) *Host {
	h := Host{
		echo:        echo.New(),
		log:         log.Child("host"),
		done:        make(chan struct{}),
		subscribers: map[chan []byte]struct{}{},
	}

	h.echo.HideBanner = true
	h.echo.HidePort = true
	h.echo.Use(middleware.Recover())

	h.echo.GET("/", h.index)
	h.echo.GET("/api/visible", h.getVisible)
	h.echo.GET("/api/events", h.stream)
	h.echo.POST("/api/events", h.post)

	return &h
}

// Attach sets the receiver for inbound messages.
func (h *Host) Attach(r Receiver) {
	h.guard.Lock()
	defer h.guard.Unlock()

	h.receiver = r
}

func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.echo.ServeHTTP(w, r)
}

func (h *Host) Start(address string) error {
	h.log.Info().Str("address", address).Msg("serving inventory panel")

	if err := h.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown ends any open event streams and stops the server.
func (h *Host) Shutdown(ctx context.Context) error {
	h.shutdown.Do(func() {
		close(h.done)
	})

	return h.echo.Shutdown(ctx)
}

func (h *Host) SetVisible(visible bool) {
	h.guard.Lock()
	h.visible = visible
	h.guard.Unlock()

	h.broadcast(map[string]any{"type": "visibility", "visible": visible})
}

func (h *Host) Emit(e Event) {
	h.broadcast(e)
}

func (h *Host) Alert(message string) {
	h.log.Info().Str("alert", message).Msg("alert")
	h.broadcast(map[string]any{"type": "alert", "message": message})
}

func (h *Host) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Warn().Err(err).Msg("error encoding panel event")
		return
	}

	h.guard.RLock()
	defer h.guard.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- b:
		default:
			h.log.Warn().Msg("panel subscriber not keeping up - dropped event")
		}
	}
}

func (h *Host) subscribe() chan []byte {
	ch := make(chan []byte, 16)

	h.guard.Lock()
	h.subscribers[ch] = struct{}{}
	h.guard.Unlock()

	return ch
}

func (h *Host) unsubscribe(ch chan []byte) {
	h.guard.Lock()
	delete(h.subscribers, ch)
	h.guard.Unlock()
}

func (h *Host) index(c echo.Context) error {
	b, err := HTML.ReadFile("html/index.html")
	if err != nil {
		return c.String(http.StatusInternalServerError, "Internal error loading page")
	}

	return c.HTMLBlob(http.StatusOK, b)
}

func (h *Host) getVisible(c echo.Context) error {
	h.guard.RLock()
	visible := h.visible
	h.guard.RUnlock()

	return c.JSON(http.StatusOK, map[string]bool{"visible": visible})
}

func (h *Host) post(c echo.Context) error {
	h.guard.RLock()
	receiver := h.receiver
	h.guard.RUnlock()

	if receiver == nil {
		return c.String(http.StatusServiceUnavailable, "Panel not ready")
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	if err := receiver.Receive(body); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	return c.NoContent(http.StatusAccepted)
}

func (h *Host) stream(c echo.Context) error {
	w := c.Response()

	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return nil
	}

	w.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-h.done:
			return nil

		case b := <-ch:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
				return nil
			}

			w.Flush()
		}
	}
}
