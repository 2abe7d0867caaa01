package panel

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhppoted/sheets-inventory/logger"
)

type receiver struct {
	messages []string
}

func (r *receiver) Receive(b []byte) error {
	if !strings.HasPrefix(string(b), "{") {
		return errors.New("invalid panel message")
	}

	r.messages = append(r.messages, string(b))

	return nil
}

func TestHostIndex(t *testing.T) {
	h := NewHost(logger.Nop())

	rq := httptest.NewRequest(http.MethodGet, "/", nil)
	rw := httptest.NewRecorder()

	h.ServeHTTP(rw, rq)

	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), "<title>Google Sheets Inventory</title>")
}

func TestHostPost(t *testing.T) {
	h := NewHost(logger.Nop())
	r := receiver{}

	rq := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{"type":"gauth"}`))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, rq)

	assert.Equal(t, http.StatusServiceUnavailable, rw.Code)

	h.Attach(&r)

	rq = httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{"type":"gauth"}`))
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, rq)

	assert.Equal(t, http.StatusAccepted, rw.Code)
	assert.Equal(t, []string{`{"type":"gauth"}`}, r.messages)

	rq = httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`gauth`))
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, rq)

	assert.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestHostVisible(t *testing.T) {
	h := NewHost(logger.Nop())

	h.SetVisible(true)

	rq := httptest.NewRequest(http.MethodGet, "/api/visible", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, rq)

	assert.Equal(t, http.StatusOK, rw.Code)
	assert.JSONEq(t, `{"visible":true}`, rw.Body.String())
}

func TestHostStream(t *testing.T) {
	h := NewHost(logger.Nop())
	srv := httptest.NewServer(h)
	defer srv.Close()

	rs, err := http.Get(srv.URL + "/api/events")
	require.NoError(t, err)
	defer rs.Body.Close()

	assert.Equal(t, "text/event-stream", rs.Header.Get("Content-Type"))

	r := bufio.NewReader(rs.Body)

	assert.Equal(t, ": connected\n", readLine(t, r))
	assert.Equal(t, "\n", readLine(t, r))

	h.Emit(Event{Type: EventTableUpdate, Entries: [][]any{{"Box", "box.fbx"}}})
	assert.Equal(t, `data: {"type":"tableupdate","entries":[["Box","box.fbx"]]}`+"\n", readLine(t, r))
	assert.Equal(t, "\n", readLine(t, r))

	h.Alert(AlertChecksum)
	assert.Equal(t, `data: {"message":"The requested entity JSON does not match the checksum.","type":"alert"}`+"\n", readLine(t, r))
}

func TestHostShutdownEndsStream(t *testing.T) {
	h := NewHost(logger.Nop())
	srv := httptest.NewServer(h)
	defer srv.Close()

	rs, err := http.Get(srv.URL + "/api/events")
	require.NoError(t, err)
	defer rs.Body.Close()

	r := bufio.NewReader(rs.Body)

	assert.Equal(t, ": connected\n", readLine(t, r))
	assert.Equal(t, "\n", readLine(t, r))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, h.Shutdown(ctx))
	require.NoError(t, h.Shutdown(ctx))

	closed := make(chan error, 1)
	go func() {
		_, err := r.ReadString('\n')
		closed <- err
	}()

	select {
	case err := <-closed:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(2 * time.Second):
		t.Fatalf("event stream still open after shutdown")
	}
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()

	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		t.Fatalf("error reading event stream (%v)", err)
	}

	return line
}
