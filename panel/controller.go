// Package panel routes events from the inventory panel to the auth flow,
// the spreadsheet and the entity bridge, and reports the results back to
// the panel.
//
// All session state is owned by a single goroutine (Controller.Run). Network
// calls run on their own goroutines and hand their results back to that
// goroutine as queued functions, so the session is never mutated
// concurrently.
package panel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/uhppoted/sheets-inventory/entity"
	"github.com/uhppoted/sheets-inventory/logger"
	"github.com/uhppoted/sheets-inventory/settings"
	"github.com/uhppoted/sheets-inventory/table"
)

type Authenticator interface {
	Authenticate(ctx context.Context) (*oauth2.Token, error)
}

var errNotAuthenticated = errors.New("not authenticated")

type Table interface {
	Create(ctx context.Context, token *oauth2.Token, title string) (string, error)
	Fetch(ctx context.Context, token *oauth2.Token, spreadsheet string, area table.Range) ([][]any, error)
	Append(ctx context.Context, token *oauth2.Token, spreadsheet string, area table.Range, rows [][]any) error
}

// Surface is the UI side of the panel.
type Surface interface {
	SetVisible(bool)
	Emit(Event)
	Alert(string)
}

type Config struct {
	Title string
	Range table.Range
}

// Session is the controller state. Count and Selected are -1 when unknown.
type Session struct {
	Token       *oauth2.Token
	Spreadsheet string
	Count       int
	Entries     []entity.Entry
	Selected    int
	Visible     bool

	authenticating bool
	reauthenticate bool
	provisioning   bool
	appending      bool
	pending        [][]any
}

func (s Session) Authenticated() bool {
	return s.Token != nil && s.Token.Valid()
}

type Controller struct {
	config  Config
	auth    Authenticator
	table   Table
	world   entity.World
	store   settings.Store
	surface Surface
	log     *logger.Logger

	queue   chan func()
	stopped chan struct{}
	ctx     context.Context
	session Session

	cancelAuth context.CancelFunc
}

// NewController creates a controller, restoring the spreadsheet ID from the
// settings store.
func NewController(config Config, auth Authenticator, t Table, world entity.World, store settings.Store, surface Surface, log *logger.Logger) (*Controller, error) {
	spreadsheet, err := settings.Lookup(store, settings.SpreadsheetID)
	if err != nil {
		return nil, err
	}

	return &Controller{
		config:  config,
		auth:    auth,
		table:   t,
		world:   world,
		store:   store,
		surface: surface,
		log:     log.Child("panel"),

		queue:   make(chan func(), 64),
		stopped: make(chan struct{}),
		ctx:     context.Background(),
		session: Session{
			Spreadsheet: spreadsheet,
			Count:       -1,
			Selected:    -1,
		},
	}, nil
}

// Run processes queued events until ctx is cancelled. It must only be
// called once.
func (c *Controller) Run(ctx context.Context) error {
	c.ctx = ctx
	defer close(c.stopped)

	c.log.Info().Str("spreadsheet", c.session.Spreadsheet).Msg("panel controller started")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("panel controller stopped")
			return ctx.Err()

		case f := <-c.queue:
			f()
		}
	}
}

// Receive parses a JSON message from the panel and queues it for dispatch.
func (c *Controller) Receive(raw []byte) error {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("invalid panel message (%w)", err)
	}

	c.post(func() {
		c.dispatch(msg)
	})

	return nil
}

func (c *Controller) SetVisible(visible bool) {
	c.post(func() {
		c.setVisible(visible)
	})
}

func (c *Controller) ToggleVisible() {
	c.post(func() {
		c.setVisible(!c.session.Visible)
	})
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot(ctx context.Context) (Session, error) {
	reply := make(chan Session, 1)

	c.post(func() {
		s := c.session
		s.Entries = append([]entity.Entry(nil), c.session.Entries...)
		reply <- s
	})

	select {
	case s := <-reply:
		return s, nil
	case <-c.stopped:
		return Session{}, errors.New("panel controller stopped")
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
}

func (c *Controller) post(f func()) {
	select {
	case c.queue <- f:
	case <-c.stopped:
	}
}

func (c *Controller) dispatch(msg Message) {
	c.log.Debug().Str("type", msg.Type).Msg("panel message")

	switch msg.Type {
	case MsgAuthenticate:
		c.authenticate()

	case MsgDeauthenticate:
		c.deauthenticate()

	case MsgStoreEntity:
		if len(c.world.Selection()) == 0 {
			c.surface.Alert(AlertNoSelection)
		} else {
			c.exportSelection()
		}

	case MsgEntitySelected:
		if msg.Index != nil && *msg.Index >= 0 {
			c.session.Selected = *msg.Index
		} else {
			c.session.Selected = -1
		}

	case MsgRezEntity:
		if c.session.Selected < 0 {
			c.surface.Alert(AlertNoRowSelected)
		} else {
			c.importSelectedRow(c.session.Selected)
		}
	}
}

func (c *Controller) setVisible(visible bool) {
	c.session.Visible = visible
	c.surface.SetVisible(visible)
}

// authenticate starts a new authentication flow. A flow that is still
// pending is cancelled and the new flow starts once it has finished.
func (c *Controller) authenticate() {
	if c.session.authenticating {
		c.log.Info().Msg("restarting pending authentication")
		c.session.reauthenticate = true
		c.cancelAuth()
		return
	}

	c.session.authenticating = true

	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelAuth = cancel

	go func() {
		token, err := c.auth.Authenticate(ctx)

		c.post(func() {
			cancel()

			c.session.authenticating = false
			c.cancelAuth = nil
			c.authenticated(token, err)

			if c.session.reauthenticate {
				c.session.reauthenticate = false
				c.authenticate()
			}
		})
	}()
}

func (c *Controller) authenticated(token *oauth2.Token, err error) {
	if err != nil || token == nil {
		c.log.Warn().Err(err).Msg("authentication failed")
		c.session.Token = nil
		c.surface.Alert(AlertAuthentication)
		return
	}

	c.session.Token = token
	c.surface.Emit(Event{Type: EventAuthenticated})

	if c.session.Spreadsheet == "" {
		c.provision(func() {
			c.fetchRows(nil)
		})
	} else {
		c.fetchRows(nil)
	}
}

func (c *Controller) deauthenticate() {
	c.session.Token = nil
	c.surface.Emit(Event{Type: EventDeauthenticated})
}

// provision creates the spreadsheet and persists its ID.
func (c *Controller) provision(then func()) {
	if c.session.provisioning {
		return
	}

	c.session.provisioning = true

	ctx := c.ctx
	token := c.session.Token
	title := c.config.Title

	c.log.Info().Str("title", title).Msg("creating new spreadsheet")

	go func() {
		id, err := c.table.Create(ctx, token, title)

		c.post(func() {
			c.session.provisioning = false

			if err != nil {
				c.log.Warn().Err(err).Msg("error creating spreadsheet")
				return
			}

			if err := c.store.Set(settings.SpreadsheetID, id); err != nil {
				c.log.Warn().Err(err).Msg("error saving spreadsheet ID")
			}

			c.session.Spreadsheet = id

			if then != nil {
				then()
			}
		})
	}()
}

// fetchRows replaces the cached rows with the contents of the sheet. Does not
// fetch anything if not authenticated. 'then' is invoked with the result once
// the fetch has completed or been skipped.
func (c *Controller) fetchRows(then func(error)) {
	if !c.session.Authenticated() || c.session.Spreadsheet == "" {
		if then != nil {
			then(errNotAuthenticated)
		}

		return
	}

	ctx := c.ctx
	token := c.session.Token
	spreadsheet := c.session.Spreadsheet
	area := c.config.Range

	go func() {
		rows, err := c.table.Fetch(ctx, token, spreadsheet, area)

		c.post(func() {
			if err != nil {
				c.log.Warn().Err(err).Msg("error fetching rows")
			} else {
				c.session.Count = len(rows)
				c.session.Entries = entity.Entries(rows)
				c.surface.Emit(Event{Type: EventTableUpdate, Entries: rows})
			}

			if then != nil {
				then(err)
			}
		})
	}()
}

// appendRows writes the rows immediately after the last known row and then
// re-reads the sheet. If the row count is not yet known the sheet is read
// first. Only one append is in flight at a time: rows stored while an append
// is pending are written after it, so they never target the same range.
func (c *Controller) appendRows(rows [][]any) {
	if len(rows) == 0 {
		return
	}

	if !c.session.Authenticated() || c.session.Spreadsheet == "" {
		c.log.Warn().Int("rows", len(rows)).Msg("not authenticated - discarding rows")
		return
	}

	if c.session.appending {
		c.session.pending = append(c.session.pending, rows...)
		return
	}

	c.session.appending = true

	if c.session.Count < 0 {
		c.fetchRows(func(err error) {
			if err != nil {
				c.appended()
			} else {
				c.write(rows)
			}
		})
		return
	}

	c.write(rows)
}

func (c *Controller) write(rows [][]any) {
	ctx := c.ctx
	token := c.session.Token
	spreadsheet := c.session.Spreadsheet
	count := c.session.Count
	area := c.config.Range.Next(count)

	go func() {
		err := c.table.Append(ctx, token, spreadsheet, area, rows)

		c.post(func() {
			if err != nil {
				c.log.Warn().Err(err).Str("range", area.String()).Msg("error appending rows")
				c.appended()
				return
			}

			c.session.Count = count + len(rows)
			c.fetchRows(func(error) {
				c.appended()
			})
		})
	}()
}

// appended releases the append in flight and writes any rows queued behind it.
func (c *Controller) appended() {
	c.session.appending = false

	if rows := c.session.pending; len(rows) > 0 {
		c.session.pending = nil
		c.appendRows(rows)
	}
}

func (c *Controller) exportSelection() {
	records, err := entity.Export(c.world, c.world.Selection())
	if errors.Is(err, entity.ErrNoSelection) {
		c.surface.Alert(AlertNoSelection)
		return
	} else if err != nil {
		c.log.Warn().Err(err).Msg("error exporting selection")
		c.surface.Alert(AlertExport)
		return
	}

	c.appendRows(entity.Rows(records))
}

func (c *Controller) importSelectedRow(index int) {
	if index < 0 || index >= len(c.session.Entries) {
		c.surface.Alert(AlertNoRowSelected)
		return
	}

	switch err := entity.Import(c.world, c.session.Entries[index]); {
	case errors.Is(err, entity.ErrChecksum):
		c.surface.Alert(AlertChecksum)

	case err != nil:
		c.surface.Alert(AlertImport)

	default:
		c.log.Info().Int("row", index).Msg("imported entity")
	}
}
