package panel

import (
	"encoding/json"
)

// Inbound message types
const (
	MsgAuthenticate   = "gauth"
	MsgDeauthenticate = "gdeauth"
	MsgStoreEntity    = "storeentity"
	MsgEntitySelected = "entityselected"
	MsgRezEntity      = "rezentity"
)

// Outbound event types
const (
	EventAuthenticated   = "authenticated"
	EventDeauthenticated = "deauthenticated"
	EventTableUpdate     = "tableupdate"
)

// User visible alerts
const (
	AlertNoSelection    = "No entities have been selected."
	AlertNoRowSelected  = "Please select an entity."
	AlertChecksum       = "The requested entity JSON does not match the checksum."
	AlertImport         = "There was an error adding the requested entity."
	AlertAuthentication = "There was an error authenticating with Google"
	AlertExport         = "There was an error exporting the selected entities."
)

// Message is a tagged event from the panel. Index is only set for
// 'entityselected'.
type Message struct {
	Type  string `json:"type"`
	Index *int   `json:"index,omitempty"`
}

// Event is a tagged event sent to the panel. Entries is only sent with
// 'tableupdate' and always as an array.
type Event struct {
	Type    string
	Entries [][]any
}

func (e Event) MarshalJSON() ([]byte, error) {
	if e.Type == EventTableUpdate {
		entries := e.Entries
		if entries == nil {
			entries = [][]any{}
		}

		return json.Marshal(struct {
			Type    string  `json:"type"`
			Entries [][]any `json:"entries"`
		}{
			Type:    e.Type,
			Entries: entries,
		})
	}

	return json.Marshal(struct {
		Type string `json:"type"`
	}{
		Type: e.Type,
	})
}
