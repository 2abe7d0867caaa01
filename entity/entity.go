// Package entity converts between in-world entities and spreadsheet rows.
//
// A row is laid out as
//
//	name | model URL | created | 1 | JSON export | SHA-256(JSON export)
//
// and is only ever imported back into the world if the checksum column
// matches the payload column.
package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// Marker is the constant value in the fourth column of every exported row.
	Marker = 1

	PayloadColumn  = 4
	ChecksumColumn = 5
)

var (
	ErrNoSelection   = errors.New("no entities have been selected")
	ErrNoRowSelected = errors.New("no row selected")
	ErrChecksum      = errors.New("entity JSON does not match checksum")
	ErrImport        = errors.New("error adding entity")
)

type ID string

type Properties struct {
	Name     string
	ModelURL string
	Created  int64
}

// World is the in-world side of the bridge: the current selection plus
// export and import of entities as JSON.
type World interface {
	Selection() []ID
	Properties(ID) (Properties, error)
	Export(ID) (string, error)
	Import(json string) bool
}

type Record struct {
	Name     string
	ModelURL string
	Created  int64
	Payload  string
	Checksum string
}

func (r Record) Values() []any {
	return []any{r.Name, r.ModelURL, r.Created, Marker, r.Payload, r.Checksum}
}

// Entry is the importable part of a row.
type Entry struct {
	Payload  string
	Checksum string
}

func (e Entry) Verify() error {
	if Checksum(e.Payload) != e.Checksum {
		return ErrChecksum
	}

	return nil
}

// Checksum returns the lowercase hex SHA-256 digest of the UTF-8 payload.
func Checksum(payload string) string {
	sum := sha256.Sum256([]byte(payload))

	return hex.EncodeToString(sum[:])
}

// Export builds one record per selected entity, in selection order.
func Export(world World, selection []ID) ([]Record, error) {
	if len(selection) == 0 {
		return nil, ErrNoSelection
	}

	records := make([]Record, 0, len(selection))

	for _, id := range selection {
		properties, err := world.Properties(id)
		if err != nil {
			return nil, fmt.Errorf("error retrieving properties for entity %v (%w)", id, err)
		}

		payload, err := world.Export(id)
		if err != nil {
			return nil, fmt.Errorf("error exporting entity %v (%w)", id, err)
		}

		records = append(records, Record{
			Name:     properties.Name,
			ModelURL: properties.ModelURL,
			Created:  properties.Created,
			Payload:  payload,
			Checksum: Checksum(payload),
		})
	}

	return records, nil
}

// Import verifies the entry checksum and only then hands the payload to the
// world.
func Import(world World, entry Entry) error {
	if err := entry.Verify(); err != nil {
		return err
	}

	if !world.Import(entry.Payload) {
		return ErrImport
	}

	return nil
}

// Rows converts records to spreadsheet row values.
func Rows(records []Record) [][]any {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Values())
	}

	return rows
}

// Entries extracts the payload and checksum columns of every row, in row
// order. Short rows yield empty fields.
func Entries(rows [][]any) []Entry {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			Payload:  column(row, PayloadColumn),
			Checksum: column(row, ChecksumColumn),
		})
	}

	return entries
}

func column(row []any, ix int) string {
	if ix >= len(row) || row[ix] == nil {
		return ""
	}

	if s, ok := row[ix].(string); ok {
		return s
	}

	return fmt.Sprintf("%v", row[ix])
}
