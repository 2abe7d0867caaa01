// Package settings persists the handful of key/value settings that survive
// between sessions - in practice only the spreadsheet ID.
package settings

import (
	"errors"
	"fmt"
)

// SpreadsheetID is the key under which the provisioned spreadsheet ID is stored.
const SpreadsheetID = "g_spreadsheet_id"

var ErrNotFound = errors.New("setting not found")

type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Lookup returns the value for key, treating a missing key as "".
func Lookup(store Store, key string) (string, error) {
	v, err := store.Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("error reading setting '%s' (%w)", key, err)
	}

	return v, nil
}
