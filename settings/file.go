package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a Store backed by a JSON object on disk. The file is rewritten
// atomically on every Set.
type File struct {
	path   string
	guard  sync.Mutex
	values map[string]string
}

func NewFile(path string) *File {
	return &File{
		path: path,
	}
}

func (f *File) Get(key string) (string, error) {
	f.guard.Lock()
	defer f.guard.Unlock()

	if err := f.load(); err != nil {
		return "", err
	}

	if v, ok := f.values[key]; ok {
		return v, nil
	}

	return "", ErrNotFound
}

func (f *File) Set(key, value string) error {
	f.guard.Lock()
	defer f.guard.Unlock()

	if err := f.load(); err != nil {
		return err
	}

	f.values[key] = value

	return f.save()
}

func (f *File) load() error {
	if f.values != nil {
		return nil
	}

	values := map[string]string{}

	b, err := os.ReadFile(f.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error reading settings file (%w)", err)
	} else if err == nil && len(b) > 0 {
		if err := json.Unmarshal(b, &values); err != nil {
			return fmt.Errorf("invalid settings file %s (%w)", f.path, err)
		}
	}

	f.values = values

	return nil
}

func (f *File) save() error {
	b, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), f.path)
}
