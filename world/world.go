// Package world provides an in-memory entity world with a selection, used
// by the CLI to stand in for the hosting engine and by tests.
package world

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/uhppoted/sheets-inventory/entity"
)

// Entity is the serialisable form of an in-world object. The ID is local
// to a world and is not exported.
type Entity struct {
	ID         entity.ID      `json:"-"`
	Type       string         `json:"type,omitempty"`
	Name       string         `json:"name"`
	ModelURL   string         `json:"modelURL"`
	Created    int64          `json:"created"`
	Properties map[string]any `json:"properties,omitempty"`
}

type export struct {
	Entities []Entity `json:"Entities"`
}

type Memory struct {
	guard     sync.RWMutex
	entities  map[entity.ID]Entity
	order     []entity.ID
	selection []entity.ID
}

func NewMemory(entities ...Entity) *Memory {
	w := Memory{
		entities: map[entity.ID]Entity{},
	}

	for _, e := range entities {
		w.add(e)
	}

	return &w
}

// Load reads a world from a JSON file in export format. Every loaded entity
// is initially selected.
func Load(file string) (*Memory, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var x export
	if err := json.Unmarshal(b, &x); err != nil {
		return nil, fmt.Errorf("invalid world file %v (%w)", file, err)
	}

	w := NewMemory(x.Entities...)
	w.selection = append([]entity.ID{}, w.order...)

	return w, nil
}

func (w *Memory) Add(e Entity) entity.ID {
	w.guard.Lock()
	defer w.guard.Unlock()

	return w.add(e)
}

func (w *Memory) add(e Entity) entity.ID {
	if e.ID == "" {
		e.ID = entity.ID("{" + uuid.NewString() + "}")
	}

	if _, ok := w.entities[e.ID]; !ok {
		w.order = append(w.order, e.ID)
	}

	w.entities[e.ID] = e

	return e.ID
}

// Select replaces the current selection. Unknown IDs are ignored.
func (w *Memory) Select(ids ...entity.ID) {
	w.guard.Lock()
	defer w.guard.Unlock()

	w.selection = []entity.ID{}
	for _, id := range ids {
		if _, ok := w.entities[id]; ok {
			w.selection = append(w.selection, id)
		}
	}
}

// Entities returns the entities in insertion order.
func (w *Memory) Entities() []Entity {
	w.guard.RLock()
	defer w.guard.RUnlock()

	list := make([]Entity, 0, len(w.order))
	for _, id := range w.order {
		list = append(list, w.entities[id])
	}

	return list
}

func (w *Memory) Selection() []entity.ID {
	w.guard.RLock()
	defer w.guard.RUnlock()

	return append([]entity.ID{}, w.selection...)
}

func (w *Memory) Properties(id entity.ID) (entity.Properties, error) {
	w.guard.RLock()
	defer w.guard.RUnlock()

	e, ok := w.entities[id]
	if !ok {
		return entity.Properties{}, fmt.Errorf("unknown entity %v", id)
	}

	return entity.Properties{
		Name:     e.Name,
		ModelURL: e.ModelURL,
		Created:  e.Created,
	}, nil
}

func (w *Memory) Export(id entity.ID) (string, error) {
	w.guard.RLock()
	defer w.guard.RUnlock()

	e, ok := w.entities[id]
	if !ok {
		return "", fmt.Errorf("unknown entity %v", id)
	}

	b, err := json.Marshal(export{Entities: []Entity{e}})
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// Import adds the entities in the JSON export as new entities. Returns false
// if the JSON is invalid or holds no entities.
func (w *Memory) Import(s string) bool {
	var x export
	if err := json.Unmarshal([]byte(s), &x); err != nil || len(x.Entities) == 0 {
		return false
	}

	w.guard.Lock()
	defer w.guard.Unlock()

	for _, e := range x.Entities {
		e.ID = ""
		w.add(e)
	}

	return true
}
