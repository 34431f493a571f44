// Package state persists the edit history so saves can be reverted and
// redone across program runs. Each history entry stores, per file, the
// serialized attribute block before and after the save; reverting is just
// reconciling the one onto the other.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/sokinpui/xattred/internal/fs"
)

const stateFileName = "history.yaml"

// Save records one file's attribute state on either side of a save.
type Save struct {
	Path   string `yaml:"path"`
	Before string `yaml:"before"` // serialized dump block at session start
	After  string `yaml:"after"`  // serialized dump block that was applied
}

// HistoryEntry represents one complete run of the tool.
type HistoryEntry struct {
	Timestamp int64  `yaml:"timestamp"`
	Saves     []Save `yaml:"saves"`
}

// State represents the entire state file.
type State struct {
	History      []HistoryEntry `yaml:"history"`
	CurrentIndex int            `yaml:"current_index"`
}

// Manager handles the lifecycle of the state file.
type Manager struct {
	statePath string
	state     *State
}

// New creates and loads a state manager backed by the user's state
// directory.
func New() (*Manager, error) {
	dir, err := fs.StateDir()
	if err != nil {
		return nil, err
	}
	return NewAt(filepath.Join(dir, stateFileName))
}

// NewAt creates a manager backed by an explicit state file path.
func NewAt(statePath string) (*Manager, error) {
	m := &Manager{statePath: statePath}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = &State{CurrentIndex: -1}
			return nil
		}
		return fmt.Errorf("could not read state file: %w", err)
	}

	var s State
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid state file %s: %w", m.statePath, err)
	}
	if s.CurrentIndex >= len(s.History) {
		s.CurrentIndex = len(s.History) - 1
	}
	if s.CurrentIndex < -1 {
		s.CurrentIndex = -1
	}
	m.state = &s
	return nil
}

func (m *Manager) save() error {
	data, err := yaml.Marshal(m.state)
	if err != nil {
		return fmt.Errorf("could not serialize state: %w", err)
	}
	if err := os.WriteFile(m.statePath, data, 0644); err != nil {
		return fmt.Errorf("could not write state file: %w", err)
	}
	return nil
}

// Write adds a new set of saves to the history. Any forward history left by
// earlier reverts is discarded.
func (m *Manager) Write(saves []Save) error {
	if len(saves) == 0 {
		return nil
	}
	if m.state.CurrentIndex < len(m.state.History)-1 {
		m.state.History = m.state.History[:m.state.CurrentIndex+1]
	}

	m.state.History = append(m.state.History, HistoryEntry{
		Timestamp: time.Now().UTC().Unix(),
		Saves:     saves,
	})
	m.state.CurrentIndex++
	return m.save()
}

// PeekRevert returns the saves a revert would apply without moving the
// history pointer.
func (m *Manager) PeekRevert() []Save {
	if m.state.CurrentIndex < 0 {
		return nil
	}
	return m.state.History[m.state.CurrentIndex].Saves
}

// PeekRedo returns the saves a redo would apply without moving the history
// pointer.
func (m *Manager) PeekRedo() []Save {
	next := m.state.CurrentIndex + 1
	if next >= len(m.state.History) {
		return nil
	}
	return m.state.History[next].Saves
}

// SavesToRevert returns the saves of the newest applied entry and moves the
// history pointer back. Nil means there is nothing to revert.
func (m *Manager) SavesToRevert() ([]Save, error) {
	if m.state.CurrentIndex < 0 {
		return nil, nil
	}
	saves := m.state.History[m.state.CurrentIndex].Saves
	m.state.CurrentIndex--
	if err := m.save(); err != nil {
		return nil, err
	}
	return saves, nil
}

// SavesToRedo returns the saves of the next reverted entry and moves the
// history pointer forward. Nil means there is nothing to redo.
func (m *Manager) SavesToRedo() ([]Save, error) {
	nextIndex := m.state.CurrentIndex + 1
	if nextIndex >= len(m.state.History) {
		return nil, nil
	}
	m.state.CurrentIndex = nextIndex
	saves := m.state.History[m.state.CurrentIndex].Saves
	if err := m.save(); err != nil {
		return nil, err
	}
	return saves, nil
}
