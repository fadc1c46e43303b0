package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	stateFile = "state.json"
)

// ActiveState is the chat state shared by the terminal clients between runs.
type ActiveState struct {
	// SessionID is the session resumed by "chatstream chat" and the TUI.
	SessionID string `json:"session_id"`

	// Model is the model last selected for the active session.
	Model string `json:"model,omitempty"`
}

// LoadActiveState loads the state from the target .chatstream/state.json.
// Returns nil, nil when no state has been saved yet.
func (m *Manager) LoadActiveState(overrideDir string) (*ActiveState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading active state: %w", err)
	}

	state := &ActiveState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing active state: %w", err)
	}

	return state, nil
}

// SaveActiveState persists state to the target .chatstream/state.json.
func (m *Manager) SaveActiveState(state *ActiveState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil active state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling active state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, stateFile), data, 0o600); err != nil {
		return fmt.Errorf("writing active state: %w", err)
	}

	return nil
}

// ClearActiveState removes the state file so the next chat starts a new
// session. Returns nil if there is nothing to clear.
func (m *Manager) ClearActiveState(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, stateFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing active state: %w", err)
	}

	return nil
}
