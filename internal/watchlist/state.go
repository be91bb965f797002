package watchlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// SymbolState tracks refresh bookkeeping for one watched symbol.
type SymbolState struct {
	LastRefresh         time.Time `json:"last_refresh"`
	LastQuoteDate       time.Time `json:"last_quote_date"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
}

// State is the persisted watchlist.
type State struct {
	Symbols   map[string]*SymbolState `json:"symbols"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// LoadState reads the watchlist from a JSON file. Returns an empty state if
// the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Symbols: map[string]*SymbolState{}}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Symbols == nil {
		state.Symbols = map[string]*SymbolState{}
	}
	return &state, nil
}

// SaveState writes the watchlist to a JSON file, creating parent directories
// as needed.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
