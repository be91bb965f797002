package watchlist

import (
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager guards watchlist state with a mutex and persists every mutation.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
	log      *zap.Logger
}

// NewManager loads or initializes the watchlist and ensures every configured
// symbol has an entry.
func NewManager(filePath string, symbols []string, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	for _, sym := range symbols {
		code := strings.ToUpper(strings.TrimSpace(sym))
		if code == "" {
			continue
		}
		if state.Symbols[code] == nil {
			state.Symbols[code] = &SymbolState{}
		}
	}

	m := &Manager{state: state, filePath: filePath, log: log}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// Symbols returns the watched symbols, sorted for deterministic iteration.
func (m *Manager) Symbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.state.Symbols))
	for code := range m.state.Symbols {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Touch records a successful refresh for symbol.
func (m *Manager) Touch(symbol string, lastQuote time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.ensure(symbol)
	st.LastRefresh = time.Now()
	st.LastQuoteDate = lastQuote
	st.ConsecutiveFailures = 0
	st.LastError = ""

	if err := m.save(); err != nil {
		m.log.Error("failed to save watchlist state", zap.Error(err))
	}
}

// MarkFailure records a failed refresh for symbol.
func (m *Manager) MarkFailure(symbol string, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.ensure(symbol)
	st.ConsecutiveFailures++
	if cause != nil {
		st.LastError = cause.Error()
	}

	if err := m.save(); err != nil {
		m.log.Error("failed to save watchlist state", zap.Error(err))
	}
}

// Snapshot returns a deep copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := State{Symbols: make(map[string]*SymbolState, len(m.state.Symbols)), UpdatedAt: m.state.UpdatedAt}
	for code, st := range m.state.Symbols {
		copied := *st
		out.Symbols[code] = &copied
	}
	return out
}

func (m *Manager) ensure(symbol string) *SymbolState {
	code := strings.ToUpper(strings.TrimSpace(symbol))
	if m.state.Symbols[code] == nil {
		m.state.Symbols[code] = &SymbolState{}
	}
	return m.state.Symbols[code]
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
