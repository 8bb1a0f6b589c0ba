// Package theme holds the color palettes used to render the telemetry table
// and builds the lipgloss styles derived from them.
package theme

import (
	"slices"
	"strings"
	"sync"
)

// Theme defines the complete color palette for the table view. Every color
// is a "#RRGGBB" hex string.
type Theme struct {
	Name string

	// Base colors
	Background string
	Foreground string
	Dim        string // secondary text, units
	Accent     string // sort indicator, focused input

	// Table colors
	Border string // rule under the header
	Header string // column titles
	RowAlt string // background of every other row
	Cursor string // background of the row under the cursor

	// Status colors
	StatusOK    string
	StatusWarn  string
	StatusError string

	// Special
	SearchHighlight string
	HelpKey         string // keybinding highlight color
	HelpDesc        string // help description color
}

var (
	mu       sync.RWMutex
	registry = map[string]Theme{}
)

func init() {
	registerBuiltins()
}

// Get returns a named theme. Lookup ignores case.
func Get(name string) (Theme, bool) {
	mu.RLock()
	defer mu.RUnlock()
	t, ok := registry[strings.ToLower(name)]
	return t, ok
}

// GetOrDefault returns the named theme, falling back to "default".
func GetOrDefault(name string) Theme {
	if t, ok := Get(name); ok {
		return t
	}
	t, _ := Get("default")
	return t
}

// Names returns all available theme names sorted alphabetically.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Register adds or replaces a theme under its lowercase name.
func Register(t Theme) error {
	if err := validate(t); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(t.Name)] = t
	return nil
}
