package theme

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// tomlTheme is the TOML-serializable representation of a Theme.
type tomlTheme struct {
	Name    string      `toml:"name"`
	Base    tomlBase    `toml:"base"`
	Table   tomlTable   `toml:"table"`
	Status  tomlStatus  `toml:"status"`
	Special tomlSpecial `toml:"special"`
}

type tomlBase struct {
	Background string `toml:"background"`
	Foreground string `toml:"foreground"`
	Dim        string `toml:"dim"`
	Accent     string `toml:"accent"`
}

type tomlTable struct {
	Border string `toml:"border"`
	Header string `toml:"header"`
	RowAlt string `toml:"row_alt"`
	Cursor string `toml:"cursor"`
}

type tomlStatus struct {
	OK    string `toml:"ok"`
	Warn  string `toml:"warn"`
	Error string `toml:"error"`
}

type tomlSpecial struct {
	SearchHighlight string `toml:"search_highlight"`
	HelpKey         string `toml:"help_key"`
	HelpDesc        string `toml:"help_desc"`
}

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// LoadFile reads a TOML theme from path and registers it.
func LoadFile(path string) (Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("theme: %w", err)
	}
	t, err := LoadFromTOML(data)
	if err != nil {
		return Theme{}, err
	}
	if err := Register(t); err != nil {
		return Theme{}, err
	}
	return t, nil
}

// LoadFromTOML parses a TOML theme definition from raw bytes. Colors left
// out are filled from the default theme.
func LoadFromTOML(data []byte) (Theme, error) {
	var tt tomlTheme
	if err := toml.Unmarshal(data, &tt); err != nil {
		return Theme{}, fmt.Errorf("theme: parse TOML: %w", err)
	}

	t := Theme{
		Name:       tt.Name,
		Background: tt.Base.Background,
		Foreground: tt.Base.Foreground,
		Dim:        tt.Base.Dim,
		Accent:     tt.Base.Accent,

		Border: tt.Table.Border,
		Header: tt.Table.Header,
		RowAlt: tt.Table.RowAlt,
		Cursor: tt.Table.Cursor,

		StatusOK:    tt.Status.OK,
		StatusWarn:  tt.Status.Warn,
		StatusError: tt.Status.Error,

		SearchHighlight: tt.Special.SearchHighlight,
		HelpKey:         tt.Special.HelpKey,
		HelpDesc:        tt.Special.HelpDesc,
	}
	fillFrom(&t, defaultTheme())

	if err := validate(t); err != nil {
		return Theme{}, err
	}
	return t, nil
}

// SaveToTOML serializes a theme to TOML bytes.
func SaveToTOML(t Theme) ([]byte, error) {
	tt := tomlTheme{
		Name: t.Name,
		Base: tomlBase{
			Background: t.Background,
			Foreground: t.Foreground,
			Dim:        t.Dim,
			Accent:     t.Accent,
		},
		Table: tomlTable{
			Border: t.Border,
			Header: t.Header,
			RowAlt: t.RowAlt,
			Cursor: t.Cursor,
		},
		Status: tomlStatus{
			OK:    t.StatusOK,
			Warn:  t.StatusWarn,
			Error: t.StatusError,
		},
		Special: tomlSpecial{
			SearchHighlight: t.SearchHighlight,
			HelpKey:         t.HelpKey,
			HelpDesc:        t.HelpDesc,
		},
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(tt); err != nil {
		return nil, fmt.Errorf("theme: encode TOML: %w", err)
	}
	return buf.Bytes(), nil
}

// colors lists every color field of t by its TOML name.
func colors(t *Theme) []struct {
	field string
	value *string
} {
	return []struct {
		field string
		value *string
	}{
		{"background", &t.Background},
		{"foreground", &t.Foreground},
		{"dim", &t.Dim},
		{"accent", &t.Accent},
		{"border", &t.Border},
		{"header", &t.Header},
		{"row_alt", &t.RowAlt},
		{"cursor", &t.Cursor},
		{"ok", &t.StatusOK},
		{"warn", &t.StatusWarn},
		{"error", &t.StatusError},
		{"search_highlight", &t.SearchHighlight},
		{"help_key", &t.HelpKey},
		{"help_desc", &t.HelpDesc},
	}
}

// fillFrom copies base colors into every empty field of t.
func fillFrom(t *Theme, base Theme) {
	dst, src := colors(t), colors(&base)
	for i := range dst {
		if *dst[i].value == "" {
			*dst[i].value = *src[i].value
		}
	}
}

// validate checks the name and that every color is valid hex.
func validate(t Theme) error {
	if t.Name == "" {
		return fmt.Errorf("theme: missing required field %q", "name")
	}
	for _, c := range colors(&t) {
		if !hexColorRegex.MatchString(*c.value) {
			return fmt.Errorf("theme: invalid hex color %q for field %q (expected #RRGGBB)", *c.value, c.field)
		}
	}
	return nil
}
