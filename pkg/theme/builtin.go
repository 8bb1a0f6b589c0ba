package theme

// registerBuiltins registers all built-in themes in the registry.
func registerBuiltins() {
	for _, t := range []Theme{
		defaultTheme(),
		gruvboxTheme(),
		nordTheme(),
		catppuccinTheme(),
		draculaTheme(),
		tokyoNightTheme(),
	} {
		if err := Register(t); err != nil {
			panic(err)
		}
	}
}

// defaultTheme returns the dark neutral theme with purple accent.
func defaultTheme() Theme {
	return Theme{
		Name:       "default",
		Background: "#1e1e1e",
		Foreground: "#d4d4d4",
		Dim:        "#6b6b6b",
		Accent:     "#7c3aed",

		Border: "#3e3e3e",
		Header: "#d4d4d4",
		RowAlt: "#252526",
		Cursor: "#5b21b6",

		StatusOK:    "#4ec970",
		StatusWarn:  "#e5c07b",
		StatusError: "#e06c75",

		SearchHighlight: "#f9e2af",
		HelpKey:         "#7c3aed",
		HelpDesc:        "#6b6b6b",
	}
}

// gruvboxTheme returns the warm retro Gruvbox theme.
func gruvboxTheme() Theme {
	return Theme{
		Name:       "gruvbox",
		Background: "#282828",
		Foreground: "#ebdbb2",
		Dim:        "#928374",
		Accent:     "#fe8019",

		Border: "#504945",
		Header: "#ebdbb2",
		RowAlt: "#32302f",
		Cursor: "#d65d0e",

		StatusOK:    "#b8bb26",
		StatusWarn:  "#fabd2f",
		StatusError: "#fb4934",

		SearchHighlight: "#fabd2f",
		HelpKey:         "#fe8019",
		HelpDesc:        "#928374",
	}
}

func nordTheme() Theme {
	return Theme{
		Name:       "nord",
		Background: "#2e3440",
		Foreground: "#eceff4",
		Dim:        "#4c566a",
		Accent:     "#88c0d0",

		Border: "#3b4252",
		Header: "#eceff4",
		RowAlt: "#3b4252",
		Cursor: "#5e81ac",

		StatusOK:    "#a3be8c",
		StatusWarn:  "#ebcb8b",
		StatusError: "#bf616a",

		SearchHighlight: "#ebcb8b",
		HelpKey:         "#88c0d0",
		HelpDesc:        "#4c566a",
	}
}

func catppuccinTheme() Theme {
	return Theme{
		Name:       "catppuccin",
		Background: "#1e1e2e",
		Foreground: "#cdd6f4",
		Dim:        "#6c7086",
		Accent:     "#cba6f7",

		Border: "#313244",
		Header: "#cdd6f4",
		RowAlt: "#181825",
		Cursor: "#45475a",

		StatusOK:    "#a6e3a1",
		StatusWarn:  "#f9e2af",
		StatusError: "#f38ba8",

		SearchHighlight: "#f9e2af",
		HelpKey:         "#cba6f7",
		HelpDesc:        "#6c7086",
	}
}

func draculaTheme() Theme {
	return Theme{
		Name:       "dracula",
		Background: "#282a36",
		Foreground: "#f8f8f2",
		Dim:        "#6272a4",
		Accent:     "#bd93f9",

		Border: "#44475a",
		Header: "#f8f8f2",
		RowAlt: "#21222c",
		Cursor: "#44475a",

		StatusOK:    "#50fa7b",
		StatusWarn:  "#f1fa8c",
		StatusError: "#ff5555",

		SearchHighlight: "#f1fa8c",
		HelpKey:         "#bd93f9",
		HelpDesc:        "#6272a4",
	}
}

func tokyoNightTheme() Theme {
	return Theme{
		Name:       "tokyo-night",
		Background: "#1a1b26",
		Foreground: "#c0caf5",
		Dim:        "#565f89",
		Accent:     "#7aa2f7",

		Border: "#292e42",
		Header: "#c0caf5",
		RowAlt: "#16161e",
		Cursor: "#283457",

		StatusOK:    "#9ece6a",
		StatusWarn:  "#e0af68",
		StatusError: "#f7768e",

		SearchHighlight: "#e0af68",
		HelpKey:         "#7aa2f7",
		HelpDesc:        "#565f89",
	}
}
