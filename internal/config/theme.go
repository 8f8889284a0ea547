package config

// Theme holds the colors the board renderer uses
type Theme struct {
	// Preset name ("default", "monochrome")
	Preset string `yaml:"preset"`

	// Column titles and highlights
	Accent       string `yaml:"accent"`
	ColumnBorder string `yaml:"column_border"`
	// Counts, ids and empty hints
	Subtle   string `yaml:"subtle"`
	Assignee string `yaml:"assignee"`
	// Orphaned tasks
	Warning string `yaml:"warning"`
}

// Preset returns a preset theme by name; unknown names get the default
func Preset(name string) Theme {
	switch name {
	case "monochrome":
		return Theme{
			Preset:       "monochrome",
			Accent:       "#FFFFFF",
			ColumnBorder: "#808080",
			Subtle:       "#808080",
			Assignee:     "#D0D0D0",
			Warning:      "#FFFFFF",
		}
	default:
		return Theme{
			Preset:       "default",
			Accent:       "#874BFD",
			ColumnBorder: "#5F87D7",
			Subtle:       "#585858",
			Assignee:     "#5FD75F",
			Warning:      "#FFD700",
		}
	}
}

// ApplyDefaults fills in missing colors from the preset
func (t *Theme) ApplyDefaults() {
	base := Preset(t.Preset)
	if t.Preset == "" {
		t.Preset = base.Preset
	}
	if t.Accent == "" {
		t.Accent = base.Accent
	}
	if t.ColumnBorder == "" {
		t.ColumnBorder = base.ColumnBorder
	}
	if t.Subtle == "" {
		t.Subtle = base.Subtle
	}
	if t.Assignee == "" {
		t.Assignee = base.Assignee
	}
	if t.Warning == "" {
		t.Warning = base.Warning
	}
}

// MergeFrom overwrites colors that other sets
func (t *Theme) MergeFrom(other Theme) {
	if other.Preset != "" {
		t.Preset = other.Preset
	}
	if other.Accent != "" {
		t.Accent = other.Accent
	}
	if other.ColumnBorder != "" {
		t.ColumnBorder = other.ColumnBorder
	}
	if other.Subtle != "" {
		t.Subtle = other.Subtle
	}
	if other.Assignee != "" {
		t.Assignee = other.Assignee
	}
	if other.Warning != "" {
		t.Warning = other.Warning
	}
}
