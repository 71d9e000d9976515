// Package settings loads and saves user preferences from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/famtree/settings.toml (see
// [os.UserConfigDir] for the platform equivalent). A missing file means
// defaults; keys absent from the file keep their default values.
//
//	language = "en"
//	show_grid = true
//	grid_size = 50.0
//	node_color_theme = "high_contrast"
//	tree = "family.db"
package settings

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/famtree/pkg/errors"
)

// Languages and themes accepted by [Settings].
const (
	LanguageJapanese = "ja"
	LanguageEnglish  = "en"

	ThemeDefault      = "default"
	ThemeHighContrast = "high_contrast"
)

// EnvPath overrides the settings file location when set.
const EnvPath = "FAMTREE_SETTINGS"

// Settings are the persisted user preferences.
type Settings struct {
	Language       string  `toml:"language" validate:"oneof=ja en"`
	ShowGrid       bool    `toml:"show_grid"`
	GridSize       float64 `toml:"grid_size" validate:"gt=0,max=1000"`
	NodeColorTheme string  `toml:"node_color_theme" validate:"oneof=default high_contrast"`

	// Tree is the default tree location used when --file is not given.
	Tree string `toml:"tree,omitempty" validate:"max=4096"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		Language:       LanguageJapanese,
		ShowGrid:       true,
		GridSize:       50,
		NodeColorTheme: ThemeDefault,
	}
}

// Validate checks every field.
func (s Settings) Validate() error {
	return errors.ValidateStruct(s)
}

// Path returns the settings file location: $FAMTREE_SETTINGS if set,
// otherwise famtree/settings.toml under the user config directory.
func Path() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, "famtree", "settings.toml"), nil
}

// Load reads settings from path. A missing file returns [Default].
// Unknown keys are ignored.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if _, err := toml.Decode(string(data), &s); err != nil {
		return Default(), errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	if err := s.Validate(); err != nil {
		return Default(), err
	}
	return s, nil
}

// LoadDefault loads from [Path].
func LoadDefault() (Settings, string, error) {
	path, err := Path()
	if err != nil {
		return Default(), "", err
	}
	s, err := Load(path)
	return s, path, err
}

// Save validates s and writes it to path, creating parent directories.
func (s Settings) Save(path string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// =============================================================================
// Key access for `famtree settings show|set`
// =============================================================================

// Keys returns the TOML key names in sorted order.
func Keys() []string {
	return []string{"grid_size", "language", "node_color_theme", "show_grid", "tree"}
}

// Get returns the value of key formatted as text.
func (s Settings) Get(key string) (string, error) {
	switch key {
	case "language":
		return s.Language, nil
	case "show_grid":
		return strconv.FormatBool(s.ShowGrid), nil
	case "grid_size":
		return strconv.FormatFloat(s.GridSize, 'g', -1, 64), nil
	case "node_color_theme":
		return s.NodeColorTheme, nil
	case "tree":
		return s.Tree, nil
	}
	return "", unknownKey(key)
}

// Set parses value into key and validates the result. s is unchanged on
// error.
func (s *Settings) Set(key, value string) error {
	next := *s
	value = strings.TrimSpace(value)
	switch key {
	case "language":
		next.Language = strings.ToLower(value)
	case "show_grid":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "show_grid")
		}
		next.ShowGrid = b
	case "grid_size":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "grid_size")
		}
		next.GridSize = f
	case "node_color_theme":
		next.NodeColorTheme = strings.ReplaceAll(strings.ToLower(value), "-", "_")
	case "tree":
		next.Tree = value
	default:
		return unknownKey(key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

func unknownKey(key string) error {
	return errors.New(errors.ErrCodeInvalidInput, "unknown setting %q (known: %s)", key, strings.Join(Keys(), ", "))
}
