package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AppDir is the directory under the user config root holding dtx files.
const AppDir = "dtx"

// FileName is the default table definition file name.
const FileName = "table.yaml"

//go:embed default_table.yaml
var embeddedDefault []byte

// DefaultYAML returns a copy of the embedded default definition.
func DefaultYAML() []byte {
	return append([]byte(nil), embeddedDefault...)
}

// Default returns the embedded default definition.
func Default() (File, error) {
	var f File
	if err := decode(embeddedDefault, &f); err != nil {
		return f, fmt.Errorf("decode default table definition: %w", err)
	}
	return f, nil
}

// Load decodes the definition at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (File, error) {
	f, err := Default()
	if err != nil {
		return f, err
	}
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read table definition: %w", err)
	}
	if err := decode(data, &f); err != nil {
		return f, fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// decode unmarshals data onto f, rejecting unknown keys. An empty document
// leaves f untouched.
func decode(data []byte, f *File) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ResolvePath returns explicit when set, else $XDG_CONFIG_HOME/dtx/table.yaml
// or ~/.config/dtx/table.yaml when that file exists, else "".
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidate := ""
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidate = filepath.Join(xdg, AppDir, FileName)
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", AppDir, FileName)
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}
