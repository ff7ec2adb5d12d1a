package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SystemConfigPath is consulted when no per-user file exists.
const SystemConfigPath = "/etc/biscuitwm/biscuitwm.json"

var (
	// ErrMissing means no configuration file was found.
	ErrMissing = errors.New("config file not found")
	// ErrMismatched means a file was found but does not match the schema.
	ErrMismatched = errors.New("config file does not match schema")
)

// LoadResult is a loaded configuration and the file it came from. File is
// empty when the built-in defaults are in use.
type LoadResult struct {
	Config *Config
	File   string
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "biscuitwm", "config.yaml"), nil
}

// SearchPaths returns the files LoadOrDefault tries, in order. An explicit
// path replaces the standard locations.
func SearchPaths(explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	var paths []string
	if p, err := DefaultConfigPath(); err == nil {
		paths = append(paths, p)
	}
	return append(paths, SystemConfigPath)
}

// LoadOrDefault loads the first existing file from SearchPaths(explicit).
// It never returns a nil result: when nothing loads, the result holds the
// defaults and err explains why (wrapping ErrMissing or ErrMismatched).
// Configuration is never partially merged.
func LoadOrDefault(explicit string) (*LoadResult, error) {
	for _, path := range SearchPaths(explicit) {
		res, err := LoadFromPath(path)
		if errors.Is(err, ErrMissing) {
			continue
		}
		if err != nil {
			return &LoadResult{Config: DefaultConfig()}, err
		}
		return res, nil
	}
	return &LoadResult{Config: DefaultConfig()}, ErrMissing
}

// LoadFromPath strictly loads one file. Every group and every field must be
// present and no unknown keys are allowed.
func LoadFromPath(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrMissing)
		}
		return nil, fmt.Errorf("%s: failed to read: %w", path, err)
	}

	cfg, err := parse(data, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrMismatched, err)
	}
	return &LoadResult{Config: cfg, File: path}, nil
}

func parse(data []byte, file string) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty document")
	}
	if err := checkKeys(doc.Content[0], configKeys, "", file); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := decodeStrictYAML(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.File = file
			verr.Line = lineOf(doc.Content[0], verr.Path)
		}
		return nil, err
	}
	return cfg, nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

// keySet describes the exact keys of a mapping; a nil value marks a scalar.
type keySet map[string]keySet

var configKeys = keySet{
	"debug": nil,
	"placement": {
		"auto_place":       nil,
		"auto_fit":         nil,
		"auto_raise":       nil,
		"center_placement": nil,
	},
	"status_bar": {
		"enabled":          nil,
		"background_color": nil,
		"foreground_color": nil,
		"clock": {
			"enabled":      nil,
			"show_day":     nil,
			"show_date":    nil,
			"show_seconds": nil,
		},
	},
	"corners": {
		"enabled": nil,
	},
	"appearance": {
		"border_width":          nil,
		"active_border_color":   nil,
		"inactive_border_color": nil,
		"background_color":      nil,
	},
}

func checkKeys(node *yaml.Node, want keySet, prefix string, file string) error {
	if node.Kind != yaml.MappingNode {
		return &ValidationError{Path: pathOrRoot(prefix), File: file, Line: node.Line, Err: errors.New("expected a mapping")}
	}

	seen := make(map[string]bool, len(want))
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		path := joinPath(prefix, key)
		sub, ok := want[key]
		if !ok {
			return &ValidationError{Path: path, File: file, Line: node.Content[i].Line, Err: errors.New("unknown key")}
		}
		if seen[key] {
			return &ValidationError{Path: path, File: file, Line: node.Content[i].Line, Err: errors.New("duplicate key")}
		}
		seen[key] = true
		if sub != nil {
			if err := checkKeys(node.Content[i+1], sub, path, file); err != nil {
				return err
			}
		}
	}

	var missing []string
	for key := range want {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &ValidationError{
			Path: joinPath(prefix, missing[0]),
			File: file,
			Line: node.Line,
			Err:  fmt.Errorf("missing key (%d missing in %s)", len(missing), pathOrRoot(prefix)),
		}
	}
	return nil
}

// lineOf returns the line of the value at a dotted path, or 0.
func lineOf(node *yaml.Node, path string) int {
	cur := node
	for _, part := range strings.Split(path, ".") {
		if cur == nil || cur.Kind != yaml.MappingNode {
			return 0
		}
		var next *yaml.Node
		for i := 0; i+1 < len(cur.Content); i += 2 {
			if cur.Content[i].Value == part {
				next = cur.Content[i+1]
				break
			}
		}
		cur = next
	}
	if cur == nil {
		return 0
	}
	return cur.Line
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func pathOrRoot(prefix string) string {
	if prefix == "" {
		return "(root)"
	}
	return prefix
}
