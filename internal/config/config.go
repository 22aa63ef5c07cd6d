// Package config loads enhancement parameters from YAML, TOML or JSON
// files.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/wbrown/imgenhance"
)

// Params holds the parameters found in a config file. Nil fields were not
// present in the file.
type Params struct {
	ClipLimit *float64
	TileGrid  *[2]int // columns, rows
	Workers   *int
}

var keyMap = map[string]string{
	"clip_limit":     "clip_limit",
	"clip":           "clip_limit",
	"cliplimit":      "clip_limit",
	"tile_grid":      "tile_grid",
	"tile_grid_size": "tile_grid",
	"tiles":          "tile_grid",
	"workers":        "workers",
	"jobs":           "workers",
}

// Load reads the parameters from path. The format is chosen by extension:
// .yaml/.yml, .toml or .json. An empty path yields empty Params.
func Load(path string) (Params, error) {
	var p Params
	path = strings.TrimSpace(path)
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var raw map[string]any
	switch ext {
	case ".yaml", ".yml":
		if decodeErr := yaml.Unmarshal(data, &raw); decodeErr != nil {
			return p, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	case ".toml":
		if decodeErr := toml.Unmarshal(data, &raw); decodeErr != nil {
			return p, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	case ".json":
		if decodeErr := json.Unmarshal(data, &raw); decodeErr != nil {
			return p, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	default:
		return p, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if raw == nil {
		return p, nil
	}
	decoded, err := decodeParams(raw)
	if err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	return decoded, nil
}

func decodeParams(raw map[string]any) (Params, error) {
	var p Params
	seen := make(map[string]string)

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "-", "_"))
		canonical, ok := keyMap[norm]
		if !ok {
			return p, fmt.Errorf("unknown key %q", key)
		}
		if prev, dup := seen[canonical]; dup {
			return p, fmt.Errorf("%q duplicates %q", key, prev)
		}
		seen[canonical] = key

		value := raw[key]
		switch canonical {
		case "clip_limit":
			f, err := toFloat(value)
			if err != nil {
				return p, fmt.Errorf("%s: %w", key, err)
			}
			p.ClipLimit = &f
		case "tile_grid":
			grid, err := toGrid(value)
			if err != nil {
				return p, fmt.Errorf("%s: %w", key, err)
			}
			p.TileGrid = &grid
		case "workers":
			n, err := toInt(value)
			if err != nil {
				return p, fmt.Errorf("%s: %w", key, err)
			}
			p.Workers = &n
		}
	}
	return p, nil
}

// Options converts the fields that are set into Enhancer options.
func (p Params) Options() []imgenhance.EnhancerOption {
	var opts []imgenhance.EnhancerOption
	if p.ClipLimit != nil {
		opts = append(opts, imgenhance.WithClipLimit(*p.ClipLimit))
	}
	if p.TileGrid != nil {
		opts = append(opts, imgenhance.WithTileGrid(p.TileGrid[0], p.TileGrid[1]))
	}
	if p.Workers != nil {
		opts = append(opts, imgenhance.WithWorkers(*p.Workers))
	}
	return opts
}

// ParseGrid parses a tile grid written as "8", "8x8" or "8,4".
func ParseGrid(s string) ([2]int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == 'x' || r == ',' || r == '*'
	})
	switch len(parts) {
	case 1:
		n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return [2]int{}, fmt.Errorf("invalid tile grid %q", s)
		}
		return [2]int{n, n}, nil
	case 2:
		cols, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		rows, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil {
			return [2]int{}, fmt.Errorf("invalid tile grid %q", s)
		}
		return [2]int{cols, rows}, nil
	default:
		return [2]int{}, fmt.Errorf("invalid tile grid %q", s)
	}
}

func toGrid(v any) ([2]int, error) {
	switch val := v.(type) {
	case string:
		return ParseGrid(val)
	case []any:
		if len(val) != 2 {
			return [2]int{}, fmt.Errorf("expected [columns, rows], got %d values", len(val))
		}
		cols, err := toInt(val[0])
		if err != nil {
			return [2]int{}, err
		}
		rows, err := toInt(val[1])
		if err != nil {
			return [2]int{}, err
		}
		return [2]int{cols, rows}, nil
	case map[string]any:
		cols, err := toInt(firstOf(val, "columns", "cols", "x"))
		if err != nil {
			return [2]int{}, fmt.Errorf("columns: %w", err)
		}
		rows, err := toInt(firstOf(val, "rows", "y"))
		if err != nil {
			return [2]int{}, fmt.Errorf("rows: %w", err)
		}
		return [2]int{cols, rows}, nil
	default:
		n, err := toInt(v)
		if err != nil {
			return [2]int{}, err
		}
		return [2]int{n, n}, nil
	}
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func toFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", val)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func toInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint64:
		return int(val), nil
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("expected an integer, got %v", val)
		}
		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", val)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}
