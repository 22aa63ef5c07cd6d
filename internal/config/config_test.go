package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wbrown/imgenhance"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFormats(t *testing.T) {
	cases := map[string]string{
		".yaml": "clip_limit: 3.5\ntile_grid: [4, 2]\nworkers: 2\n",
		".yml":  "clip: 3.5\ntiles: 4x2\njobs: 2\n",
		".toml": "clip_limit = 3.5\ntile_grid = [4, 2]\nworkers = 2\n",
		".json": `{"clip_limit": 3.5, "tile_grid": {"columns": 4, "rows": 2}, "workers": 2}`,
	}

	for ext, content := range cases {
		t.Run(ext, func(t *testing.T) {
			p, err := Load(writeConfig(t, "params"+ext, content))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if p.ClipLimit == nil || *p.ClipLimit != 3.5 {
				t.Errorf("clip limit mismatch: %v", p.ClipLimit)
			}
			if p.TileGrid == nil || *p.TileGrid != [2]int{4, 2} {
				t.Errorf("tile grid mismatch: %v", p.TileGrid)
			}
			if p.Workers == nil || *p.Workers != 2 {
				t.Errorf("workers mismatch: %v", p.Workers)
			}
		})
	}
}

func TestLoadPartial(t *testing.T) {
	p, err := Load(writeConfig(t, "params.yaml", "clip_limit: 1.5\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.TileGrid != nil || p.Workers != nil {
		t.Errorf("unset fields should stay nil: %+v", p)
	}

	e := imgenhance.NewEnhancer(p.Options()...)
	if e.ClipLimit != 1.5 {
		t.Errorf("clip limit option not applied: %v", e.ClipLimit)
	}
	if e.TileGrid != imgenhance.DefaultTileGrid {
		t.Errorf("tile grid should keep default, got %v", e.TileGrid)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	p, err := Load("  ")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Options()) != 0 {
		t.Error("empty path should produce no options")
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"unknown key", "p.yaml", "clip_limit: 2\ngamma: 1\n", "unknown key"},
		{"duplicate alias", "p.yaml", "clip: 2\nclip_limit: 3\n", "duplicates"},
		{"bad grid", "p.yaml", "tile_grid: [1, 2, 3]\n", "expected [columns, rows]"},
		{"bad number", "p.json", `{"clip_limit": "lots"}`, "expected a number"},
		{"fractional workers", "p.toml", "workers = 1.5\n", "expected an integer"},
		{"bad extension", "p.ini", "clip=2", "unsupported config extension"},
		{"bad yaml", "p.yaml", "clip_limit: [\n", "parse"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.file, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestParseGrid(t *testing.T) {
	cases := []struct {
		in      string
		want    [2]int
		wantErr bool
	}{
		{"8", [2]int{8, 8}, false},
		{"8x4", [2]int{8, 4}, false},
		{" 3 , 5 ", [2]int{3, 5}, false},
		{"2X2", [2]int{2, 2}, false},
		{"", [2]int{}, true},
		{"axb", [2]int{}, true},
		{"1x2x3", [2]int{}, true},
	}

	for _, tc := range cases {
		got, err := ParseGrid(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseGrid(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseGrid(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}
