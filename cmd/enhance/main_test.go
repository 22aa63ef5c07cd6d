package main

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wbrown/imgenhance"
	"github.com/wbrown/imgenhance/imageutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd, _ := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEnhanceCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	src := imageutil.CreateNoiseImage(48, 32, 7)
	if err := imageutil.SaveImage(src.RGBA, in); err != nil {
		t.Fatalf("save input: %v", err)
	}

	stdout, err := execute(t, "--input", in, "--output", out, "--tile-grid", "4x4")
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if !strings.Contains(stdout, out) {
		t.Errorf("expected output path in %q", stdout)
	}

	got, err := imageutil.LoadImage(out)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	if got.Width() != 48 || got.Height() != 32 {
		t.Errorf("expected 48x32, got %dx%d", got.Width(), got.Height())
	}
}

func TestEnhanceCommandMaxSize(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.bmp")
	if err := imageutil.SaveImage(imageutil.CreateGradientImage(100, 50).RGBA, in); err != nil {
		t.Fatalf("save input: %v", err)
	}

	if _, err := execute(t, "-i", in, "-o", out, "--max-size", "40", "--interpolation", "linear"); err != nil {
		t.Fatalf("enhance: %v", err)
	}
	got, err := imageutil.LoadImage(out)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	if got.Width() != 40 || got.Height() != 20 {
		t.Errorf("expected 40x20, got %dx%d", got.Width(), got.Height())
	}
}

func TestEnhanceCommandErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	if err := imageutil.SaveImage(imageutil.CreateGradientImage(8, 8).RGBA, in); err != nil {
		t.Fatalf("save input: %v", err)
	}
	out := filepath.Join(dir, "out.png")

	if _, err := execute(t, "-i", in, "-o", out, "--clip-limit", "0"); !errors.Is(err, imgenhance.ErrInvalidParameter) {
		t.Errorf("clip limit 0: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := execute(t, "-i", filepath.Join(dir, "missing.png"), "-o", out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing input: expected os.ErrNotExist, got %v", err)
	}
	if _, err := execute(t, "-i", in); err == nil {
		t.Error("missing --output should fail")
	}
	if _, err := execute(t, "-i", in, "-o", out, "--tile-grid", "eight"); err == nil {
		t.Error("bad tile grid should fail")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no output should be written when the command fails")
	}
}

func TestBuildEnhancerPrecedence(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "params.yaml")
	content := "clip_limit: 3\ntile_grid: 4x2\nworkers: 2\n"
	if err := os.WriteFile(cfg, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd, opts := newRootCmd()
	if err := cmd.ParseFlags([]string{"--config", cfg, "--clip-limit", "1.5"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	e, err := buildEnhancer(cmd, opts)
	if err != nil {
		t.Fatalf("buildEnhancer: %v", err)
	}
	if e.ClipLimit != 1.5 {
		t.Errorf("flag should override config clip limit, got %v", e.ClipLimit)
	}
	if e.TileGrid != (image.Point{X: 4, Y: 2}) {
		t.Errorf("config tile grid should apply, got %v", e.TileGrid)
	}
	if e.Workers != 2 {
		t.Errorf("config workers should apply, got %d", e.Workers)
	}
}

func TestBuildEnhancerDefaults(t *testing.T) {
	cmd, opts := newRootCmd()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	e, err := buildEnhancer(cmd, opts)
	if err != nil {
		t.Fatalf("buildEnhancer: %v", err)
	}
	if e.ClipLimit != imgenhance.DefaultClipLimit || e.TileGrid != imgenhance.DefaultTileGrid {
		t.Errorf("expected defaults, got clip %v grid %v", e.ClipLimit, e.TileGrid)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("expected %q, got %q", version, out)
	}
}

func TestRunReportsErrorOnce(t *testing.T) {
	cmd, _ := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"-i", filepath.Join(t.TempDir(), "missing.png"), "-o", "out.png"})

	if code := run(cmd, &stderr); code != 1 {
		t.Errorf("expected exit status 1, got %d", code)
	}
	if n := strings.Count(stderr.String(), "missing.png"); n != 1 {
		t.Errorf("expected the error reported once, got %d times in %q", n, stderr.String())
	}
}

func TestRunSuccess(t *testing.T) {
	cmd, _ := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if code := run(cmd, &out); code != 0 {
		t.Errorf("expected exit status 0, got %d", code)
	}
}
