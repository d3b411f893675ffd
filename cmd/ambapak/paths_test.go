package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestArtifactPrefix(t *testing.T) {
	t.Run("defaults next to the firmware", func(t *testing.T) {
		dir := t.TempDir()
		fw := filepath.Join(dir, "firmware.bin")

		got, err := artifactPrefix(fw, "", Config{})
		if err != nil {
			t.Fatalf("artifactPrefix: %v", err)
		}
		want := filepath.Join(dir, "firmware", "firmware")
		if got != want {
			t.Errorf("prefix = %q, want %q", got, want)
		}
		if _, err := os.Stat(filepath.Dir(got)); err != nil {
			t.Errorf("artifact directory not created: %v", err)
		}
	})

	t.Run("explicit out dir wins", func(t *testing.T) {
		out := t.TempDir()
		got, err := artifactPrefix("/nowhere/firmware.bin", out, Config{OutputDir: "/ignored"})
		if err != nil {
			t.Fatalf("artifactPrefix: %v", err)
		}
		if want := filepath.Join(out, "firmware", "firmware"); got != want {
			t.Errorf("prefix = %q, want %q", got, want)
		}
	})

	t.Run("env overrides config", func(t *testing.T) {
		envDir := filepath.Join(t.TempDir(), "artifacts")
		t.Setenv(envOutDir, envDir)

		got, err := artifactPrefix("/nowhere/firmware.bin", "", Config{OutputDir: "/ignored"})
		if err != nil {
			t.Fatalf("artifactPrefix: %v", err)
		}
		if want := filepath.Join(envDir, "firmware", "firmware"); got != want {
			t.Errorf("prefix = %q, want %q", got, want)
		}
	})

	t.Run("config dir as fallback", func(t *testing.T) {
		cfgDir := t.TempDir()
		got, err := artifactPrefix("/nowhere/firmware.bin", "", Config{OutputDir: cfgDir})
		if err != nil {
			t.Fatalf("artifactPrefix: %v", err)
		}
		if want := filepath.Join(cfgDir, "firmware", "firmware"); got != want {
			t.Errorf("prefix = %q, want %q", got, want)
		}
	})
}

func TestResolvePrefix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sub := filepath.Join(dir, "firmware")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	if got, want := resolvePrefix(sub), filepath.Join(sub, "firmware"); got != want {
		t.Errorf("resolvePrefix(dir) = %q, want %q", got, want)
	}

	plain := filepath.Join(dir, "firmware", "firmware")
	if got := resolvePrefix(plain); got != plain {
		t.Errorf("resolvePrefix(prefix) = %q, want %q", got, plain)
	}
}

func TestTrimExt(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"firmware.bin": "firmware",
		"firmware":     "firmware",
		".hidden":      ".hidden",
		"a.b.c":        "a.b",
	}
	for in, want := range cases {
		if got := trimExt(in); got != want {
			t.Errorf("trimExt(%q) = %q, want %q", in, got, want)
		}
	}
}
