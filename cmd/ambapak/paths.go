package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const envOutDir = "AMBAPAK_OUT_DIR"

// artifactPrefix resolves the sidecar path prefix for a firmware file:
// a per-firmware directory under outDir (flag, then config, then the
// firmware's own directory), holding every artifact named after the
// firmware's base name.
func artifactPrefix(firmware, outDir string, cfg Config) (string, error) {
	base := trimExt(filepath.Base(firmware))
	if base == "" || base == "." {
		return "", fmt.Errorf("invalid firmware path: %q", firmware)
	}

	outDir = strings.TrimSpace(outDir)
	if outDir == "" {
		outDir = strings.TrimSpace(os.Getenv(envOutDir))
	}
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	if outDir == "" {
		outDir = filepath.Dir(firmware)
	}

	dir := filepath.Join(outDir, base)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, base), nil
}

// resolvePrefix turns a pack --artifacts argument into a sidecar prefix.
// A directory means "the prefix named after the directory inside it",
// matching what artifactPrefix produced; anything else is taken as the
// prefix itself.
func resolvePrefix(artifacts string) string {
	if stat, err := os.Stat(artifacts); err == nil && stat.IsDir() {
		clean := filepath.Clean(artifacts)
		return filepath.Join(clean, filepath.Base(clean))
	}
	return artifacts
}

func trimExt(name string) string {
	out := strings.TrimSuffix(name, filepath.Ext(name))
	if out == "" {
		return name
	}
	return out
}
