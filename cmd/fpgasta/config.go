package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"fpgasta/internal/device"
)

// staConfig is the optional sta.toml found at or above the working directory.
// Everything in it is a default; explicit flags win.
type staConfig struct {
	Analysis analysisSection `toml:"analysis"`
	Report   reportSection   `toml:"report"`
}

type analysisSection struct {
	Process string `toml:"process"`
	Corner  string `toml:"corner"`
	Jobs    int    `toml:"jobs"`
}

type reportSection struct {
	Format string `toml:"format"`
}

type configFile struct {
	Path   string
	Config staConfig
	Meta   toml.MetaData
}

func findStaToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "sta.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadStaConfig(startDir string) (*configFile, bool, error) {
	path, ok, err := findStaToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	var cfg staConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, true, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := validateStaConfig(path, &cfg, meta); err != nil {
		return nil, true, err
	}
	return &configFile{Path: path, Config: cfg, Meta: meta}, true, nil
}

func validateStaConfig(path string, cfg *staConfig, meta toml.MetaData) error {
	if meta.IsDefined("analysis", "process") {
		if _, err := device.ParseProcess(cfg.Analysis.Process); err != nil {
			return fmt.Errorf("%s: [analysis].process: %w", path, err)
		}
	}
	if meta.IsDefined("analysis", "corner") {
		if _, err := device.ParseCorner(cfg.Analysis.Corner); err != nil {
			return fmt.Errorf("%s: [analysis].corner: %w", path, err)
		}
	}
	if meta.IsDefined("analysis", "jobs") && cfg.Analysis.Jobs < 0 {
		return fmt.Errorf("%s: [analysis].jobs must not be negative", path)
	}
	if meta.IsDefined("report", "format") {
		if _, err := parseReportFormat(cfg.Report.Format); err != nil {
			return fmt.Errorf("%s: [report].format: %w", path, err)
		}
	}
	return nil
}

type reportFormat string

const (
	formatText    reportFormat = "text"
	formatCompact reportFormat = "compact"
	formatYAML    reportFormat = "yaml"
)

func parseReportFormat(s string) (reportFormat, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "text":
		return formatText, nil
	case "compact":
		return formatCompact, nil
	case "yaml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("invalid format %q (expected text|compact|yaml)", s)
	}
}
