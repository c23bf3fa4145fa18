// Package topologyfile reads and writes line topologies as HCL, YAML or JSON
// documents and watches topology files for edits.
package topologyfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/linesim/internal/ctxlog"
	"github.com/specialistvlad/linesim/internal/model"
	"gopkg.in/yaml.v3"
)

// Format is a supported document encoding.
type Format string

const (
	FormatHCL  Format = "hcl"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return FormatHCL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported topology file extension %q", filepath.Ext(path))
	}
}

// ParseFormat accepts a format name or a media type.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(strings.Split(s, ";")[0])) {
	case "hcl", "application/hcl", "text/hcl":
		return FormatHCL, nil
	case "yaml", "yml", "application/yaml", "application/x-yaml", "text/yaml":
		return FormatYAML, nil
	case "json", "application/json", "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported topology format %q", s)
	}
}

// Decode parses src in format f. filename is used in diagnostics only.
func Decode(src []byte, filename string, f Format) (*model.Config, error) {
	switch f {
	case FormatHCL:
		return decodeHCL(src, filename)
	case FormatYAML:
		var cfg model.Config
		if err := yaml.Unmarshal(src, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode YAML topology %s: %w", filename, err)
		}
		return &cfg, nil
	case FormatJSON:
		var cfg model.Config
		if err := json.Unmarshal(src, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON topology %s: %w", filename, err)
		}
		return &cfg, nil
	default:
		return nil, fmt.Errorf("unsupported topology format %q", f)
	}
}

// Encode renders cfg in format f.
func Encode(cfg *model.Config, f Format) ([]byte, error) {
	switch f {
	case FormatHCL:
		return encodeHCL(cfg)
	case FormatYAML:
		return yaml.Marshal(cfg)
	case FormatJSON:
		return json.MarshalIndent(cfg, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported topology format %q", f)
	}
}

// Load reads the topology file at path.
func Load(ctx context.Context, path string) (*model.Config, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading topology file.", "path", path)

	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology file '%s': %w", path, err)
	}
	cfg, err := Decode(src, path, f)
	if err != nil {
		return nil, err
	}

	logger.Debug("Topology file loaded.", "path", path, "format", f, "buffers", len(cfg.Buffers), "stations", len(cfg.Stations), "edges", len(cfg.Edges))
	return cfg, nil
}

// Save writes cfg to path in the format implied by its extension.
func Save(ctx context.Context, path string, cfg *model.Config) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	out, err := Encode(cfg, f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write topology file '%s': %w", path, err)
	}
	ctxlog.FromContext(ctx).Debug("Topology file written.", "path", path, "format", f)
	return nil
}
