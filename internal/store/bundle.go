package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"boardr/internal/board"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the bundle format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// bundle is the portable export of one project. Board carries the same
// shape as the stored document, held generically so it survives YAML.
type bundle struct {
	Meta  ProjectMeta `json:"meta" yaml:"meta"`
	Board any         `json:"board" yaml:"board"`
}

// Export renders a project and its board as a bundle.
func Export(ctx context.Context, p Provider, id string, f Format) ([]byte, error) {
	meta, doc, err := p.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := board.Encode(doc)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	bu := bundle{Meta: meta, Board: generic}
	switch f {
	case FormatYAML:
		return yaml.Marshal(bu)
	case FormatJSON, "":
		return json.MarshalIndent(bu, "", "  ")
	}
	return nil, fmt.Errorf("unknown export format %q", f)
}

// Import creates a new project from a bundle. The project gets a fresh id;
// the bundle's name is kept.
func Import(ctx context.Context, p Provider, data []byte, f Format) (ProjectMeta, error) {
	var bu bundle
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &bu); err != nil {
			return ProjectMeta{}, fmt.Errorf("import bundle: %w", err)
		}
	case FormatJSON, "":
		if err := json.Unmarshal(data, &bu); err != nil {
			return ProjectMeta{}, fmt.Errorf("import bundle: %w", err)
		}
	default:
		return ProjectMeta{}, fmt.Errorf("unknown import format %q", f)
	}
	if bu.Board == nil {
		return ProjectMeta{}, fmt.Errorf("import bundle: no board")
	}
	raw, err := json.Marshal(bu.Board)
	if err != nil {
		return ProjectMeta{}, fmt.Errorf("import bundle: %w", err)
	}
	doc, err := board.Decode(raw)
	if err != nil {
		return ProjectMeta{}, fmt.Errorf("import bundle: %w", err)
	}
	name := bu.Meta.Name
	if name == "" {
		name = "Imported"
	}
	meta, err := p.Create(ctx, name)
	if err != nil {
		return ProjectMeta{}, err
	}
	if err := p.Save(ctx, meta.ID, doc); err != nil {
		return ProjectMeta{}, err
	}
	return meta, nil
}
