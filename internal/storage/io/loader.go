package io

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/slok/questline/internal/model"
)

// DefaultPattern matches every definition file on any directory depth.
const DefaultPattern = "**/*.{yaml,yml}"

// DefinitionYAMLRepository loads quest definitions from YAML files.
type DefinitionYAMLRepository struct {
	fs      fs.FS
	pattern string
}

// NewDefinitionYAMLRepository creates a new YAML definition repository. An empty
// pattern uses DefaultPattern.
func NewDefinitionYAMLRepository(filesystem fs.FS, pattern string) *DefinitionYAMLRepository {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &DefinitionYAMLRepository{fs: filesystem, pattern: pattern}
}

// LoadDefinitions loads every definition file matching the pattern, sorted by path.
func (r *DefinitionYAMLRepository) LoadDefinitions(ctx context.Context) ([]model.Definition, error) {
	paths, err := doublestar.Glob(r.fs, r.pattern)
	if err != nil {
		return nil, fmt.Errorf("listing definition files: %w", err)
	}
	sort.Strings(paths)

	defs := make([]model.Definition, 0, len(paths))
	for _, p := range paths {
		def, err := r.GetDefinition(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		defs = append(defs, def)
	}

	return defs, nil
}

// GetDefinition loads a definition from a YAML file. When the file doesn't set
// the ID, the leading number of the file name is used (e.g. `1234_name.yaml`).
func (r *DefinitionYAMLRepository) GetDefinition(ctx context.Context, filePath string) (model.Definition, error) {
	data, err := fs.ReadFile(r.fs, filePath)
	if err != nil {
		return model.Definition{}, fmt.Errorf("reading definition file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Definition{}, ctx.Err()
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return model.Definition{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if def.ID == 0 {
		id, ok := idFromFileName(filePath)
		if !ok {
			return model.Definition{}, fmt.Errorf("invalid definition: id is required: %w", model.ErrNotValid)
		}
		def.ID = id
	}

	if err := def.validate(); err != nil {
		return model.Definition{}, fmt.Errorf("invalid definition: %w: %w", err, model.ErrNotValid)
	}

	return def.toModel(), nil
}

func idFromFileName(filePath string) (uint16, bool) {
	name := path.Base(filePath)
	end := strings.IndexFunc(name, func(r rune) bool { return r < '0' || r > '9' })
	if end <= 0 {
		return 0, false
	}
	id, err := strconv.ParseUint(name[:end], 10, 16)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint16(id), true
}
