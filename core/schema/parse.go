package schema

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseManifestFile parses a module manifest from a YAML file.
func ParseManifestFile(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read file %s: %w", path, err)
	}

	return ParseManifest(data)
}

// ParseManifest parses a module manifest from YAML bytes.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse yaml: %w", err)
	}

	if err := ValidateManifest(m); err != nil {
		return Manifest{}, fmt.Errorf("validate module %q: %w", m.Name, err)
	}

	return m, nil
}

// ParseManifestDir parses every *.yaml / *.yml manifest under dir,
// including subdirectories, in lexical path order.
func ParseManifestDir(dir string) ([]Manifest, error) {
	return ParseManifestFS(os.DirFS(dir), ".")
}

// ParseManifestFS is ParseManifestDir over an fs.FS, used for embedded
// manifests.
func ParseManifestFS(fsys fs.FS, root string) ([]Manifest, error) {
	var paths []string
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", root, err)
	}
	sort.Strings(paths)

	manifests := make([]Manifest, 0, len(paths))
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read file %s: %w", path, err)
		}
		m, err := ParseManifest(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// ValidateManifest checks a manifest for structural errors.
func ValidateManifest(m Manifest) error {
	var errs []string

	if m.Name == "" {
		errs = append(errs, "module name is required")
	} else if !isValidIdentifier(m.Name) {
		errs = append(errs, fmt.Sprintf("module name %q is not a valid identifier", m.Name))
	}

	if m.RoutePrefix == "" {
		errs = append(errs, "route_prefix is required")
	}

	bases := map[string]bool{}
	for i, c := range m.Crud {
		if c.Base == "" {
			errs = append(errs, fmt.Sprintf("crud[%d]: base is required", i))
		}
		if c.Service == "" {
			errs = append(errs, fmt.Sprintf("crud[%d]: service is required", i))
		}
		if bases[c.Base] {
			errs = append(errs, fmt.Sprintf("crud[%d]: duplicate base %q", i, c.Base))
		}
		bases[c.Base] = true
		for kind := range c.Permissions {
			if kind != KindView && kind != KindNew && kind != KindEdit {
				errs = append(errs, fmt.Sprintf("crud %q: unknown page %q in permissions", c.Base, kind))
			}
		}
		errs = append(errs, validateFields("crud "+c.Base, c.ViewFields)...)
		errs = append(errs, validateFields("crud "+c.Base, c.FormFields)...)
	}

	grids := map[string]bool{}
	for i, g := range m.Grid {
		if g.Base == "" {
			errs = append(errs, fmt.Sprintf("grid[%d]: base is required", i))
		}
		if g.Service == "" {
			errs = append(errs, fmt.Sprintf("grid[%d]: service is required", i))
		}
		if grids[g.Base] {
			errs = append(errs, fmt.Sprintf("grid[%d]: duplicate base %q", i, g.Base))
		}
		grids[g.Base] = true
		for _, c := range g.Columns {
			if c.Key == "" {
				errs = append(errs, fmt.Sprintf("grid %q: column key is required", g.Base))
			}
		}
		for _, f := range g.Filters {
			if f.ReferenceKey == "" {
				errs = append(errs, fmt.Sprintf("grid %q: filter reference_key is required", g.Base))
			}
		}
		for _, a := range append(append([]ActionSpec(nil), g.Actions...), g.PageControls...) {
			if a.Handler == HandlerNew && !bases[g.Base] {
				errs = append(errs, fmt.Sprintf("grid %q: action %q uses new handler without crud bundle", g.Base, a.Title))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func validateFields(owner string, fields []FieldSpec) []string {
	var errs []string
	seen := map[string]bool{}
	for _, f := range fields {
		if f.Key == "" {
			errs = append(errs, fmt.Sprintf("%s: field key is required", owner))
			continue
		}
		if seen[f.Key] {
			errs = append(errs, fmt.Sprintf("%s: duplicate field %q", owner, f.Key))
		}
		seen[f.Key] = true
		if f.Type == FieldTypeSelect && len(f.Options) == 0 {
			errs = append(errs, fmt.Sprintf("%s: field %q: select type requires options", owner, f.Key))
		}
		if f.Type == FieldTypeResourceSelect && f.Service == "" {
			errs = append(errs, fmt.Sprintf("%s: field %q: resource-select type requires service", owner, f.Key))
		}
	}
	return errs
}

// isValidIdentifier checks if a string is a valid module identifier.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		if i == 0 {
			if !isLetter(c) && c != '_' {
				return false
			}
		} else {
			if !isLetter(c) && !isDigit(c) && c != '_' {
				return false
			}
		}
	}

	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
