package bootstrap

import (
	"fmt"

	"github.com/artpar/adminkit/config"
	"github.com/artpar/adminkit/core/module"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/schema"
	"github.com/artpar/adminkit/modules"
)

// Definitions returns the built-in modules followed by the manifests found
// in cfg.ManifestsDir. Disabled modules are still returned; the loader
// skips them.
func Definitions(cfg config.ModulesConfig) ([]module.Definition, error) {
	catalog := render.NewCatalog()

	defs, err := modules.All(catalog)
	if err != nil {
		return nil, fmt.Errorf("load built-in modules: %w", err)
	}
	if cfg.ManifestsDir == "" {
		return defs, nil
	}

	manifests, err := schema.ParseManifestDir(cfg.ManifestsDir)
	if err != nil {
		return nil, fmt.Errorf("load manifests from %s: %w", cfg.ManifestsDir, err)
	}
	return append(defs, modules.Definitions(manifests, catalog)...), nil
}
