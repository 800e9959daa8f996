package moduletest

import (
	"github.com/artpar/adminkit/adapters/memory"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/modules"
)

// Services returns seeded in-memory services for every built-in service
// name, with relations declared.
func Services() map[string]resource.Service {
	seed := modules.Seed()
	out := make(map[string]resource.Service)
	for _, name := range modules.Services() {
		svc := memory.New(name)
		svc.Seed(seed[name]...)
		out[name] = svc
	}
	modules.Relate(out, func(owner, name string, rel resource.Relation) {
		out[owner].(*memory.Service).Relate(name, rel)
	})
	return out
}
