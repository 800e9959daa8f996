// Package modules lists the built-in modules together with the relations
// and demo records of the services they bind to.
package modules

import (
	"embed"
	"sort"

	"github.com/artpar/adminkit/core/module"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/schema"
	"github.com/artpar/adminkit/modules/projects"
	"github.com/artpar/adminkit/modules/settings"
	"github.com/artpar/adminkit/modules/tasks"
	"github.com/artpar/adminkit/modules/users"
)

//go:embed manifests/*.yaml
var manifestFS embed.FS

// Builtin returns the compiled-in modules.
func Builtin() []module.Definition {
	return []module.Definition{users.Module, projects.Module, tasks.Module, settings.Module}
}

// Manifests parses the embedded declarative modules.
func Manifests() ([]schema.Manifest, error) {
	return schema.ParseManifestFS(manifestFS, "manifests")
}

// Definitions compiles manifests into module definitions.
func Definitions(manifests []schema.Manifest, catalog *render.Catalog) []module.Definition {
	out := make([]module.Definition, len(manifests))
	for i, m := range manifests {
		out[i] = module.Definition{Config: m.Config(), Init: module.FromManifest(m, catalog)}
	}
	return out
}

// All returns the built-in and embedded manifest modules.
func All(catalog *render.Catalog) ([]module.Definition, error) {
	manifests, err := Manifests()
	if err != nil {
		return nil, err
	}
	return append(Builtin(), Definitions(manifests, catalog)...), nil
}

// Service names bound by the built-in modules.
const (
	UsersService         = users.Service
	ProjectsService      = projects.Service
	TasksService         = tasks.Service
	PrioritiesService    = "priorities"
	CompanyService       = settings.CompanyService
	TimeIntervalsService = "time-intervals"
)

// Services returns every service name, sorted.
func Services() []string {
	names := []string{UsersService, ProjectsService, TasksService, PrioritiesService, CompanyService, TimeIntervalsService}
	sort.Strings(names)
	return names
}

// Relation declares an eager-loadable relation between named services.
type Relation struct {
	Service    string
	Name       string
	ForeignKey string
	Target     string
	Many       bool
}

// Relations are the relations the built-in screens load.
var Relations = []Relation{
	{Service: ProjectsService, Name: "users", ForeignKey: "user_ids", Target: UsersService, Many: true},
	{Service: ProjectsService, Name: "tasks", ForeignKey: "project_id", Target: TasksService},
	{Service: TasksService, Name: "project", ForeignKey: "project_id", Target: ProjectsService},
	{Service: TasksService, Name: "user", ForeignKey: "user_id", Target: UsersService},
	{Service: TasksService, Name: "priority", ForeignKey: "priority_id", Target: PrioritiesService},
	{Service: TimeIntervalsService, Name: "task", ForeignKey: "task_id", Target: TasksService},
	{Service: TimeIntervalsService, Name: "user", ForeignKey: "user_id", Target: UsersService},
}

// Relate calls declare for every relation whose service and target are
// both present in services. owner is the name of the declaring service.
func Relate(services map[string]resource.Service, declare func(owner, name string, rel resource.Relation)) {
	for _, r := range Relations {
		if _, ok := services[r.Service]; !ok {
			continue
		}
		target, ok := services[r.Target]
		if !ok {
			continue
		}
		declare(r.Service, r.Name, resource.Relation{ForeignKey: r.ForeignKey, Target: target, Many: r.Many})
	}
}

// Seed returns demo records keyed by service name.
func Seed() map[string][]resource.Item {
	return map[string][]resource.Item{
		UsersService: {
			{"id": "1", "full_name": "Admin", "email": "admin@example.com", "is_admin": true, "active": 1, "user_language": "en", "created_at": "2024-01-10T09:00:00Z"},
			{"id": "2", "full_name": "Ann Lee", "email": "ann@example.com", "is_admin": false, "active": 1, "user_language": "en", "created_at": "2024-02-01T09:00:00Z"},
			{"id": "3", "full_name": "Ivan Petrov", "email": "ivan@example.com", "is_admin": false, "active": 0, "user_language": "ru", "created_at": "2024-03-15T09:00:00Z"},
		},
		PrioritiesService: {
			{"id": "1", "name": "Low"},
			{"id": "2", "name": "Normal"},
			{"id": "3", "name": "High"},
		},
		ProjectsService: {
			{
				"id": "1", "name": "Apollo", "description": "Launch site", "user_ids": []any{"1", "2"},
				"created_at": "2024-01-12T10:00:00Z", "updated_at": "2024-04-01T10:00:00Z", "total_spent_time": 12600,
				"workers": []any{
					map[string]any{"user_id": "2", "full_name": "Ann Lee", "task_id": "1", "task_name": "Write docs", "duration": 9000},
					map[string]any{"user_id": "1", "full_name": "Admin", "task_id": "2", "task_name": "Fix bug", "duration": 3600},
				},
			},
			{"id": "2", "name": "Gemini", "description": "Orbit tests", "user_ids": []any{"3"}, "created_at": "2024-02-20T10:00:00Z", "updated_at": "2024-02-20T10:00:00Z", "total_spent_time": 0},
		},
		TasksService: {
			{
				"id": "1", "task_name": "Write docs", "project_id": "1", "user_id": "2", "priority_id": "2", "active": 1,
				"description": "<p>Describe the <b>launch</b> checklist</p>", "url": "url", "created_at": "2024-03-01T08:00:00Z", "total_spent_time": 9000,
				"workers": []any{map[string]any{"user_id": "2", "full_name": "Ann Lee", "duration": 9000}},
			},
			{"id": "2", "task_name": "Fix bug", "project_id": "1", "user_id": "1", "priority_id": "3", "active": 1, "url": "https://tracker.example.com/issues/42", "integration": "tracker", "created_at": "2024-03-02T08:00:00Z", "total_spent_time": 3600},
			{"id": "3", "task_name": "Plan orbit", "project_id": "2", "user_id": "3", "priority_id": "1", "active": 0, "created_at": "2024-03-05T08:00:00Z", "total_spent_time": 0},
		},
		CompanyService: {
			{"id": settings.CompanyRecord, "timezone": "UTC", "work_time": 8, "color": settings.DefaultColors},
		},
		TimeIntervalsService: {
			{"id": "1", "task_id": "1", "user_id": "2", "start_at": "2024-03-04T09:00:00Z", "end_at": "2024-03-04T11:30:00Z", "duration": 9000},
			{"id": "2", "task_id": "2", "user_id": "1", "start_at": "2024-03-05T13:00:00Z", "end_at": "2024-03-05T14:00:00Z", "duration": 3600},
		},
	}
}
