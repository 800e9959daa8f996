// Package settings is the settings module. Each section is a standalone form
// page gated by its access check and ordered within its scope.
package settings

import (
	"context"
	"embed"
	"sort"
	"strings"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/module"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/router"
	"github.com/artpar/adminkit/core/schema"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Config identifies the module.
var Config = schema.ModuleConfig{Name: "Settings", RoutePrefix: "settings", LoadOrder: 30}

// Module is the settings module definition.
var Module = module.Definition{Config: Config, Init: Init}

// Service names.
const (
	CompanyService = "company"
	UsersService   = "users"
)

// CompanyRecord is the id of the single company settings record.
const CompanyRecord = "company"

// MetaRecord is the route meta key naming the record a section edits.
const MetaRecord = "record"

// Section is one settings page.
type Section struct {
	Name  string
	Scope string
	Order int
	Label string

	// Service names the resource service holding the section's record.
	Service string

	// Record is the id of the record the section edits.
	Record string

	// AccessCheck, when set, gates entry to the section.
	AccessCheck schema.AccessCheck

	Fields []schema.Field

	// wrap adapts the named service before the page binds to it.
	wrap func(resource.Service) resource.Service
}

// RouteName returns the section's route name.
func (s Section) RouteName() string {
	return Config.Name + "." + s.Scope + "." + s.Name
}

// AdminOnly is an access check admitting administrators.
func AdminOnly(_ context.Context, store authz.Store) (bool, error) {
	return store.User().Admin, nil
}

// SignedIn is an access check admitting any identified user.
func SignedIn(_ context.Context, store authz.Store) (bool, error) {
	return store.User().ID != "", nil
}

// DefaultColors are the work-time readiness colors of a new company.
var DefaultColors = []any{
	map[string]any{"start": 0, "end": 0.75, "color": "#ffb6c2"},
	map[string]any{"start": 0.76, "end": 1, "color": "#93ecda"},
	map[string]any{"start": 1, "end": 0, "color": "#3cd7b6", "isOverTime": true},
}

func float(v float64) *float64 { return &v }

// Sections returns the built-in sections.
func Sections() []Section {
	return []Section{
		{
			Name:        "general",
			Scope:       "company",
			Order:       0,
			Label:       "settings.general",
			Service:     CompanyService,
			Record:      CompanyRecord,
			AccessCheck: AdminOnly,
			Fields: []schema.Field{
				{Key: "timezone", Label: "settings.company_timezone", Type: schema.FieldTypeTimezone},
				{
					Key:         "work_time",
					Label:       "field.work_time",
					Type:        schema.FieldTypeNumber,
					Placeholder: "field.work_time",
					Tooltip:     "tooltip.work_time",
					Min:         float(0),
					Max:         float(24),
				},
				{
					Key:              "color",
					Label:            "settings.color_interval.label",
					Tooltip:          "tooltip.color_intervals",
					Default:          DefaultColors,
					DisplayPredicate: hasWorkTime,
				},
			},
		},
		{
			Name:        "account",
			Scope:       "user",
			Order:       0,
			Label:       "settings.account",
			Service:     UsersService,
			Record:      "me",
			AccessCheck: SignedIn,
			Fields: []schema.Field{
				{Key: "full_name", Label: "field.full_name", Type: schema.FieldTypeText, Required: true},
				{Key: "email", Label: "field.email", Type: schema.FieldTypeText, Required: true},
				{Key: "user_language", Label: "field.user_language", Type: schema.FieldTypeSelect, Options: []schema.Option{
					{Value: "en", Label: "languages.en"},
					{Value: "ru", Label: "languages.ru"},
				}},
				{Key: "password", Label: "field.password", Type: schema.FieldTypeInput, Placeholder: "settings.password-unchanged"},
			},
			wrap: func(svc resource.Service) resource.Service {
				return &Account{Service: svc, Fields: []string{"full_name", "email", "user_language", "password"}}
			},
		},
	}
}

func hasWorkTime(store authz.Store, _ resource.Item) bool {
	data, _ := store.Value("companyData")
	m, _ := data.(map[string]any)
	return render.Truthy(m["work_time"])
}

// Init registers every section and the settings index.
func Init(ctx *module.Context, _ *router.Router) error {
	sections := Sections()
	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].Scope != sections[j].Scope {
			return sections[i].Scope < sections[j].Scope
		}
		return sections[i].Order < sections[j].Order
	})

	var index []map[string]any
	for _, s := range sections {
		svc, err := ctx.Service("page", s.Service)
		if err != nil {
			return err
		}
		if s.wrap != nil {
			svc = s.wrap(svc)
		}

		page, err := ctx.CreatePage(s.Label, s.RouteName(), ctx.Path(s.Scope+"/"+s.Name), svc)
		if err != nil {
			return err
		}
		page.RouterConfig().Component = "SettingsSection"
		page.AddField(s.Fields...)
		page.AddToMetaProperties(schema.MetaLabel, s.Label)
		page.AddToMetaProperties(schema.MetaScope, s.Scope)
		page.AddToMetaProperties(schema.MetaOrder, s.Order)
		page.AddToMetaProperties(schema.MetaService, s.Service)
		page.AddToMetaProperties(schema.MetaFields, s.Fields)
		page.AddToMetaProperties(MetaRecord, s.Record)
		if s.AccessCheck != nil {
			page.AddToMetaProperties(schema.MetaAccessCheck, s.AccessCheck)
		}
		if err := ctx.AddRoute(page); err != nil {
			return err
		}

		index = append(index, map[string]any{
			"route": s.RouteName(),
			"label": s.Label,
			"scope": s.Scope,
			"order": s.Order,
		})
		log := ctx.Logger()
		log.Debug().Str("section", s.RouteName()).Msg("settings section registered")
	}

	name := ctx.RouteName("index")
	if err := ctx.AddRoute(schema.RouteConfig{
		Name:      name,
		Path:      strings.TrimSuffix(ctx.Path(""), "/"),
		Component: "Settings",
		Meta:      schema.Meta{schema.MetaTitle: "navigation.settings", "sections": index},
	}); err != nil {
		return err
	}
	if err := ctx.AddNavbarEntry(schema.NavbarEntry{Label: "navigation.settings", To: name, Icon: "icon-settings", Order: 100}); err != nil {
		return err
	}

	locales, err := module.LoadLocales(localeFS, "locales")
	if err != nil {
		return err
	}
	return ctx.AddLocalizationData(locales)
}
