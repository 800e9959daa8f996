package render

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/artpar/adminkit/core/resource"
)

// DateTimeLayout is the long date layout used for created/updated stamps.
const DateTimeLayout = "January 2, 2006 — 15:04:05 (GMT-07:00)"

// DateLayout is the short date layout.
const DateLayout = "2006-01-02"

var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	DateLayout,
}

// ParseTime parses the formats resource services commonly return.
func ParseTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		for _, layout := range parseLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return t, true
			}
		}
	case int64:
		return time.Unix(val, 0).UTC(), true
	case float64:
		return time.Unix(int64(val), 0).UTC(), true
	}
	return time.Time{}, false
}

// DateTime formats timestamps in the company timezone taken from the
// "companyData" store value, falling back to env.Timezone and then UTC.
func DateTime(layout string) Renderer {
	return Func(func(value any, env Env) Node {
		t, ok := ParseTime(value)
		if !ok {
			return Plain.Render(value, env)
		}
		return Span(t.In(location(env)).Format(layout))
	})
}

func location(env Env) *time.Location {
	tz := env.Timezone
	if data, ok := env.Store().Value("companyData"); ok {
		if m, ok := data.(map[string]any); ok {
			if s, ok := m["timezone"].(string); ok && s != "" {
				tz = s
			}
		}
	}
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatDuration renders seconds as "Xh Ym" using localized unit suffixes.
func FormatDuration(seconds float64, env Env) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	return fmt.Sprintf("%d%s %d%s", h, unit(env, "time.h", "h"), m, unit(env, "time.m", "m"))
}

func unit(env Env, key, fallback string) string {
	s := env.Translate(key)
	if s == key {
		return fallback
	}
	return s
}

// Duration renders a number of seconds.
var Duration Renderer = Func(func(value any, env Env) Node {
	secs, _ := strconv.ParseFloat(resource.ToString(value), 64)
	return Span(FormatDuration(secs, env))
})

// YesNo renders truthy values as "control.yes", others as "control.no".
var YesNo Renderer = Func(func(value any, env Env) Node {
	if Truthy(value) {
		return Span(env.Translate("control.yes"))
	}
	return Span(env.Translate("control.no"))
})

// Truthy reports whether v is a true-ish scalar.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != "" && val != "0" && !strings.EqualFold(val, "false")
	default:
		s := resource.ToString(v)
		return s != "" && s != "0"
	}
}

// Translate renders Prefix + lower-cased value as a translation key, reading
// Path inside object values, e.g. priority {"name": "High"} with prefix
// "tasks.priority." renders "tasks.priority.high".
type Translate struct {
	Prefix string
	Path   string
}

// Render implements Renderer.
func (r Translate) Render(value any, env Env) Node {
	if r.Path != "" {
		value = lookup(value, r.Path)
	}
	if value == nil {
		return Empty
	}
	return Span(env.Translate(r.Prefix + strings.ToLower(resource.ToString(value))))
}

// Link renders a link to a named route. Route returns the route name at
// render time, which lets modules bind to routes published by other modules
// after this renderer was built.
type Link struct {
	Route func() string

	// Param is the path inside the value used as the :id param; defaults to "id".
	Param string

	// Label is the path inside the value used as link text.
	Label string

	// Permission, when set, renders plain text for users without it.
	Permission string

	// AdminOnly renders plain text for non-admin users.
	AdminOnly bool
}

// Render implements Renderer.
func (r Link) Render(value any, env Env) Node {
	if value == nil {
		return Empty
	}
	label := resource.ToString(lookup(value, r.Label))
	if r.Label == "" {
		label = resource.ToString(value)
	}

	if r.AdminOnly && !env.Store().User().Admin {
		return Span(label)
	}
	if r.Permission != "" && !env.Store().Can(r.Permission) {
		return Span(label)
	}

	name := ""
	if r.Route != nil {
		name = r.Route()
	}
	if name == "" || env.Links == nil {
		return Span(label)
	}

	param := r.Param
	if param == "" {
		param = "id"
	}
	href, err := env.Links.Resolve(name, map[string]string{"id": resource.ToString(lookup(value, param))})
	if err != nil {
		return Span(label)
	}
	return Node{Tag: "a", Text: label, Attrs: map[string]string{"href": href, "data-route": name}}
}

// StaticRoute returns a Route func for a fixed name.
func StaticRoute(name string) func() string {
	return func() string { return name }
}

// HTML renders sanitized rich text.
type HTML struct {
	policy *bluemonday.Policy
}

// NewHTML returns an HTML renderer using the user-generated-content policy.
func NewHTML() *HTML {
	return &HTML{policy: bluemonday.UGCPolicy()}
}

// Render implements Renderer.
func (r *HTML) Render(value any, _ Env) Node {
	s := resource.ToString(value)
	if s == "" {
		return Empty
	}
	return Node{
		Tag:   "div",
		Attrs: map[string]string{"class": "ql-editor"},
		HTML:  r.policy.Sanitize(s),
	}
}

// Source renders an external URL as a link and anything else as the
// "tasks.source.internal" label.
var Source Renderer = Func(func(value any, env Env) Node {
	s := resource.ToString(value)
	if s != "" && !strings.EqualFold(s, "url") {
		return Node{Tag: "a", Text: s, Attrs: map[string]string{"href": s, "target": "_blank"}}
	}
	return Span(env.Translate("tasks.source.internal"))
})

// Count renders a pluralized count of Path (default the value itself).
type Count struct {
	Key  string
	Path string
}

// Render implements Renderer.
func (r Count) Render(value any, env Env) Node {
	v := value
	if r.Path != "" {
		v, _ = resource.Lookup(env.Values, r.Path)
	}
	n, _ := strconv.Atoi(resource.ToString(v))
	return Span(env.TranslateCount(r.Key, n))
}

// Avatars renders a list of users as initials with the full name as title.
var Avatars Renderer = Func(func(value any, env Env) Node {
	users, ok := value.([]any)
	if !ok || len(users) == 0 {
		return Empty
	}
	row := Node{Tag: "div", Attrs: map[string]string{"class": "initials-row"}}
	for _, u := range users {
		name := resource.ToString(lookup(u, "full_name"))
		row.Children = append(row.Children, Node{
			Tag:   "span",
			Text:  Initials(name),
			Attrs: map[string]string{"class": "avatar", "title": name},
		})
	}
	return row
})

// Initials returns the upper-cased first letters of the first two words.
func Initials(name string) string {
	var b strings.Builder
	for _, w := range strings.Fields(name) {
		r := []rune(w)
		b.WriteString(strings.ToUpper(string(r[0])))
		if b.Len() >= 2 {
			break
		}
	}
	return b.String()
}

// Workers renders a per-user time breakdown as a table. The value is a map
// or list of {user_id, full_name, task_id, task_name, duration}.
type Workers struct {
	Users func() string
	Tasks func() string
}

// Render implements Renderer.
func (r Workers) Render(value any, env Env) Node {
	var rows []any
	switch v := value.(type) {
	case []any:
		rows = v
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, v[k])
		}
	default:
		return Empty
	}

	table := Node{Tag: "table"}
	for _, row := range rows {
		tr := Node{Tag: "tr"}
		user := Link{Route: r.Users, Param: "user_id", Label: "full_name", AdminOnly: true}
		tr.Children = append(tr.Children, Node{Tag: "td", Children: []Node{user.Render(row, env)}})
		if r.Tasks != nil {
			task := Link{Route: r.Tasks, Param: "task_id", Label: "task_name"}
			tr.Children = append(tr.Children, Node{Tag: "td", Children: []Node{task.Render(row, env)}})
		}
		secs, _ := strconv.ParseFloat(resource.ToString(lookup(row, "duration")), 64)
		tr.Children = append(tr.Children, Node{Tag: "td", Text: FormatDuration(secs, env)})
		table.Children = append(table.Children, tr)
	}
	return table
}

func lookup(v any, path string) any {
	if path == "" {
		return v
	}
	m, ok := v.(map[string]any)
	if !ok {
		if item, ok := v.(resource.Item); ok {
			m = item
		} else {
			return nil
		}
	}
	out, _ := resource.Lookup(m, path)
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
