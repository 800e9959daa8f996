package formatter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/schema"
)

func testRoutes() []schema.RouteConfig {
	return []schema.RouteConfig{
		{
			Name:      "Projects.crud.projects",
			Path:      "/projects/crud/projects",
			Component: "Grid",
			Module:    "Projects",
			Meta: schema.Meta{
				schema.MetaPermissions: "projects/view",
				schema.MetaTitle:       "Projects",
				schema.MetaTitleCallback: schema.TitleCallback(func(resource.Item) string {
					return "x"
				}),
			},
		},
		{
			Name:      "Projects.crud.projects.view",
			Path:      "/projects/crud/projects/view/:id",
			Component: "CrudView",
			Module:    "Projects",
		},
	}
}

func TestRegistry(t *testing.T) {
	if got := strings.Join(List(), ","); got != "json,table,yaml" {
		t.Errorf("List() = %s", got)
	}
	if _, ok := Get("csv"); ok {
		t.Error("csv should not be registered")
	}
	f, ok := Get("yaml")
	if !ok || f.Name() != "yaml" {
		t.Errorf("Get(yaml) = %v, %v", f, ok)
	}
}

// ===========================================
// Dataset Tests
// ===========================================

func TestRoutes_DropsPrivateMeta(t *testing.T) {
	data := Routes(testRoutes())
	if data.Kind != "routes" || len(data.Rows) != 2 {
		t.Fatalf("dataset = %+v", data)
	}
	meta := data.Rows[0]["meta"].(map[string]any)
	if _, ok := meta[schema.MetaTitleCallback]; ok {
		t.Error("titleCallback should be dropped")
	}
	if data.Rows[0]["permissions"] != "projects/view" {
		t.Errorf("permissions = %v", data.Rows[0]["permissions"])
	}
	if _, ok := data.Rows[1]["meta"]; ok {
		t.Error("route without meta should have no meta column")
	}
}

func TestLocale_Prefix(t *testing.T) {
	table := map[string]string{
		"projects.title":       "Projects",
		"projects.edit":        "Edit",
		"projectsx.other":      "no",
		"tasks.list.task_name": "Name",
	}
	data := Locale("en", table, "projects")
	if len(data.Rows) != 2 || data.Rows[0]["key"] != "projects.edit" {
		t.Errorf("rows = %v", data.Rows)
	}
	if data.Kind != "locale:en" {
		t.Errorf("Kind = %q", data.Kind)
	}
}

// ===========================================
// Formatter Tests
// ===========================================

func TestTable_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := (Table{}).Format(&buf, Routes(testRoutes()), Options{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[0], "NAME") || !strings.Contains(lines[0], "PERMISSIONS") {
		t.Errorf("header = %q", lines[0])
	}
	// empty permissions render as a dash
	if !strings.HasSuffix(strings.TrimSpace(lines[2]), "-") {
		t.Errorf("row = %q", lines[2])
	}
}

func TestTable_Options(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Columns: []string{"name"}, NoHeader: true, MaxWidth: 10}
	if err := (Table{}).Format(&buf, Routes(testRoutes()), opts); err != nil {
		t.Fatal(err)
	}
	if want := "Project...\nProject...\n"; buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	_ = (Table{}).Format(&buf, Navbar(nil), Options{})
	if buf.String() != "No navbar found.\n" {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "-"},
		{"", "-"},
		{true, "yes"},
		{20, "20"},
		{2.5, "2.5"},
		{float64(3), "3"},
		{[]string{"a"}, `["a"]`},
	}
	for _, tt := range tests {
		if got := cell(tt.in); got != tt.want {
			t.Errorf("cell(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	entries := []schema.NavbarEntry{{Label: "Projects", To: "Projects.crud.projects", Order: 1, Module: "Projects"}}
	if err := JSON.Format(&buf, Navbar(entries), Options{Compact: true}); err != nil {
		t.Fatal(err)
	}

	var out struct {
		Kind  string           `json:"kind"`
		Count int              `json:"count"`
		Data  []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Kind != "navbar" || out.Count != 1 || out.Data[0]["to"] != "Projects.crud.projects" {
		t.Errorf("decoded = %+v", out)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Error("compact output should be a single line")
	}

	buf.Reset()
	_ = JSON.Format(&buf, Routes(testRoutes()), Options{Columns: []string{"name"}})
	if strings.Contains(buf.String(), "titleCallback") || strings.Contains(buf.String(), `"path"`) {
		t.Errorf("unexpected fields:\n%s", buf.String())
	}

	buf.Reset()
	_ = JSON.Format(&buf, Routes(nil), Options{Compact: true})
	if !strings.Contains(buf.String(), `"data":[]`) {
		t.Errorf("empty output = %s", buf.String())
	}
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	table := map[string]string{"control.yes": "Yes", "control.no": "No"}
	if err := YAML.Format(&buf, Locale("en", table, ""), Options{}); err != nil {
		t.Fatal(err)
	}

	var out map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if out["kind"] != "locale:en" || out["count"] != 2 {
		t.Errorf("decoded = %v", out)
	}
}
