package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	rootCmd.SetArgs(append(args, "--config", missing))
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("adminkit %s: %v\n%s", strings.Join(args, " "), err, errOut.String())
	}
	return out.String()
}

func TestRoutesJSON(t *testing.T) {
	out := run(t, "routes", "-o", "json", "--module", "Tasks")

	var doc struct {
		Kind string           `json:"kind"`
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if doc.Kind != "routes" {
		t.Errorf("kind = %s", doc.Kind)
	}
	names := map[string]bool{}
	for _, r := range doc.Data {
		if r["module"] != "Tasks" {
			t.Errorf("route of module %v listed", r["module"])
		}
		name, _ := r["name"].(string)
		names[name] = true
	}
	for _, want := range []string{"Tasks.crud.tasks", "Tasks.crud.tasks.view", "Tasks.crud.tasks.new", "Tasks.crud.tasks.edit"} {
		if !names[want] {
			t.Errorf("route %s missing", want)
		}
	}
}

func TestNavbarTable(t *testing.T) {
	out := run(t, "navbar", "-o", "table")
	for _, want := range []string{"Projects.crud.projects", "Settings.index"} {
		if !strings.Contains(out, want) {
			t.Errorf("navbar output missing %s:\n%s", want, out)
		}
	}
}

func TestLocales(t *testing.T) {
	out := run(t, "locales", "ru", "--prefix", "navigation", "-o", "yaml")
	if !strings.Contains(out, "Пользователи") {
		t.Errorf("ru navigation missing users:\n%s", out)
	}

	out = run(t, "locales", "--prefix", "")
	if strings.TrimSpace(out) != "en\nru" {
		t.Errorf("locales = %q", out)
	}
}

func TestValidate(t *testing.T) {
	out := run(t, "validate")
	if !strings.Contains(out, "5 modules") {
		t.Errorf("validate output:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	if out := run(t, "version"); !strings.HasPrefix(out, "adminkit dev") {
		t.Errorf("version = %q", out)
	}
}
