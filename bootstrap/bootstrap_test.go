package bootstrap_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/artpar/adminkit/adapters/hasher"
	"github.com/artpar/adminkit/bootstrap"
	"github.com/artpar/adminkit/config"
	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/modules"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	cfg.Storage.Driver = config.DriverMemory
	cfg.Storage.Seed = true
	return cfg
}

func newApp(t *testing.T, cfg *config.Config) *bootstrap.App {
	t.Helper()
	app, err := bootstrap.New(context.Background(), cfg, bootstrap.Options{Hasher: hasher.Fake{}, Output: io.Discard})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { app.Shutdown() })
	return app
}

func TestNew_ComposesBuiltinModules(t *testing.T) {
	app := newApp(t, testConfig(t))

	var names []string
	for _, m := range app.Composed.Modules {
		names = append(names, m.Name)
	}
	if len(names) != 5 {
		t.Fatalf("modules = %v, want 5", names)
	}
	for _, route := range []string{"Users.crud.users", "Tasks.crud.tasks.view", "Settings.user.account", "TimeIntervals.crud.time-intervals"} {
		if _, ok := app.Composed.Table.Lookup(route); !ok {
			t.Errorf("route %s missing", route)
		}
	}
	if !app.Composed.I18n.Frozen() {
		t.Error("localization store must be frozen after composition")
	}
}

func TestNew_DisabledModules(t *testing.T) {
	cfg := testConfig(t)
	cfg.Modules.Disabled = []string{"TimeIntervals", "Settings"}
	app := newApp(t, cfg)

	if len(app.Composed.Modules) != 3 {
		t.Errorf("loaded %d modules, want 3", len(app.Composed.Modules))
	}
	if _, ok := app.Composed.Table.Lookup("Settings.index"); ok {
		t.Error("disabled settings module registered routes")
	}
}

func TestNew_ManifestsDir(t *testing.T) {
	dir := t.TempDir()
	manifest := `name: Reports
route_prefix: reports
load_order: 50
navbar:
  - label: navigation.reports
    to: Projects.crud.projects
    order: 50
locales:
  en:
    navigation:
      reports: Reports
`
	if err := os.WriteFile(filepath.Join(dir, "reports.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t)
	cfg.Modules.ManifestsDir = dir
	app := newApp(t, cfg)

	if got := app.Composed.I18n.T("en", "navigation.reports"); got != "Reports" {
		t.Errorf("navigation.reports = %s", got)
	}
	var found bool
	for _, e := range app.Composed.Navbar {
		if e.Module == "Reports" {
			found = true
		}
	}
	if !found {
		t.Errorf("navbar = %+v", app.Composed.Navbar)
	}
}

func TestNew_UsersPasswordsHashed(t *testing.T) {
	app := newApp(t, testConfig(t))
	ctx := context.Background()

	users := app.Storage.Services[modules.UsersService]
	saved, err := users.Save(ctx, map[string]any{"id": "9", "full_name": "New", "password": "s3cret"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := saved["password"]; ok {
		t.Error("saved user exposes password")
	}

	svc, ok := users.(*hasher.Service)
	if !ok {
		t.Fatalf("users service is %T, want *hasher.Service", users)
	}
	if ok, err := svc.Verify(ctx, "9", "password", "s3cret"); err != nil || !ok {
		t.Errorf("Verify() = %v, %v", ok, err)
	}
}

func TestNew_MetricsEndpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = true
	app := newApp(t, cfg)

	w := httptest.NewRecorder()
	app.HTTP.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/routes", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("routes status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	app.HTTP.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, cfg.Metrics.Path, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	body := w.Body.String()
	for _, metric := range []string{"adminkit_modules_loaded_total", "adminkit_http_requests_total"} {
		if !strings.Contains(body, metric) {
			t.Errorf("metrics output missing %s", metric)
		}
	}
}

func TestNew_CompanyDataReachesRequests(t *testing.T) {
	app := newApp(t, testConfig(t))

	get := func(admin string) (*httptest.ResponseRecorder, []string) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/crud/Settings.company.general/company", nil)
		r.Header.Set(authz.HeaderUserID, "1")
		r.Header.Set(authz.HeaderAdmin, admin)
		app.HTTP.Handler().ServeHTTP(w, r)

		var doc struct {
			Meta struct {
				Fields []struct {
					Key string `json:"key"`
				} `json:"fields"`
			} `json:"meta"`
		}
		if w.Code == http.StatusOK {
			if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
				t.Fatalf("decode: %v", err)
			}
		}
		var keys []string
		for _, f := range doc.Meta.Fields {
			keys = append(keys, f.Key)
		}
		return w, keys
	}

	w, keys := get("1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if strings.Join(keys, ",") != "timezone,work_time,color" {
		t.Errorf("fields = %v, want color shown once work_time is set", keys)
	}

	if w, _ := get("0"); w.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", w.Code)
	}
}
