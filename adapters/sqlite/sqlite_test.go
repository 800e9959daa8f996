package sqlite_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/artpar/adminkit/adapters/sqlite"
	"github.com/artpar/adminkit/core/resource"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "adminkit-test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("applied migrations = %d, want 1", n)
	}
}

func TestService_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	svc := sqlite.NewService(db, "projects")
	ctx := context.Background()

	created, err := svc.Save(ctx, resource.Item{"name": "Apollo", "budget": 10})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if created.ID() == "" {
		t.Fatal("Save did not assign an id")
	}

	got, err := svc.GetItem(ctx, created.ID())
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got["name"] != "Apollo" || got["budget"] != float64(10) {
		t.Errorf("got %v", got)
	}

	if _, err := svc.GetItem(ctx, "missing"); !errors.Is(err, resource.ErrNotFound) {
		t.Errorf("GetItem(missing) = %v, want ErrNotFound", err)
	}
}

func TestService_SaveMerges(t *testing.T) {
	db := setupTestDB(t)
	svc := sqlite.NewService(db, "projects")
	ctx := context.Background()

	if _, err := svc.Save(ctx, resource.Item{"id": "p1", "name": "Apollo", "active": true}); err != nil {
		t.Fatal(err)
	}
	updated, err := svc.Save(ctx, resource.Item{"id": "p1", "name": "Apollo 11"})
	if err != nil {
		t.Fatal(err)
	}
	if updated["name"] != "Apollo 11" || updated["active"] != true {
		t.Errorf("merged = %v", updated)
	}

	page, err := svc.GetAll(ctx, resource.Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 {
		t.Errorf("Total = %d, want 1", page.Total)
	}
}

func TestService_GetAllFilters(t *testing.T) {
	db := setupTestDB(t)
	projects := sqlite.NewService(db, "projects")
	tasks := sqlite.NewService(db, "tasks")
	tasks.Relate("project", resource.Relation{ForeignKey: "project_id", Target: projects})
	projects.Relate("tasks", resource.Relation{ForeignKey: "project_id", Target: tasks})
	ctx := context.Background()

	for _, item := range []resource.Item{
		{"id": "1", "name": "Apollo"},
		{"id": "2", "name": "Gemini"},
	} {
		if _, err := projects.Save(ctx, item); err != nil {
			t.Fatal(err)
		}
	}
	for _, item := range []resource.Item{
		{"id": "t1", "task_name": "Design", "project_id": "1", "active": true},
		{"id": "t2", "task_name": "Build", "project_id": "1", "active": false},
		{"id": "t3", "task_name": "Launch", "project_id": "2", "active": true},
	} {
		if _, err := tasks.Save(ctx, item); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		filters resource.Filters
		want    []string
	}{
		{"all", resource.Filters{}, []string{"t1", "t2", "t3"}},
		{"bool condition", resource.Filters{"active": "1"}, []string{"t1", "t3"}},
		{"string condition", resource.Filters{"project_id": "1"}, []string{"t1", "t2"}},
		{"search", resource.Filters{resource.KeySearch: resource.Search{Query: "LAU", Fields: []string{"task_name"}}}, []string{"t3"}},
		{"paged", resource.Filters{resource.KeyPage: 2, resource.KeyPerPage: 2}, []string{"t3"}},
		{"max page", resource.Filters{resource.KeyPage: math.MaxInt, resource.KeyPerPage: 2}, nil},
		{"max page and size", resource.Filters{resource.KeyPage: math.MaxInt, resource.KeyPerPage: math.MaxInt}, nil},
		{"max size", resource.Filters{resource.KeyPerPage: math.MaxInt}, []string{"t1", "t2", "t3"}},
		{"injection-shaped key", resource.Filters{"x') OR 1=1 --": "1"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := tasks.GetAll(ctx, tt.filters)
			if err != nil {
				t.Fatalf("GetAll: %v", err)
			}
			var ids []string
			for _, item := range page.Items {
				ids = append(ids, item.ID())
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("ids = %v, want %v", ids, tt.want)
				}
			}
		})
	}

	page, err := tasks.GetAll(ctx, resource.Filters{resource.KeyWith: "project", "id": "t3"})
	if err != nil {
		t.Fatal(err)
	}
	project, ok := page.Items[0]["project"].(map[string]any)
	if !ok || project["name"] != "Gemini" {
		t.Errorf("project relation = %v", page.Items[0]["project"])
	}

	page, err = projects.GetAll(ctx, resource.Filters{resource.KeyWithCount: "tasks", "id": "1"})
	if err != nil {
		t.Fatal(err)
	}
	if page.Items[0]["tasks_count"] != int64(2) {
		t.Errorf("tasks_count = %v", page.Items[0]["tasks_count"])
	}
}

func TestService_DeleteAndBulk(t *testing.T) {
	db := setupTestDB(t)
	svc := sqlite.NewService(db, "notes")
	other := sqlite.NewService(db, "other")
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := svc.Save(ctx, resource.Item{"id": id}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := other.Save(ctx, resource.Item{"id": "a"}); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteItem(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteItem(ctx, "a"); !errors.Is(err, resource.ErrNotFound) {
		t.Errorf("second delete = %v", err)
	}
	if _, err := other.GetItem(ctx, "a"); err != nil {
		t.Errorf("delete crossed collections: %v", err)
	}

	if err := svc.BulkEdit(ctx, []resource.Item{{"id": "b", "done": true}, {"id": "d"}}); err != nil {
		t.Fatal(err)
	}
	page, _ := svc.GetAll(ctx, resource.Filters{"done": true})
	if page.Total != 1 {
		t.Errorf("done = %d, want 1", page.Total)
	}

	if err := svc.BulkDelete(ctx, []string{"b", "c", "zzz"}); err != nil {
		t.Fatal(err)
	}
	page, _ = svc.GetAll(ctx, resource.Filters{})
	if page.Total != 1 || page.Items[0].ID() != "d" {
		t.Errorf("remaining = %+v", page)
	}
}
