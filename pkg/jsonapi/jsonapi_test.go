package jsonapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestPagination(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		page      int
		perPage   int
		wantPages int
		wantPrev  bool
		wantNext  bool
	}{
		{"empty", 0, 1, 15, 1, false, false},
		{"single page", 10, 1, 15, 1, false, false},
		{"first of three", 40, 1, 15, 3, false, true},
		{"middle", 40, 2, 15, 3, true, true},
		{"last", 40, 3, 15, 3, true, false},
		{"defaults", 5, 0, 0, 1, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.total, tt.page, tt.perPage, "")
			if p.TotalPages() != tt.wantPages {
				t.Errorf("TotalPages() = %d, want %d", p.TotalPages(), tt.wantPages)
			}
			if p.HasPrev() != tt.wantPrev || p.HasNext() != tt.wantNext {
				t.Errorf("HasPrev/HasNext = %v/%v", p.HasPrev(), p.HasNext())
			}
		})
	}
}

func TestPagination_LinksKeepFilters(t *testing.T) {
	p := NewPagination(40, 2, 15, "/api/grid/Tasks.crud.tasks?project_id=1&search=x&page[number]=2")
	links := p.Links()

	next, err := url.Parse(links.Next)
	if err != nil {
		t.Fatal(err)
	}
	q := next.Query()
	if q.Get("page") != "3" || q.Get("perPage") != "15" || q.Get("project_id") != "1" || q.Get("search") != "x" {
		t.Errorf("next = %s", links.Next)
	}
	if q.Has("page[number]") {
		t.Error("JSON:API page params should be replaced")
	}
	if links.Prev == "" || links.First == "" || links.Last == "" {
		t.Errorf("links = %+v", links)
	}

	if NewPagination(1, 1, 15, "").Links().Self != "" {
		t.Error("no base URL should yield no links")
	}
}

func TestParsePaginationParams(t *testing.T) {
	tests := []struct {
		query       string
		wantPage    int
		wantPerPage int
	}{
		{"", 0, 0},
		{"page=2&perPage=10", 2, 10},
		{"page[number]=3&page[size]=5", 3, 5},
		{"page=4&page[number]=3", 4, 0},
		{"perPage=500", 0, MaxPerPage},
		{"page=-1&perPage=abc", 0, 0},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		page, perPage := ParsePaginationParams(q)
		if page != tt.wantPage || perPage != tt.wantPerPage {
			t.Errorf("%q: got %d/%d, want %d/%d", tt.query, page, perPage, tt.wantPage, tt.wantPerPage)
		}
	}
}

func TestResourceBuilder_AttrsSkipsIdentity(t *testing.T) {
	r := NewResource("tasks", "42").Attrs(map[string]any{"id": 42, "type": "x", "name": "Build"}).Link("").Build()
	if r.ID != "42" || r.Type != "tasks" {
		t.Errorf("resource = %+v", r)
	}
	if _, ok := r.Attributes["id"]; ok {
		t.Error("id should not be an attribute")
	}
	if r.Attributes["name"] != "Build" {
		t.Errorf("attributes = %v", r.Attributes)
	}
	if r.Links != nil {
		t.Errorf("empty link produced %+v", r.Links)
	}
}

func TestFieldErrors_SortedByKey(t *testing.T) {
	errs := FieldErrors(map[string]string{"work_time": "too long", "color": "required"})
	if len(errs) != 2 {
		t.Fatalf("errs = %+v", errs)
	}
	if errs[0].Source.Pointer != "/data/attributes/color" || errs[1].Detail != "too long" {
		t.Errorf("errs = %+v", errs)
	}
	if errs[0].StatusCode() != http.StatusUnprocessableEntity {
		t.Errorf("status = %s", errs[0].Status)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrValidation("task_name", "required"))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != ContentType {
		t.Errorf("content type = %s", rec.Header().Get("Content-Type"))
	}

	var doc Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Errors) != 1 || doc.Errors[0].Source.Pointer != "/data/attributes/task_name" {
		t.Errorf("errors = %+v", doc.Errors)
	}

	rec = httptest.NewRecorder()
	WriteError(rec)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("empty WriteError status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	WriteNotFound(rec, "no task 7")
	var nf Document
	if err := json.Unmarshal(rec.Body.Bytes(), &nf); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusNotFound || len(nf.Errors) != 1 || nf.Errors[0].Title != "Not Found" || nf.Errors[0].Detail != "no task 7" {
		t.Errorf("not found = %d %+v", rec.Code, nf.Errors)
	}
}

func TestWriteCollection_EmptyIsArray(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteCollection(rec, http.StatusOK, nil, NewPagination(0, 1, 15, "/x"))

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["data"]) != "[]" {
		t.Errorf("data = %s, want []", raw["data"])
	}
	if _, ok := raw["links"]; !ok {
		t.Error("links missing")
	}
}

func TestDocumentBuilder(t *testing.T) {
	doc := NewDocument().
		Data(NewResource("route", "Tasks.crud.tasks").Attr("path", "/tasks/crud/tasks").Link("/api/routes").Build()).
		Meta("count", 1).
		MetaAll(Meta{"kind": "routes"}).
		Build()

	r := doc.Data.(Resource)
	if r.Attributes["path"] != "/tasks/crud/tasks" || r.Links.Self != "/api/routes" {
		t.Errorf("resource = %+v", r)
	}
	if doc.Meta["count"] != 1 || doc.Meta["kind"] != "routes" {
		t.Errorf("meta = %v", doc.Meta)
	}
}
