package jsonapi

import (
	"encoding/json"
	"net/http"
)

func WriteDocument(w http.ResponseWriter, status int, doc Document) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(doc)
}

// WriteResource writes one item with optional top-level meta.
func WriteResource(w http.ResponseWriter, status int, r Resource, meta Meta) {
	WriteDocument(w, status, NewDocument().Data(r).MetaAll(meta).Build())
}

// WriteCollection writes a list, paged when p is not nil.
func WriteCollection(w http.ResponseWriter, status int, resources []Resource, p *Pagination) {
	WriteDocument(w, status, NewDocument().DataCollection(resources).Pagination(p).Build())
}

// WriteCreated answers a successful create, setting Location when known.
func WriteCreated(w http.ResponseWriter, r Resource, location string) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	WriteResource(w, http.StatusCreated, r, nil)
}

func WriteMeta(w http.ResponseWriter, status int, meta Meta) {
	WriteDocument(w, status, NewDocument().MetaAll(meta).Build())
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes errs with the status of the first one. Without errors
// it answers 500.
func WriteError(w http.ResponseWriter, errs ...Error) {
	status := http.StatusInternalServerError
	if len(errs) == 0 {
		errs = []Error{NewError(status, "internal_error", "").Build()}
	} else if code := errs[0].StatusCode(); code != 0 {
		status = code
	}
	WriteDocument(w, status, NewDocument().Errors(errs...).Build())
}

func WriteBadRequest(w http.ResponseWriter, detail string) {
	WriteError(w, ErrBadRequest(detail))
}

func WriteForbidden(w http.ResponseWriter, detail string) {
	WriteError(w, ErrForbidden(detail))
}

func WriteNotFound(w http.ResponseWriter, detail string) {
	WriteError(w, ErrNotFound(detail))
}
