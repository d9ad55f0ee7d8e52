package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/roach88/timeline/internal/paging"
	"github.com/roach88/timeline/internal/record"
	"github.com/roach88/timeline/internal/store"
)

// Error codes in JSON error bodies.
const (
	codeMalformedCursor = string(paging.ErrCodeMalformedCursor)
	codeInvalidQuery    = string(paging.ErrCodeInvalidQuery)
	codeInvalidBody     = "INVALID_BODY"
	codeNotFound        = "NOT_FOUND"
	codeUnavailable     = "UNAVAILABLE"
	codeInternal        = "INTERNAL"
)

// pageResponse is the body of a list request. Cursors are the raw
// query-escaped values; older and newer are ready-made links.
type pageResponse struct {
	Records     []record.Record `json:"records"`
	OlderCursor string          `json:"older_cursor,omitempty"`
	NewerCursor string          `json:"newer_cursor,omitempty"`
	Older       string          `json:"older,omitempty"`
	Newer       string          `json:"newer,omitempty"`
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	collection, ok := s.collection(w, r)
	if !ok {
		return
	}

	params := r.URL.Query()
	q := paging.Query{
		Collection: collection,
		OrderField: s.cfg.OrderField(),
		PageSize:   s.cfg.Paging.DefaultPageSize,
		Before:     params.Get("before"),
		After:      params.Get("after"),
	}

	if l := params.Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidQuery, fmt.Sprintf("limit must be an integer, got %q", l))
			return
		}
		q.PageSize = parsed
	}
	if f := params.Get("order_by"); f != "" {
		q.OrderField = record.Field(f)
	}

	page, err := s.paginator.FetchPage(r.Context(), q)
	if err != nil {
		s.writeFailure(w, r, "fetch page", err)
		return
	}

	writeJSON(w, http.StatusOK, pageResponse{
		Records:     page.Records,
		OlderCursor: page.Older,
		NewerCursor: page.Newer,
		Older:       page.OlderLink(r.URL),
		Newer:       page.NewerLink(r.URL),
	})
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	collection, ok := s.collection(w, r)
	if !ok {
		return
	}

	attrs, ok := s.readAttrs(w, r)
	if !ok {
		return
	}

	rec, err := s.store.CreateRecord(r.Context(), collection, attrs)
	if err != nil {
		s.writeFailure(w, r, "create record", err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleTouchRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}

	attrs, ok := s.readAttrs(w, r)
	if !ok {
		return
	}

	touched, err := s.store.TouchRecord(r.Context(), rec.ID, attrs)
	if err != nil {
		s.writeFailure(w, r, "touch record", err)
		return
	}

	writeJSON(w, http.StatusOK, touched)
}

// collection resolves the {collection} path value against the allow-list.
func (s *Server) collection(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := r.PathValue("collection")
	if !s.cfg.AllowsCollection(name) {
		writeError(w, http.StatusNotFound, codeNotFound, fmt.Sprintf("collection %q not found", name))
		return "", false
	}
	return name, true
}

// lookup reads the {id} record and checks it belongs to {collection}.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (record.Record, bool) {
	collection, ok := s.collection(w, r)
	if !ok {
		return record.Record{}, false
	}

	id := r.PathValue("id")
	rec, err := s.store.ReadRecord(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, "read record", err)
		return record.Record{}, false
	}
	if rec.Collection != collection {
		writeError(w, http.StatusNotFound, codeNotFound, fmt.Sprintf("record %q not found", id))
		return record.Record{}, false
	}
	return rec, true
}

// readAttrs decodes an optional JSON object body. An empty body yields nil.
func (s *Server) readAttrs(w http.ResponseWriter, r *http.Request) (record.Attrs, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, "request body too large or unreadable")
		return nil, false
	}
	if len(body) == 0 {
		return nil, true
	}

	attrs, err := record.ParseAttrs(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err.Error())
		return nil, false
	}
	return attrs, true
}

// writeFailure maps an error to a status code and logs server-side faults.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case paging.IsMalformedCursor(err):
		writeError(w, http.StatusBadRequest, codeMalformedCursor, err.Error())
	case paging.IsInvalidQuery(err):
		writeError(w, http.StatusBadRequest, codeInvalidQuery, err.Error())
	case errors.Is(err, store.ErrInvalid):
		writeError(w, http.StatusBadRequest, codeInvalidBody, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "record not found")
	case errors.Is(err, store.ErrUnavailable):
		s.logger.ErrorContext(r.Context(), "store unavailable", "op", op, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "storage is unavailable")
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "op", op, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
