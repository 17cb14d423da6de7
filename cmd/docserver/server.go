package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Sternrassler/conditional-get/pkg/freshness"
	"github.com/Sternrassler/conditional-get/pkg/metrics"
	"github.com/Sternrassler/conditional-get/pkg/negotiate"
	"github.com/Sternrassler/conditional-get/pkg/store"
)

// maxBodyBytes bounds PUT and POST payloads.
const maxBodyBytes = 1 << 20

// server serves documents with conditional GET support.
type server struct {
	store store.Store
	coord *negotiate.Coordinator
}

// documentInput is the writable part of a document.
type documentInput struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags,omitempty"`
}

func newRouter(st store.Store, coord *negotiate.Coordinator, logger zerolog.Logger) http.Handler {
	s := &server{store: st, coord: coord}

	r := chi.NewRouter()
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.RequestIDHandler("request_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request served")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/documents", func(r chi.Router) {
		r.Method(http.MethodGet, "/", coord.Handler(s.loadAll, negotiate.JSON, negotiate.ContentTypeJSON))
		r.Post("/", s.create)
		r.Method(http.MethodGet, "/{id}", coord.Handler(s.loadOne, negotiate.JSON, negotiate.ContentTypeJSON))
		r.Put("/{id}", s.update)
		r.Delete("/{id}", s.remove)
	})

	return r
}

// loadAll describes the collection by every document in it: any write
// changes the aggregated key, and the newest write sets Last-Modified.
func (s *server) loadAll(r *http.Request) (any, freshness.Metadata, error) {
	docs, err := s.store.List(r.Context())
	if err != nil {
		return nil, freshness.Metadata{}, err
	}
	return docs, freshness.Aggregate(freshness.Entities(docs)...), nil
}

func (s *server) loadOne(r *http.Request) (any, freshness.Metadata, error) {
	doc, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, freshness.Metadata{}, fmt.Errorf("%w: %w", negotiate.ErrNotFound, err)
		}
		return nil, freshness.Metadata{}, err
	}
	return doc, freshness.Of(doc), nil
}

func (s *server) create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	doc := store.Document{ID: uuid.NewString(), Title: in.Title, Body: in.Body, Tags: in.Tags}
	s.put(w, r, doc, http.StatusCreated)
}

func (s *server) update(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	doc := store.Document{ID: chi.URLParam(r, "id"), Title: in.Title, Body: in.Body, Tags: in.Tags}
	s.put(w, r, doc, http.StatusOK)
}

// put stores doc and answers with the stored revision and its validators,
// so a client can revalidate without a follow-up GET.
func (s *server) put(w http.ResponseWriter, r *http.Request, doc store.Document, status int) {
	stored, err := s.store.Put(r.Context(), doc)
	if err != nil {
		if errors.Is(err, store.ErrInvalidDocument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		hlog.FromRequest(r).Error().Err(err).Str("id", doc.ID).Msg("Store put failed")
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	body, err := negotiate.JSON(stored)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("id", stored.ID).Msg("Encode document failed")
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	for k, v := range s.coord.CacheHeaders(freshness.Of(stored)) {
		w.Header()[k] = v
	}
	if status == http.StatusCreated {
		w.Header().Set("Location", "/documents/"+stored.ID)
	}
	w.Header().Set(negotiate.HeaderContentType, negotiate.ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *server) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
			return
		}
		hlog.FromRequest(r).Error().Err(err).Str("id", id).Msg("Store delete failed")
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeInput(w http.ResponseWriter, r *http.Request) (documentInput, bool) {
	var in documentInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return documentInput{}, false
	}
	return in, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set(negotiate.HeaderContentType, negotiate.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
