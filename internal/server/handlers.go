// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/resource-curator/internal/curate"
	"github.com/pdiddy/resource-curator/internal/store"
	"github.com/pdiddy/resource-curator/pkg/types"
)

// Curation outcome headers. They differ when some direct-mode saves failed.
const (
	headerAttempted = "X-Curation-Attempted"
	headerSaved     = "X-Curation-Saved"
)

// curateResources handles GET /api/v1/resources/search.
func (s *Server) curateResources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("query"))
	if query == "" {
		s.handleError(w, r, validation("query is required"))
		return
	}
	mode, err := curate.ParseMode(q.Get("mode"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	page, pageSize, err := s.paging(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	res, err := s.curator.Curate(r.Context(), curate.Request{
		Query:    query,
		Mode:     mode,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set(headerAttempted, strconv.Itoa(res.Attempted))
	w.Header().Set(headerSaved, strconv.Itoa(res.Saved))
	writeJSON(w, http.StatusOK, res)
}

// listResources handles GET /api/v1/resources.
func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, pageSize, err := s.paging(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	opts := store.SearchOptions{
		Text:     q.Get("q"),
		Match:    q.Get("match"),
		Page:     page,
		PageSize: pageSize,
	}
	if t := q.Get("type"); t != "" {
		rt, err := types.ParseResourceType(t)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		opts.Type = rt
	}

	result, err := s.store.Search(r.Context(), opts)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// createResource handles POST /api/v1/resources.
func (s *Server) createResource(w http.ResponseWriter, r *http.Request) {
	var rec types.ResourceRecord
	if err := decodeBody(w, r, &rec); err != nil {
		s.handleError(w, r, err)
		return
	}
	rec.ID = 0

	created, err := s.store.Create(r.Context(), rec)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/resources/%d", created.ID))
	writeJSON(w, http.StatusCreated, created)
}

// getResource handles GET /api/v1/resources/{id}. With ?user_id=N the
// response also says whether that user favorited the resource.
func (s *Server) getResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if !r.URL.Query().Has("user_id") {
		writeJSON(w, http.StatusOK, rec)
		return
	}

	userID, err := userIDParam(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	fav, err := s.store.IsFavorite(r.Context(), userID, id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resourceView{ResourceRecord: rec, Favorited: &fav})
}

// resourceView is a resource as seen by one user.
type resourceView struct {
	types.ResourceRecord
	Favorited *bool `json:"favorited,omitempty"`
}

// updateResource handles PATCH and PUT /api/v1/resources/{id}.
func (s *Server) updateResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	var patch types.ResourcePatch
	if err := decodeBody(w, r, &patch); err != nil {
		s.handleError(w, r, err)
		return
	}
	rec, err := s.store.Update(r.Context(), id, patch)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// deleteResource handles DELETE /api/v1/resources/{id}.
func (s *Server) deleteResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	ok, err := s.store.Delete(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if !ok {
		s.handleError(w, r, types.NewError(types.ReasonNotFound, fmt.Sprintf("resource %d", id), store.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type favoriteRequest struct {
	UserID int64  `json:"user_id"`
	Notes  string `json:"notes"`
}

// addFavorite handles POST /api/v1/resources/{id}/favorite.
func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	var req favoriteRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	if req.UserID <= 0 {
		s.handleError(w, r, validation("user_id must be a positive integer"))
		return
	}

	fav, err := s.store.AddFavorite(r.Context(), req.UserID, id, req.Notes)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fav)
}

// removeFavorite handles DELETE /api/v1/resources/{id}/favorite?user_id=N.
func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	userID, err := userIDParam(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	ok, err := s.store.RemoveFavorite(r.Context(), userID, id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if !ok {
		s.handleError(w, r, types.NewError(types.ReasonNotFound, fmt.Sprintf("favorite for resource %d", id), store.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listFavorites handles GET /api/v1/favorites?user_id=N.
func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	page, pageSize, err := s.paging(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	result, err := s.store.ListFavorites(r.Context(), userID, page, pageSize)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type exerciseRequest struct {
	KnowledgePoint string `json:"knowledge_point"`
}

// generateExercises handles POST /api/v1/exercises/generate.
func (s *Server) generateExercises(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	if strings.TrimSpace(req.KnowledgePoint) == "" {
		s.handleError(w, r, validation("knowledge_point is required"))
		return
	}
	if s.exercises == nil {
		s.handleError(w, r, types.ProviderError("generator", fmt.Errorf("text generation is not configured")))
		return
	}

	set, err := s.exercises.Generate(r.Context(), req.KnowledgePoint)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// listExercises handles GET /api/v1/exercises?knowledge_point=...
func (s *Server) listExercises(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := s.paging(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	result, err := s.store.ListExercises(r.Context(), r.URL.Query().Get("knowledge_point"), page, pageSize)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- request helpers ---

func validation(msg string) error {
	return types.NewError(types.ReasonValidation, msg, nil)
}

// paging reads page and page_size (alias limit). Omitted values use the
// defaults; explicit values must be positive and page_size at most the
// configured maximum.
func (s *Server) paging(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	page, err := positiveParam(q.Get("page"), "page", 1)
	if err != nil {
		return 0, 0, err
	}
	raw := q.Get("page_size")
	if raw == "" {
		raw = q.Get("limit")
	}
	pageSize, err := positiveParam(raw, "page_size", types.DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	if pageSize > s.maxPageSize {
		return 0, 0, validation(fmt.Sprintf("page_size must be at most %d", s.maxPageSize))
	}
	return page, pageSize, nil
}

func positiveParam(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, validation(fmt.Sprintf("%s must be a positive integer", name))
	}
	return n, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, validation("resource id must be a positive integer")
	}
	return id, nil
}

func userIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || id < 1 {
		return 0, validation("user_id must be a positive integer")
	}
	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return types.NewError(types.ReasonValidation, "invalid request body: "+err.Error(), nil)
	}
	return nil
}
