package server

import (
	"net/http"
	"strings"
)

// handleNewsList handles GET /api/news?category=kr&limit=20&cursor=....
func (s *Server) handleNewsList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	category := r.URL.Query().Get("category")
	limit := QueryInt(r, "limit", 0)
	cursor := r.URL.Query().Get("cursor")

	page, err := s.app.NewsService.List(r.Context(), category, limit, cursor)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

// handleNewsHot handles GET /api/news/hot?category=kr&limit=10.
func (s *Server) handleNewsHot(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	category := r.URL.Query().Get("category")
	limit := QueryInt(r, "limit", 10)

	items, err := s.app.NewsService.Hot(r.Context(), category, limit)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"items": items,
	})
}

// handleNewsSearch handles GET /api/news/search?q=...&categories=kr,us.
func (s *Server) handleNewsSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		WriteError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	var categories []string
	if raw := r.URL.Query().Get("categories"); raw != "" {
		for _, cat := range strings.Split(raw, ",") {
			if cat = strings.TrimSpace(cat); cat != "" {
				categories = append(categories, cat)
			}
		}
	}

	items, err := s.app.NewsService.Search(r.Context(), query, categories)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"query": query,
		"items": items,
	})
}

// handleNewsDetail handles GET /api/news/{id}. Reading an article counts a
// view, which feeds the hot ranking.
func (s *Server) handleNewsDetail(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := PathParam(r, "/api/news/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Article ID is required in path")
		return
	}

	item, err := s.app.NewsService.Get(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil {
		WriteError(w, http.StatusNotFound, "Article not found")
		return
	}
	WriteJSON(w, http.StatusOK, item)
}
