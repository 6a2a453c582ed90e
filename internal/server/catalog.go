package server

import (
	"net/http"
	"strconv"

	"github.com/wellmind/assessment-api/internal/model"
	"github.com/wellmind/assessment-api/internal/store"
)

// Categories

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if cats == nil {
		cats = []model.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c model.Category
	if err := decodeBody(r, &c); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if c.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	if err := s.store.CreateCategory(r.Context(), &c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	c, err := s.store.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	var c model.Category
	if err := decodeBody(r, &c); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if c.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}
	c.ID = id

	if err := s.store.UpdateCategory(r.Context(), &c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Questions

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	var f store.QuestionFilter
	if v := r.URL.Query().Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeBadRequest(w, "invalid category_id")
			return
		}
		f.CategoryID = id
	}
	if v := r.URL.Query().Get("active"); v != "" {
		f.ActiveOnly = v == "true" || v == "1"
	}

	qs, err := s.store.ListQuestions(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	if qs == nil {
		qs = []model.Question{}
	}
	writeJSON(w, http.StatusOK, qs)
}

func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var q model.Question
	if err := decodeBody(r, &q); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if q.Text == "" {
		writeBadRequest(w, "text is required")
		return
	}
	if q.CategoryID == 0 {
		writeBadRequest(w, "category_id is required")
		return
	}
	if q.Weight < 0 {
		writeBadRequest(w, "weight must be positive")
		return
	}

	if err := s.store.CreateQuestion(r.Context(), &q); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	q, err := s.store.GetQuestion(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	var q model.Question
	if err := decodeBody(r, &q); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if q.Text == "" {
		writeBadRequest(w, "text is required")
		return
	}
	if q.Weight < 0 {
		writeBadRequest(w, "weight must be positive")
		return
	}
	q.ID = id

	if err := s.store.UpdateQuestion(r.Context(), &q); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	if err := s.store.DeleteQuestion(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
