package server

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/wellmind/assessment-api/internal/assessment"
	"github.com/wellmind/assessment-api/internal/model"
	"github.com/wellmind/assessment-api/internal/store"
)

// questionnaire is the GET questions payload: the active question list
// ordered by category then id, plus the category list for grouping.
type questionnaire struct {
	Categories []model.Category `json:"categories"`
	Questions  []model.Question `json:"questions"`
}

func (s *Server) handleAssessmentQuestions(w http.ResponseWriter, r *http.Request) {
	var payload questionnaire

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		qs, err := s.store.ListQuestions(ctx, store.QuestionFilter{ActiveOnly: true})
		if err != nil {
			return err
		}
		payload.Questions = qs
		return nil
	})
	g.Go(func() error {
		cats, err := s.store.Categories(ctx)
		if err != nil {
			return err
		}
		payload.Categories = cats
		return nil
	})
	if err := g.Wait(); err != nil {
		writeError(w, err)
		return
	}

	if payload.Categories == nil {
		payload.Categories = []model.Category{}
	}
	if payload.Questions == nil {
		payload.Questions = []model.Question{}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub assessment.Submission
	if err := decodeBody(r, &sub); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	result, err := s.eval.Evaluate(r.Context(), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var sub assessment.Submission
	if err := decodeBody(r, &sub); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	result, err := s.eval.Preview(r.Context(), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
