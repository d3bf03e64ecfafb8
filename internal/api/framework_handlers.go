package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// Framework handlers

type questionView struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Priority string `json:"priority"`
	Section  string `json:"section"`
	Category string `json:"category"`
}

func (s *Server) handleListFrameworks(w http.ResponseWriter, r *http.Request) {
	list := s.frameworks.List()
	out := make([]models.FrameworkSummary, 0, len(list))
	for _, fw := range list {
		out = append(out, fw.Summary())
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"frameworks": out,
		"total":      len(out),
	})
}

func (s *Server) handleGetFramework(w http.ResponseWriter, r *http.Request) {
	fw := s.frameworks.Get(chi.URLParam(r, "id"))
	if fw == nil {
		respondError(w, http.StatusNotFound, "not_found", "framework not found")
		return
	}
	respondJSON(w, http.StatusOK, fw)
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	fw := s.frameworks.Get(chi.URLParam(r, "id"))
	if fw == nil {
		respondError(w, http.StatusNotFound, "not_found", "framework not found")
		return
	}

	questions := make([]questionView, 0, fw.QuestionCount())
	for _, sec := range fw.Sections {
		for _, cat := range sec.Categories {
			for _, q := range cat.Questions {
				questions = append(questions, questionView{
					ID:       q.ID,
					Text:     q.Text,
					Priority: string(q.Priority),
					Section:  sec.Name,
					Category: cat.Name,
				})
			}
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"questions": questions,
		"total":     len(questions),
	})
}
