package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jonathan/bias-detector/internal/history"
	"github.com/jonathan/bias-detector/internal/session"
	"github.com/jonathan/bias-detector/internal/types"
)

// SaveHistoryRequest is the body of POST /history. Exactly one of SessionID
// and Text names the analysis to record.
type SaveHistoryRequest struct {
	SessionID string  `json:"session_id,omitempty" validate:"omitempty,uuid"`
	Text      *string `json:"text,omitempty" validate:"omitempty,max=1000000"`
	Key       string  `json:"key" validate:"required,max=256"`
	Title     string  `json:"title,omitempty" validate:"max=256"`
	Company   string  `json:"company,omitempty" validate:"max=256"`
	Group     string  `json:"group,omitempty" validate:"max=128"`
}

// HistoryListResponse is the body of GET /history
type HistoryListResponse struct {
	Records []history.Record `json:"records"`
	Summary history.Summary  `json:"summary"`
}

// handleSaveHistory records the current result of a session, or of a
// one-off analysis of the given text
func (s *Server) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var req SaveHistoryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if (req.SessionID == "") == (req.Text == nil) {
		s.writeError(w, &ErrValidation{Field: "session_id,text", Message: "exactly one of session_id and text is required"})
		return
	}

	result, err := s.resultFor(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	meta := history.Meta{Key: req.Key, Title: req.Title, Company: req.Company, Group: req.Group}
	record := history.NewRecord(meta, result)
	if err := s.history.Save(r.Context(), &record); err != nil {
		s.writeError(w, fmt.Errorf("failed to save history: %w", err))
		return
	}
	if s.verbose {
		log.Printf("[history] saved %s (%s): score %d -> %d", record.ID, record.Key, record.OriginalScore, record.ImprovedScore)
	}
	w.Header().Set("Location", "/history/"+record.ID.String())
	s.jsonResponse(w, http.StatusCreated, record)
}

func (s *Server) resultFor(ctx context.Context, req SaveHistoryRequest) (*types.AnalysisResult, error) {
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			return nil, &ErrValidation{Field: "session_id", Message: "must be a UUID"}
		}
		sess, ok := s.sessions.Get(id)
		if !ok {
			return nil, &ErrNotFound{Resource: "session", ID: req.SessionID}
		}
		result := sess.Result()
		if result == nil {
			return nil, &ErrValidation{Field: "session_id", Message: "session has no analyzed text"}
		}
		return result, nil
	}
	sess := session.New(s.catalogs.Load(), s.scorer, s.sessionOptions(nil))
	return sess.SetText(ctx, *req.Text)
}

// parseFilter reads ?q=, ?status= and ?limit=
func parseFilter(r *http.Request) (history.Filter, error) {
	q := r.URL.Query()
	f := history.Filter{Query: q.Get("q"), Status: history.Status(q.Get("status"))}
	switch f.Status {
	case "", history.StatusExcellent, history.StatusImproved, history.StatusNeedsWork:
	default:
		return f, &ErrValidation{Field: "status", Message: "must be excellent, improved or needs-work"}
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return f, &ErrValidation{Field: "limit", Message: "must be a non-negative integer"}
		}
		f.Limit = limit
	}
	return f, nil
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	records, err := s.history.List(r.Context(), f)
	if err != nil {
		s.writeError(w, fmt.Errorf("failed to list history: %w", err))
		return
	}
	s.jsonResponse(w, http.StatusOK, HistoryListResponse{Records: records, Summary: history.Summarize(records)})
}

// handleHistorySummary aggregates the filtered records, ignoring ?limit=
func (s *Server) handleHistorySummary(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	f.Limit = 0
	records, err := s.history.List(r.Context(), f)
	if err != nil {
		s.writeError(w, fmt.Errorf("failed to list history: %w", err))
		return
	}
	s.jsonResponse(w, http.StatusOK, history.Summarize(records))
}

func (s *Server) historyID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "must be a UUID"}
	}
	return id, nil
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := s.historyID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	record, err := s.history.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, fmt.Errorf("failed to get history: %w", err))
		return
	}
	if record == nil {
		s.writeError(w, &ErrNotFound{Resource: "history record", ID: id.String()})
		return
	}
	s.jsonResponse(w, http.StatusOK, record)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, err := s.historyID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	deleted, err := s.history.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, fmt.Errorf("failed to delete history: %w", err))
		return
	}
	if !deleted {
		s.writeError(w, &ErrNotFound{Resource: "history record", ID: id.String()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
