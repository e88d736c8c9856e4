package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/bias-detector/internal/rewriting"
	"github.com/jonathan/bias-detector/internal/session"
	"github.com/jonathan/bias-detector/internal/types"
)

// SessionResponse describes a session and its latest result
type SessionResponse struct {
	ID             uuid.UUID             `json:"id"`
	State          session.State         `json:"state"`
	CatalogVersion string                `json:"catalog_version"`
	Result         *types.AnalysisResult `json:"result,omitempty"`
}

func sessionResponse(sess *session.Session) SessionResponse {
	return SessionResponse{
		ID:             sess.ID(),
		State:          sess.State(),
		CatalogVersion: sess.CatalogVersion(),
		Result:         sess.Result(),
	}
}

// CreateSessionRequest is the body of POST /sessions
type CreateSessionRequest struct {
	Text          *string `json:"text,omitempty" validate:"omitempty,max=1000000"`
	InclusiveMode *bool   `json:"inclusive_mode,omitempty"`
}

// SetTextRequest is the body of PUT /sessions/{id}/text
type SetTextRequest struct {
	Text string `json:"text" validate:"max=1000000"`
}

// RewriteRequest is the body of POST /sessions/{id}/rewrite
type RewriteRequest struct {
	// SkipConflicts applies the non-overlapping subset instead of failing.
	SkipConflicts bool `json:"skip_conflicts,omitempty"`
	// Apply feeds the rewritten text back into the session.
	Apply bool `json:"apply,omitempty"`
}

// RewriteResponse is the body returned by POST /sessions/{id}/rewrite
type RewriteResponse struct {
	Text      string                `json:"text"`
	Conflicts []rewriting.Conflict  `json:"conflicts,omitempty"`
	Result    *types.AnalysisResult `json:"result,omitempty"`
}

// handleCreateSession starts a session, scanning the initial text if given
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	sess := s.sessions.Create(s.sessionOptions(req.InclusiveMode))
	if req.Text != nil {
		if _, err := sess.SetText(r.Context(), *req.Text); err != nil {
			s.sessions.Delete(sess.ID())
			s.writeError(w, err)
			return
		}
	}
	w.Header().Set("Location", "/sessions/"+sess.ID().String())
	s.jsonResponse(w, http.StatusCreated, sessionResponse(sess))
}

// lookupSession resolves the {id} path value
func (s *Server) lookupSession(r *http.Request) (*session.Session, error) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &ErrValidation{Field: "id", Message: "must be a UUID"}
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, &ErrNotFound{Resource: "session", ID: raw}
	}
	return sess, nil
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sessionResponse(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.sessions.Delete(sess.ID())
	w.WriteHeader(http.StatusNoContent)
}

// handleSetText replaces the session text and re-scans
func (s *Server) handleSetText(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req SetTextRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	result, err := sess.SetText(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleIssueAction accepts, ignores or resets one issue. Unknown issue ids
// are a no-op, reported with changed=false.
func (s *Server) handleIssueAction(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sess.Result() == nil {
		s.writeError(w, &ErrValidation{Field: "text", Message: "session has no analyzed text"})
		return
	}

	issueID := r.PathValue("issue_id")
	var changed bool
	switch action := strings.ToLower(r.PathValue("action")); action {
	case "accept":
		changed = sess.AcceptIssue(issueID)
	case "ignore":
		changed = sess.IgnoreIssue(issueID)
	case "reset":
		changed = sess.ResetIssue(issueID)
	default:
		s.writeError(w, &ErrValidation{Field: "action", Message: fmt.Sprintf("unknown action %q (accept, ignore, reset)", action)})
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"changed": changed,
		"result":  sess.Result(),
	})
}

func (s *Server) handleAcceptAll(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	n := sess.AcceptAll()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"accepted": n,
		"result":   sess.Result(),
	})
}

// handleRewrite applies the accepted suggestions
func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req RewriteRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	var resp RewriteResponse
	if req.SkipConflicts {
		resp.Text, resp.Conflicts, err = sess.RewriteNonConflicting()
	} else {
		resp.Text, err = sess.Rewrite()
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	if req.Apply {
		resp.Result, err = sess.SetText(r.Context(), resp.Text)
		if err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleExport serves the session text as a plain-text attachment.
// ?variant=rewritten (default) applies accepted suggestions first.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	variant := r.URL.Query().Get("variant")
	var text string
	switch variant {
	case "", "rewritten":
		variant = "rewritten"
		text, err = sess.Rewrite()
		if err != nil {
			s.writeError(w, err)
			return
		}
	case "original":
		text = sess.Text()
	default:
		s.writeError(w, &ErrValidation{Field: "variant", Message: "must be rewritten or original"})
		return
	}

	filename := fmt.Sprintf("%s-%s.txt", sess.ID(), variant)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}
