package server

import (
	"log"
	"net/http"

	"github.com/jonathan/bias-detector/internal/catalog"
	"github.com/jonathan/bias-detector/internal/session"
	"github.com/jonathan/bias-detector/internal/types"
)

// RulesResponse is the body of GET /rules
type RulesResponse struct {
	Version    string           `json:"version"`
	Count      int              `json:"count"`
	Categories []types.Category `json:"categories"`
	Rules      []types.Rule     `json:"rules"`
}

func rulesResponse(cat *catalog.Catalog) RulesResponse {
	return RulesResponse{
		Version:    cat.Version(),
		Count:      cat.Len(),
		Categories: cat.Categories(),
		Rules:      cat.Rules(),
	}
}

// handleListRules returns the active catalog, optionally filtered by
// ?category=
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	resp := rulesResponse(s.catalogs.Load())
	if category := r.URL.Query().Get("category"); category != "" {
		filtered := make([]types.Rule, 0, len(resp.Rules))
		for _, rule := range resp.Rules {
			if string(rule.Category) == category {
				filtered = append(filtered, rule)
			}
		}
		resp.Rules = filtered
		resp.Count = len(filtered)
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleReloadRules re-reads the catalog file. Existing sessions keep the
// catalog they were created with.
func (s *Server) handleReloadRules(w http.ResponseWriter, _ *http.Request) {
	if s.catalogPath == "" {
		s.writeError(w, &ErrReloadDisabled{})
		return
	}
	previous := s.catalogs.Load().Version()
	cat, err := s.catalogs.Reload(s.catalogPath)
	if err != nil {
		log.Printf("[server] catalog reload failed, keeping %s: %v", previous, err)
		s.writeError(w, err)
		return
	}
	log.Printf("[server] catalog reloaded: %s -> %s (%d rules)", previous, cat.Version(), cat.Len())
	s.jsonResponse(w, http.StatusOK, rulesResponse(cat))
}

// AnalyzeRequest is the body of POST /analyze
type AnalyzeRequest struct {
	Text          string `json:"text" validate:"max=1000000"`
	InclusiveMode *bool  `json:"inclusive_mode,omitempty"`
}

// handleAnalyze scans a text without keeping any state
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	sess := session.New(s.catalogs.Load(), s.scorer, s.sessionOptions(req.InclusiveMode))
	result, err := sess.SetText(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) sessionOptions(inclusive *bool) session.Options {
	opts := session.Options{InclusiveMode: s.inclusive, Verbose: s.verbose}
	if inclusive != nil {
		opts.InclusiveMode = *inclusive
	}
	return opts
}
