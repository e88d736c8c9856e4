// Package session tracks the analysis of one editable document over time.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/bias-detector/internal/catalog"
	"github.com/jonathan/bias-detector/internal/rewriting"
	"github.com/jonathan/bias-detector/internal/scanner"
	"github.com/jonathan/bias-detector/internal/scoring"
	"github.com/jonathan/bias-detector/internal/tracker"
	"github.com/jonathan/bias-detector/internal/types"
)

// ErrSuperseded is returned by SetText when a newer SetText started before
// this one could commit. The superseded result is discarded.
var ErrSuperseded = errors.New("scan superseded by a newer text")

// State is the lifecycle state of a session
type State string

// States
const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
	StateReady    State = "ready"
)

// Options configures a session.
type Options struct {
	// InclusiveMode accepts newly detected issues automatically.
	InclusiveMode bool
	// Verbose logs scan commits and discards.
	Verbose bool
	// Now overrides the clock for AnalyzedAt.
	Now func() time.Time
}

// Session owns the text, issues and latest result of one document.
//
// Writers are expected to serialise SetText calls. If they race anyway, the
// most recently started scan wins and older scans are discarded.
type Session struct {
	id      uuid.UUID
	scanner *scanner.Scanner
	cat     *catalog.Catalog
	scorer  *scoring.Scorer
	opts    Options

	mu         sync.Mutex
	state      State
	generation uint64
	text       string
	tracker    *tracker.Tracker
	score      types.ScoreBreakdown
	analyzedAt time.Time
	result     *types.AnalysisResult // cached snapshot, nil when dispositions changed
	committed  bool

	// afterScan runs between scanning and committing; tests use it to
	// interleave writers.
	afterScan func()
}

// New creates an idle session. cat must be a validated catalog; catalog
// errors surface when the catalog is built, before any session exists.
func New(cat *catalog.Catalog, scorer *scoring.Scorer, opts Options) *Session {
	if scorer == nil {
		scorer = scoring.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	trackerOpts := tracker.Options{}
	if opts.InclusiveMode {
		trackerOpts.InitialDisposition = types.DispositionAccepted
	}
	return &Session{
		id:      uuid.New(),
		scanner: scanner.New(cat),
		cat:     cat,
		scorer:  scorer.WithCategories(cat.Categories()),
		opts:    opts,
		state:   StateIdle,
		tracker: tracker.New(trackerOpts),
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// CatalogVersion returns the version of the catalog the session scans with.
func (s *Session) CatalogVersion() string {
	return s.cat.Version()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Text returns the text of the latest committed result.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// SetText scans text and commits the result unless a newer SetText started
// in the meantime. The scan itself runs without holding the session lock.
func (s *Session) SetText(ctx context.Context, text string) (*types.AnalysisResult, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.state = StateScanning
	s.mu.Unlock()

	matches := s.scanner.Scan(text)
	score := s.scorer.Score(matches, text)
	if s.afterScan != nil {
		s.afterScan()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		if s.opts.Verbose {
			log.Printf("[session] %s: discarding superseded scan %d (latest %d)", s.id, gen, s.generation)
		}
		return nil, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		s.settle()
		return nil, err
	}

	s.text = text
	s.tracker.Update(matches, s.cat)
	s.score = score
	s.analyzedAt = s.opts.Now().UTC()
	s.result = nil
	s.committed = true
	s.state = StateReady

	if s.opts.Verbose {
		log.Printf("[session] %s: committed scan %d with %d issue(s), score %d", s.id, gen, s.tracker.Len(), score.DiversityScore)
	}
	return s.snapshot(), nil
}

// Result returns the most recent committed result, or nil before the first
// commit. Disposition changes are reflected without re-scanning.
func (s *Session) Result() *types.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.committed {
		return nil
	}
	return s.snapshot()
}

// AcceptIssue accepts an issue. Unknown ids are ignored.
func (s *Session) AcceptIssue(id string) bool {
	return s.mutate(func(t *tracker.Tracker) bool { return t.Accept(id) })
}

// IgnoreIssue ignores an issue. Unknown ids are ignored.
func (s *Session) IgnoreIssue(id string) bool {
	return s.mutate(func(t *tracker.Tracker) bool { return t.Ignore(id) })
}

// ResetIssue returns an issue to pending. Unknown ids are ignored.
func (s *Session) ResetIssue(id string) bool {
	return s.mutate(func(t *tracker.Tracker) bool { return t.Reset(id) })
}

// AcceptAll accepts every pending issue and returns how many changed.
func (s *Session) AcceptAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.tracker.AcceptAll()
	if n > 0 {
		s.result = nil
	}
	return n
}

// Rewrite applies the accepted issues to the committed text. The session
// is not changed; feed the returned text to SetText to analyse it.
func (s *Session) Rewrite() (string, error) {
	s.mu.Lock()
	text, issues := s.text, s.tracker.Issues()
	s.mu.Unlock()
	return rewriting.ApplySuggestions(text, issues, rewriting.Accepted)
}

// RewriteNonConflicting applies accepted issues, skipping overlaps.
func (s *Session) RewriteNonConflicting() (string, []rewriting.Conflict, error) {
	s.mu.Lock()
	text, issues := s.text, s.tracker.Issues()
	s.mu.Unlock()
	return rewriting.ApplyNonConflicting(text, issues, rewriting.Accepted)
}

func (s *Session) mutate(fn func(*tracker.Tracker) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := fn(s.tracker)
	if changed {
		s.result = nil
	}
	return changed
}

// settle restores the state after an aborted scan.
func (s *Session) settle() {
	if s.committed {
		s.state = StateReady
	} else {
		s.state = StateIdle
	}
}

// snapshot builds, or returns the cached, immutable result. Caller holds mu.
func (s *Session) snapshot() *types.AnalysisResult {
	if s.result != nil {
		return s.result
	}
	issues := s.tracker.Issues()

	var unresolved []types.Issue
	for _, issue := range issues {
		if issue.Disposition != types.DispositionAccepted {
			unresolved = append(unresolved, issue)
		}
	}

	s.result = &types.AnalysisResult{
		Text:           s.text,
		Issues:         issues,
		Score:          s.score.Clone(),
		ProjectedScore: s.scorer.ScoreIssues(unresolved, s.text),
		CatalogVersion: s.cat.Version(),
		AnalyzedAt:     s.analyzedAt,
	}
	return s.result
}

// Outcome is the result of an asynchronous SetText.
type Outcome struct {
	Result *types.AnalysisResult
	Err    error
}

// Submit runs SetText on its own goroutine. The channel receives exactly one
// outcome and is then closed.
func (s *Session) Submit(ctx context.Context, text string) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		result, err := s.SetText(ctx, text)
		ch <- Outcome{Result: result, Err: err}
	}()
	return ch
}
