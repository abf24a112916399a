// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/timesync/timesync/internal/confirm"
	"github.com/timesync/timesync/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Match runs the availability pipeline for stored groups.
	Match(ctx context.Context, req model.MatchRequest) ([]model.Candidate, error)

	// StartConfirmation opens a session over ranked candidates.
	StartConfirmation(ctx context.Context, candidates []model.Candidate, deadline time.Duration) (*confirm.Session, error)

	// Session looks up a live or recently terminated session.
	Session(id uuid.UUID) (*confirm.Session, bool)

	// SubmitEvent routes one confirmation event to its session. Returns
	// false when the session stream no longer accepts events.
	SubmitEvent(ctx context.Context, ev confirm.Event) bool
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	matchHandler    *MatchHandler
	sessionsHandler *SessionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		matchHandler:    NewMatchHandler(deps),
		sessionsHandler: NewSessionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/api/availability/match", MetricsMiddleware(s.matchHandler.HandleMatch, "match"))
	mux.HandleFunc("/api/availability/match/confirm", MetricsMiddleware(s.matchHandler.HandleConfirm, "match_confirm"))
	mux.HandleFunc("/api/sessions/", MetricsMiddleware(s.sessionsHandler.HandleSessions, "sessions"))
}

// matchResult mirrors the wire schema of one candidate window.
type matchResult struct {
	Start     string             `json:"start"`
	End       string             `json:"end"`
	Recurring bool               `json:"recurring"`
	Day       string             `json:"day,omitempty"`
	Groups    []matchGroupResult `json:"groups"`
}

type matchGroupResult struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	AvailableUsers []string  `json:"available_users"`
	Count          int       `json:"count"`
}

type matchResponse struct {
	Matches []matchResult `json:"matches"`
}

// toMatchResponse converts candidates to the wire shape. Dated windows carry
// RFC3339 instants; recurring windows carry hour-of-day stamps plus the day
// name.
func toMatchResponse(candidates []model.Candidate) matchResponse {
	resp := matchResponse{Matches: make([]matchResult, 0, len(candidates))}
	for _, c := range candidates {
		m := matchResult{Groups: make([]matchGroupResult, 0, len(c.PerGroup))}
		switch w := c.Window.(type) {
		case model.Dated:
			m.Start = w.Start.Format(time.RFC3339)
			m.End = w.End.Format(time.RFC3339)
		case model.Recurring:
			m.Recurring = true
			m.Day = w.Day.String()
			m.Start = hourStamp(w.StartHour)
			m.End = hourStamp(w.EndHour)
		}
		for _, g := range c.PerGroup {
			m.Groups = append(m.Groups, matchGroupResult{
				ID:             g.GroupID,
				Name:           g.Name,
				AvailableUsers: g.Attending,
				Count:          len(g.Attending),
			})
		}
		resp.Matches = append(resp.Matches, m)
	}
	return resp
}

func hourStamp(h int) string {
	return time.Date(0, 1, 1, h, 0, 0, 0, time.UTC).Format("15:04")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
