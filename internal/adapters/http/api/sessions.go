package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/timesync/timesync/internal/confirm"
)

// SessionsHandler handles confirmation session requests.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// eventRequest mirrors the wire schema of one accept/decline submission.
type eventRequest struct {
	ParticipantID  string `json:"participant_id"`
	CandidateIndex int    `json:"candidate_index"`
	Accept         bool   `json:"accept"`
}

type eventAckResponse struct {
	Status string `json:"status"`
}

type candidateProgressResponse struct {
	ConfirmedPerGroup map[string]int `json:"confirmed_per_group"`
	Quorum            bool           `json:"quorum"`
}

type sessionResponse struct {
	SessionID      string                      `json:"session_id"`
	State          string                      `json:"state"`
	ConfirmedIndex *int                        `json:"confirmed_index,omitempty"`
	Candidates     []candidateProgressResponse `json:"candidates"`
}

// HandleSessions routes /api/sessions/{id}[/events|/cancel].
func (h *SessionsHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	const op = "api.sessions"
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	idPart, action, _ := strings.Cut(rest, "/")
	id, err := uuid.Parse(idPart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sess, ok := h.deps.Session(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleStatus(w, sess)
	case action == "events" && r.Method == http.MethodPost:
		h.handleEvent(w, r, sess)
	case action == "cancel" && r.Method == http.MethodPost:
		sess.Cancel()
		writeJSON(w, http.StatusAccepted, eventAckResponse{Status: "cancelling"})
	default:
		http.NotFound(w, r)
	}
}

func (h *SessionsHandler) handleStatus(w http.ResponseWriter, sess *confirm.Session) {
	snap := sess.Snapshot()
	resp := sessionResponse{
		SessionID:  snap.ID.String(),
		State:      string(snap.State),
		Candidates: make([]candidateProgressResponse, 0, len(snap.Candidates)),
	}
	if snap.State == confirm.StateConfirmed {
		idx := snap.Confirmed
		resp.ConfirmedIndex = &idx
	}
	for _, c := range snap.Candidates {
		progress := candidateProgressResponse{
			ConfirmedPerGroup: make(map[string]int, len(c.Confirmed)),
			Quorum:            c.Quorum,
		}
		for groupID, n := range c.Confirmed {
			progress.ConfirmedPerGroup[groupID.String()] = n
		}
		resp.Candidates = append(resp.Candidates, progress)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionsHandler) handleEvent(w http.ResponseWriter, r *http.Request, sess *confirm.Session) {
	const op = "api.session_event"
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.ParticipantID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	ev := confirm.Event{
		SessionID:      sess.ID(),
		ParticipantID:  req.ParticipantID,
		CandidateIndex: req.CandidateIndex,
		Accept:         req.Accept,
	}
	if ok := h.deps.SubmitEvent(r.Context(), ev); !ok {
		// The subscription is gone once the session terminates.
		writeError(w, http.StatusConflict, "session_closed", confirm.ErrSessionClosed)
		return
	}
	writeJSON(w, http.StatusAccepted, eventAckResponse{Status: "accepted"})
}
