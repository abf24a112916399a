package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/timesync/timesync/internal/adapters/repository"
	"github.com/timesync/timesync/internal/domain/match"
	"github.com/timesync/timesync/internal/domain/model"
	"github.com/timesync/timesync/internal/domain/normalize"
)

// MatchHandler handles availability match requests.
type MatchHandler struct {
	deps Dependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps Dependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// HandleMatch handles
// GET /api/availability/match?group_ids=a,b&min_per_group=N&count=K.
func (h *MatchHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.match"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	req, err := parseMatchQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	candidates, err := h.deps.Match(r.Context(), req)
	if err != nil {
		writeMatchError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toMatchResponse(candidates))
}

// confirmResponse is the wire shape of a freshly opened session.
type confirmResponse struct {
	SessionID string        `json:"session_id"`
	Deadline  string        `json:"deadline"`
	Matches   []matchResult `json:"matches"`
}

// HandleConfirm handles POST /api/availability/match/confirm. It runs the
// same match pipeline and opens a confirmation session over the result.
func (h *MatchHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	const op = "api.match_confirm"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	query := r.URL.Query()
	req, err := parseMatchQuery(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var deadline time.Duration
	if raw := query.Get("deadline_minutes"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		deadline = time.Duration(minutes) * time.Minute
	}

	candidates, err := h.deps.Match(r.Context(), req)
	if err != nil {
		writeMatchError(w, op, err)
		return
	}
	if len(candidates) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no_candidates",
			errors.New("no matching windows to confirm"))
		return
	}

	sess, err := h.deps.StartConfirmation(r.Context(), candidates, deadline)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	// The session resolves an omitted deadline to the service default, so
	// report its effective value rather than the raw parameter.
	writeJSON(w, http.StatusCreated, confirmResponse{
		SessionID: sess.ID().String(),
		Deadline:  time.Now().UTC().Add(sess.Deadline()).Format(time.RFC3339),
		Matches:   toMatchResponse(candidates).Matches,
	})
}

func parseMatchQuery(q url.Values) (model.MatchRequest, error) {
	var req model.MatchRequest

	raw := strings.TrimSpace(q.Get("group_ids"))
	if raw == "" {
		return req, errors.New("group_ids is required")
	}
	for _, part := range strings.Split(raw, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return req, errors.New("group_ids must be comma-separated UUIDs")
		}
		req.GroupIDs = append(req.GroupIDs, id)
	}

	if raw := q.Get("min_per_group"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return req, errors.New("min_per_group must be a positive integer")
		}
		req.MinPerGroup = n
	}
	if raw := q.Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return req, errors.New("count must be a positive integer")
		}
		req.Count = n
	}
	return req, nil
}

// writeMatchError maps pipeline failures onto HTTP statuses: unknown group
// to 404, invalid groups to 400, normalization faults to 500.
func writeMatchError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrGroupNotFound):
		writeError(w, http.StatusNotFound, "group_not_found", err)
	case errors.Is(err, match.ErrEmptyGroup):
		writeError(w, http.StatusBadRequest, "empty_group", err)
	case errors.Is(err, match.ErrUnsatisfiableGroup):
		writeError(w, http.StatusBadRequest, "unsatisfiable_group", err)
	case errors.Is(err, normalize.ErrInvalidSlot), errors.Is(err, normalize.ErrZoneResolution):
		writeError(w, http.StatusInternalServerError, "normalization_failed", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
