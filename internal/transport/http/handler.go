package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"daily-trivia-service/internal/app"
	"daily-trivia-service/internal/domain"
)

// Handler exposes the session boundary to the external UI layer. The UI
// owns rendering and input wiring; this layer only maps requests onto
// engine operations and errors onto user-visible outcomes.
type Handler struct {
	engine *app.Engine
	reset  *app.ResetCoordinator
}

func NewHandler(engine *app.Engine, reset *app.ResetCoordinator) *Handler {
	return &Handler{engine: engine, reset: reset}
}

// Register wires the handler's routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/session/start", h.start)
	mux.HandleFunc("/session/answer", h.answer)
	mux.HandleFunc("/session/reroll", h.reroll)
	mux.HandleFunc("/session/continue", h.resume)
	mux.HandleFunc("/session/abandon", h.abandon)
	mux.HandleFunc("/session/status", h.status)
	mux.HandleFunc("/session/warm", h.warm)
	mux.HandleFunc("/today", h.today)
}

type sessionRequest struct {
	ParticipantID string `json:"participantId"`
	CommunityID   string `json:"communityId"`
	Selected      string `json:"selected,omitempty"`
}

type sessionResponse struct {
	Session domain.QuizSession `json:"session"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	sess, err := h.engine.Start(r.Context(), req.ParticipantID, req.CommunityID)
	h.respond(w, sess, err)
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	sess, err := h.engine.Answer(r.Context(), req.ParticipantID, req.CommunityID, req.Selected)
	h.respond(w, sess, err)
}

func (h *Handler) reroll(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	sess, err := h.engine.Reroll(r.Context(), req.ParticipantID, req.CommunityID)
	h.respond(w, sess, err)
}

func (h *Handler) resume(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	sess, err := h.engine.Continue(r.Context(), req.ParticipantID, req.CommunityID)
	h.respond(w, sess, err)
}

func (h *Handler) abandon(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	sess, err := h.engine.Abandon(r.Context(), req.ParticipantID, req.CommunityID)
	h.respond(w, sess, err)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	participantID := r.URL.Query().Get("participantId")
	communityID := r.URL.Query().Get("communityId")
	if participantID == "" || communityID == "" {
		h.fail(w, http.StatusBadRequest, "missing participantId or communityId")
		return
	}
	sess, err := h.engine.Get(r.Context(), participantID, communityID)
	h.respond(w, sess, err)
}

// warm kicks off an eager question-set fetch so the confirmed start is
// instant. Always 202: warming is best-effort.
func (h *Handler) warm(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	// The fetch outlives the request: net/http cancels r.Context() as soon
	// as the 202 is written, which would abort the providers mid-flight.
	go h.engine.Warm(context.WithoutCancel(r.Context()), req.ParticipantID, req.CommunityID)
	w.WriteHeader(http.StatusAccepted)
}

// today returns the same-day completion snapshot consumed by the external
// reset job.
func (h *Handler) today(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.reset.Today()
	}
	records, err := h.reset.CompletionsForDay(r.Context(), date)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "snapshot unavailable")
		return
	}
	h.write(w, http.StatusOK, map[string]interface{}{"serviceDate": date, "completions": records})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (sessionRequest, bool) {
	if r.Method != http.MethodPost {
		h.fail(w, http.StatusMethodNotAllowed, "POST required")
		return sessionRequest{}, false
	}
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "malformed request body")
		return sessionRequest{}, false
	}
	if req.ParticipantID == "" || req.CommunityID == "" {
		h.fail(w, http.StatusBadRequest, "missing participantId or communityId")
		return sessionRequest{}, false
	}
	return req, true
}

// respond maps engine errors onto the small set of user-visible outcomes.
func (h *Handler) respond(w http.ResponseWriter, sess domain.QuizSession, err error) {
	switch {
	case err == nil:
		h.write(w, http.StatusOK, sessionResponse{Session: sess})
	case errors.Is(err, domain.ErrAlreadyCompleted):
		h.fail(w, http.StatusConflict, "you already played today")
	case errors.Is(err, domain.ErrActiveSessionExists):
		h.fail(w, http.StatusConflict, "you already have a quiz in progress")
	case errors.Is(err, domain.ErrInsufficientContent):
		h.fail(w, http.StatusServiceUnavailable, "no quiz available right now")
	case errors.Is(err, domain.ErrSessionNotFound):
		h.fail(w, http.StatusNotFound, "quiz session not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		h.fail(w, http.StatusConflict, "that action is not available right now")
	default:
		log.Printf("session operation failed: %v", err)
		h.fail(w, http.StatusInternalServerError, "something went wrong")
	}
}

func (h *Handler) fail(w http.ResponseWriter, status int, message string) {
	h.write(w, status, errorResponse{Message: message})
}

func (h *Handler) write(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
