// Package server exposes the engine over HTTP and WebSocket. It owns
// request decoding, identity verification and the error-kind mapping;
// all game semantics live in internal/engine.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/adidanco/scambodia/internal/auth"
	"github.com/adidanco/scambodia/internal/engine"
	"github.com/adidanco/scambodia/internal/feed"
)

// Server routes action requests into the engine and streams committed
// documents back out.
type Server struct {
	engine   *engine.Engine
	hub      *feed.Hub
	verifier *auth.Verifier
	log      *logrus.Logger
	mux      *http.ServeMux
}

// New wires the gateway.
func New(eng *engine.Engine, hub *feed.Hub, verifier *auth.Verifier, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	s := &Server{engine: eng, hub: hub, verifier: verifier, log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /games", s.handleCreateGame)
	s.mux.HandleFunc("POST /games/{id}/join", s.handleJoinGame)
	s.mux.HandleFunc("POST /games/{id}/actions", s.handleAction)
	s.mux.HandleFunc("GET /games/{id}/state", s.handleState)
	s.mux.HandleFunc("GET /games/{id}/ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// actionResponse is the uniform action-request envelope.
type actionResponse struct {
	Success             bool   `json:"success"`
	ErrorKind           string `json:"errorKind,omitempty"`
	Error               string `json:"error,omitempty"`
	Applied             bool   `json:"applied,omitempty"`
	UpdatedStateVersion int64  `json:"updatedStateVersion,omitempty"`
}

// identify authenticates the request or writes a 401.
func (s *Server) identify(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	ident, err := s.verifier.FromRequest(r)
	if err != nil {
		s.writeError(w, err)
		return auth.Identity{}, false
	}
	return ident, true
}

// gameID parses the path's game id or writes a 400.
func (s *Server) gameID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, actionResponse{
			Success: false, ErrorKind: "validation", Error: "invalid game id",
		})
		return uuid.Nil, false
	}
	return id, true
}

type createGameRequest struct {
	SeatCount      int   `json:"seatCount"`
	TotalRounds    int   `json:"totalRounds"`
	WagerPerPlayer int64 `json:"wagerPerPlayer"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.identify(w, r)
	if !ok {
		return
	}
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, actionResponse{
			Success: false, ErrorKind: "validation", Error: "malformed request body",
		})
		return
	}

	host := engine.PlayerInfo{UserID: ident.PlayerID, Username: ident.Username}
	g, version, err := s.engine.CreateGame(r.Context(), host, req.SeatCount, req.TotalRounds, req.WagerPerPlayer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	view := g.ViewFor(ident.PlayerID)
	view.Version = version
	s.writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.identify(w, r)
	if !ok {
		return
	}
	gameID, ok := s.gameID(w, r)
	if !ok {
		return
	}

	player := engine.PlayerInfo{UserID: ident.PlayerID, Username: ident.Username}
	g, version, err := s.engine.JoinGame(r.Context(), gameID, player)
	if err != nil {
		s.writeError(w, err)
		return
	}
	view := g.ViewFor(ident.PlayerID)
	view.Version = version
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.identify(w, r)
	if !ok {
		return
	}
	gameID, ok := s.gameID(w, r)
	if !ok {
		return
	}

	var req engine.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, actionResponse{
			Success: false, ErrorKind: "validation", Error: "malformed request body",
		})
		return
	}
	// The path and the verified identity are authoritative, never the body.
	req.GameID = gameID
	req.PlayerID = ident.PlayerID

	result, err := s.engine.SubmitAction(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, actionResponse{
		Success:             true,
		Applied:             result.Applied,
		UpdatedStateVersion: result.Version,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.identify(w, r)
	if !ok {
		return
	}
	gameID, ok := s.gameID(w, r)
	if !ok {
		return
	}

	view, _, err := s.engine.GetView(r.Context(), gameID, ident.PlayerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// writeError maps the engine taxonomy onto HTTP. Validation failures
// surface their reason; anything unexpected is reported generically.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		s.writeJSON(w, http.StatusUnauthorized, actionResponse{
			Success: false, ErrorKind: "unauthorized", Error: "authentication required",
		})
	case errors.Is(err, engine.ErrValidation):
		s.writeJSON(w, http.StatusBadRequest, actionResponse{
			Success: false, ErrorKind: "validation", Error: err.Error(),
		})
	case errors.Is(err, engine.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, actionResponse{
			Success: false, ErrorKind: "not_found", Error: err.Error(),
		})
	case errors.Is(err, engine.ErrVersionConflict):
		s.writeJSON(w, http.StatusConflict, actionResponse{
			Success: false, ErrorKind: "conflict", Error: "stale state, please retry",
		})
	default:
		s.log.WithError(err).Error("request failed")
		s.writeJSON(w, http.StatusInternalServerError, actionResponse{
			Success: false, ErrorKind: "internal", Error: "internal error",
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("write response")
	}
}
