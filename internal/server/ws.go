// internal/server/ws.go
//
// WebSocket feed gateway.
//
// A connection subscribes to one game and receives the viewer's
// redacted view of every committed version, in commit order. The
// socket is push-only: actions go over the HTTP endpoint, so a slow
// or chatty client can never hold a game lock.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/adidanco/scambodia/internal/engine"
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.identify(w, r)
	if !ok {
		return
	}
	gameID, ok := s.gameID(w, r)
	if !ok {
		return
	}

	// Verify the viewer is seated before upgrading; spectators get the
	// same 404 as a missing game.
	if _, _, err := s.engine.GetView(r.Context(), gameID, ident.PlayerID); err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	log := s.log.WithFields(logrus.Fields{
		"game_id": gameID, "player_id": ident.PlayerID,
	})
	log.Info("feed subscriber connected")

	// CloseRead surfaces client disconnects; inbound frames are not part
	// of the protocol and close the connection.
	ctx := conn.CloseRead(r.Context())

	snapshots, cancel := s.hub.Subscribe(gameID)
	defer cancel()

	// Initial full state so the client need not race the next commit.
	view, _, err := s.engine.GetView(ctx, gameID, ident.PlayerID)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "state unavailable")
		return
	}
	if err := wsjson.Write(ctx, conn, view); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("feed subscriber disconnected")
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case snap, open := <-snapshots:
			if !open {
				conn.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			if err := s.sendSnapshot(ctx, conn, ident.PlayerID, snap); err != nil {
				if !errors.Is(err, context.Canceled) {
					log.WithError(err).Debug("feed write failed")
				}
				return
			}
		}
	}
}

// sendSnapshot redacts one committed snapshot for the viewer and writes
// it to the socket.
func (s *Server) sendSnapshot(ctx context.Context, conn *websocket.Conn, viewerID uuid.UUID, snap engine.Snapshot) error {
	view := snap.State.ViewFor(viewerID)
	view.Version = snap.Version
	return wsjson.Write(ctx, conn, view)
}
