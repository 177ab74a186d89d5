// internal/engine/view.go
//
// Per-player redaction of the game document.
//
// Card content reaches a player only through the Setup peek, a resolved
// power peek, or the public discard top. The view is derived from the
// document's reveal grants on every request, never mutated ad hoc.
package engine

import "github.com/google/uuid"

// ViewCard is one hand slot as seen by a particular viewer. Card is nil
// for a face-down slot; Vacant marks a slot matched away.
type ViewCard struct {
	Vacant bool  `json:"vacant,omitempty"`
	Card   *Card `json:"card,omitempty"`
}

// ViewPlayer is one seat as seen by the viewer.
type ViewPlayer struct {
	UserID        uuid.UUID            `json:"userId"`
	Username      string               `json:"username"`
	Seat          int                  `json:"seat"`
	Hand          [HandSize]ViewCard   `json:"hand"`
	IsCurrentTurn bool                 `json:"isCurrentTurn"`
	HasDeclared   bool                 `json:"hasDeclared"`
}

// ViewRound is the current round as seen by the viewer.
type ViewRound struct {
	Number              int          `json:"number"`
	Phase               Phase        `json:"phase"`
	CurrentTurnPlayerID uuid.UUID    `json:"currentTurnPlayerId,omitempty"`
	DrawPileSize        int          `json:"drawPileSize"`
	DiscardPileSize     int          `json:"discardPileSize"`
	DiscardTop          *Card        `json:"discardTop,omitempty"`
	DrawnCard           *Card        `json:"drawnCard,omitempty"` // populated only for the drawing player
	DrawnCardOwnerID    uuid.UUID    `json:"drawnCardOwnerId,omitempty"`
	Power               *PowerState  `json:"power,omitempty"`
	DeclaredBy          uuid.UUID    `json:"declaredBy,omitempty"`
	Scores              map[uuid.UUID]int `json:"scores,omitempty"`
	AwaitingPeekAck     []uuid.UUID  `json:"awaitingPeekAck,omitempty"`
}

// PlayerView is the feed/poll payload a single player receives.
type PlayerView struct {
	GameID           uuid.UUID         `json:"gameId"`
	Version          int64             `json:"version"`
	ViewerID         uuid.UUID         `json:"viewerId"`
	Status           GameStatus        `json:"status"`
	SeatCount        int               `json:"seatCount"`
	TotalRounds      int               `json:"totalRounds"`
	WagerPerPlayer   int64             `json:"wagerPerPlayer"`
	CurrentRound     *ViewRound        `json:"currentRound,omitempty"`
	Players          []ViewPlayer      `json:"players"`
	CumulativeScores map[uuid.UUID]int `json:"cumulativeScores"`
	ScambodiaCalls   map[uuid.UUID]int `json:"scambodiaCalls"`
	GameWinnerID     uuid.UUID         `json:"gameWinnerId,omitempty"`
	IsDraw           bool              `json:"isDraw,omitempty"`
}

// ViewFor redacts the document for viewerID. Only positions covered by
// an unexpired reveal grant are face-up; everything else shows backs.
func (g *GameState) ViewFor(viewerID uuid.UUID) *PlayerView {
	view := &PlayerView{
		GameID:           g.GameID,
		ViewerID:         viewerID,
		Status:           g.Status,
		SeatCount:        g.SeatCount,
		TotalRounds:      g.TotalRounds,
		WagerPerPlayer:   g.WagerPerPlayer,
		CumulativeScores: g.CumulativeScores,
		ScambodiaCalls:   g.ScambodiaCalls,
		GameWinnerID:     g.GameWinnerID,
		IsDraw:           g.IsDraw,
	}

	r := g.CurrentRound()
	view.Players = make([]ViewPlayer, len(g.Players))
	for i, p := range g.Players {
		vp := ViewPlayer{
			UserID:   p.UserID,
			Username: p.Username,
			Seat:     p.Seat,
		}
		if r != nil {
			vp.IsCurrentTurn = r.CurrentTurnPlayerID == p.UserID
			vp.HasDeclared = r.DeclaredBy == p.UserID
			if hand := r.Hands[p.UserID]; hand != nil {
				for pos, c := range hand {
					if c == nil {
						vp.Hand[pos] = ViewCard{Vacant: true}
						continue
					}
					if r.revealedTo(viewerID, p.UserID, pos) {
						card := *c
						vp.Hand[pos] = ViewCard{Card: &card}
					}
				}
			}
		}
		view.Players[i] = vp
	}

	if r != nil {
		vr := &ViewRound{
			Number:              r.Number,
			Phase:               r.Phase,
			CurrentTurnPlayerID: r.CurrentTurnPlayerID,
			DrawPileSize:        len(r.DrawPile),
			DiscardPileSize:     len(r.DiscardPile),
			DeclaredBy:          r.DeclaredBy,
			Scores:              r.Scores,
		}
		if top := r.discardTop(); top != nil {
			card := *top
			vr.DiscardTop = &card
		}
		if r.DrawnCard != nil {
			vr.DrawnCardOwnerID = r.DrawnCardOwnerID
			if r.DrawnCardOwnerID == viewerID {
				card := *r.DrawnCard
				vr.DrawnCard = &card
			}
		}
		if r.Power != nil {
			// The pending power itself is public; target selections are
			// only indices and stay visible.
			power := *r.Power
			vr.Power = &power
		}
		if r.Phase == PhaseSetup {
			for _, p := range g.Players {
				if !r.PeekAcked[p.UserID] {
					vr.AwaitingPeekAck = append(vr.AwaitingPeekAck, p.UserID)
				}
			}
		}
		view.CurrentRound = vr
	}

	return view
}

// revealedTo reports whether viewerID currently holds a reveal grant for
// ownerID's card at pos.
func (r *RoundState) revealedTo(viewerID, ownerID uuid.UUID, pos int) bool {
	for _, rv := range r.Reveals {
		if rv.ViewerID == viewerID && rv.OwnerID == ownerID && rv.Position == pos {
			return true
		}
	}
	return false
}
