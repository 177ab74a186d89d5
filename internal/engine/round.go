// internal/engine/round.go
//
// Round lifecycle: Setup → Playing →
// FinalTurn → Scoring → Complete.
package engine

import (
	"math/rand"

	"github.com/google/uuid"
)

// startRound deals round n from a freshly shuffled deck and opens the
// Setup peek window over every player's bottom two positions. The deal
// rotates: dealer seat is (n-1) mod seats, first card to the dealer's
// successor.
func (g *GameState) startRound(n int, rng *rand.Rand) {
	deck := shuffledDeck(rng)
	dealerSeat := (n - 1) % len(g.Players)

	r := &RoundState{
		Number:     n,
		Phase:      PhaseSetup,
		DealerSeat: dealerSeat,
		Hands:      make(map[uuid.UUID]*Hand, len(g.Players)),
		PeekAcked:  make(map[uuid.UUID]bool, len(g.Players)),
	}

	for _, p := range g.Players {
		r.Hands[p.UserID] = &Hand{}
	}
	for slot := 0; slot < HandSize; slot++ {
		for i := 0; i < len(g.Players); i++ {
			p := g.playerBySeat(dealerSeat + 1 + i)
			card := deck[len(deck)-1]
			deck = deck[:len(deck)-1]
			r.Hands[p.UserID][slot] = &card
		}
	}

	// Flip the top card to seed the discard pile; the rest is the draw pile.
	r.DiscardPile = []Card{deck[len(deck)-1]}
	r.DrawPile = deck[:len(deck)-1]

	// Setup peek: each player may look at their own bottom two positions
	// until the round advances to Playing.
	for _, p := range g.Players {
		for _, pos := range []int{2, 3} {
			r.Reveals = append(r.Reveals, Reveal{
				ViewerID: p.UserID,
				OwnerID:  p.UserID,
				Position: pos,
				Source:   RevealSetupPeek,
			})
		}
	}

	g.Rounds[n] = r
	g.CurrentRoundNumber = n
}

// applyPeekComplete records a player's peek-complete signal for the
// addressed round. Signals for superseded rounds or phases return a
// success-no-op so client retries stay safe.
func (g *GameState) applyPeekComplete(req ActionRequest) (bool, error) {
	if req.RoundNumber > g.CurrentRoundNumber {
		return false, validationf("round %d has not started", req.RoundNumber)
	}
	if req.RoundNumber < g.CurrentRoundNumber {
		return false, nil
	}
	r := g.CurrentRound()
	if r.Phase != PhaseSetup {
		return false, nil
	}
	if r.PeekAcked[req.PlayerID] {
		return false, nil
	}

	r.PeekAcked[req.PlayerID] = true
	for _, p := range g.Players {
		if !r.PeekAcked[p.UserID] {
			return true, nil
		}
	}
	g.startPlaying(r)
	return true, nil
}

// startPlaying closes the Setup peek window and hands the first turn to
// the dealer's successor.
func (g *GameState) startPlaying(r *RoundState) {
	r.Phase = PhasePlaying
	r.PeekAcked = nil
	kept := r.Reveals[:0]
	for _, rv := range r.Reveals {
		if rv.Source != RevealSetupPeek {
			kept = append(kept, rv)
		}
	}
	r.Reveals = kept
	r.CurrentTurnPlayerID = g.playerBySeat(r.DealerSeat + 1).UserID
}

// advanceTurn is the single mutation that moves CurrentTurnPlayerID.
// It proceeds seat-order clockwise, skipping no one. During FinalTurn it
// counts down the frozen turn budget and hands the round to Scoring once
// the cursor would return to the declarer.
func (g *GameState) advanceTurn(r *RoundState, rng *rand.Rand) {
	r.DrawnFromDeck = false

	if r.Phase == PhaseFinalTurn {
		r.FinalTurnsLeft--
		if r.FinalTurnsLeft <= 0 {
			g.finishRound(r, rng)
			return
		}
	}

	next := g.playerBySeat(g.seatOf(r.CurrentTurnPlayerID) + 1)
	r.CurrentTurnPlayerID = next.UserID
	r.purgeRevealsOnTurnStart(next.UserID)
}

// dropRevealsAt removes every reveal grant pointing at ownerID's slot
// pos. A grant records one sighting of one card; once the slot's card
// changes the grant is stale and must not show the replacement.
func (r *RoundState) dropRevealsAt(ownerID uuid.UUID, pos int) {
	kept := r.Reveals[:0]
	for _, rv := range r.Reveals {
		if rv.OwnerID == ownerID && rv.Position == pos {
			continue
		}
		kept = append(kept, rv)
	}
	r.Reveals = kept
}

// purgeRevealsOnTurnStart drops reveal grants whose window closes when
// playerID's turn begins. Power peeks last until the peeking player's
// own next turn; purging before the document is served keeps stale
// entries from leaking card knowledge.
func (r *RoundState) purgeRevealsOnTurnStart(playerID uuid.UUID) {
	kept := r.Reveals[:0]
	for _, rv := range r.Reveals {
		if rv.ExpiresOnTurnOf == playerID {
			continue
		}
		kept = append(kept, rv)
	}
	r.Reveals = kept
}
