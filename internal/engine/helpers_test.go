// internal/engine/helpers_test.go
//
// Shared fixtures for the engine
// package tests. Documents are built directly so each test controls the
// exact cards in play.
package engine

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newTestGame builds a Playing game with n seated players and round one
// dealt from a deterministic shuffle.
func newTestGame(t *testing.T, n int) (*GameState, *rand.Rand) {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	g := &GameState{
		GameID:           uuid.New(),
		Status:           StatusPlaying,
		SeatCount:        n,
		TotalRounds:      1,
		WagerPerPlayer:   100,
		Rounds:           make(map[int]*RoundState),
		CumulativeScores: make(map[uuid.UUID]int),
		ScambodiaCalls:   make(map[uuid.UUID]int),
	}
	for i := 0; i < n; i++ {
		p := PlayerInfo{
			UserID:   uuid.New(),
			Username: fmt.Sprintf("player%c", 'A'+i),
			Seat:     i,
		}
		g.Players = append(g.Players, p)
		g.CumulativeScores[p.UserID] = 0
		g.ScambodiaCalls[p.UserID] = 0
	}
	g.startRound(1, rng)
	return g, rng
}

// ackAllPeeks signals peek-complete for every player, moving the round
// from Setup to Playing.
func ackAllPeeks(t *testing.T, g *GameState, rng *rand.Rand) {
	t.Helper()
	for _, p := range g.Players {
		_, err := g.apply(ActionRequest{
			PlayerID:    p.UserID,
			Type:        ActionPeekComplete,
			RoundNumber: g.CurrentRoundNumber,
		}, rng)
		require.NoError(t, err)
	}
	require.Equal(t, PhasePlaying, g.CurrentRound().Phase)
}

// mustApply applies a request expecting a state mutation.
func mustApply(t *testing.T, g *GameState, req ActionRequest, rng *rand.Rand) {
	t.Helper()
	applied, err := g.apply(req, rng)
	require.NoError(t, err)
	require.True(t, applied)
}

// plantDraw arranges for the next deck draw to yield card by swapping
// it to the top of the draw pile from wherever it currently sits. The
// swap keeps the round's card census intact.
func plantDraw(t *testing.T, r *RoundState, card Card) {
	t.Helper()
	top := len(r.DrawPile) - 1
	require.GreaterOrEqual(t, top, 0)
	for i, c := range r.DrawPile {
		if c == card {
			r.DrawPile[i], r.DrawPile[top] = r.DrawPile[top], r.DrawPile[i]
			return
		}
	}
	for i, c := range r.DiscardPile {
		if c == card {
			r.DiscardPile[i], r.DrawPile[top] = r.DrawPile[top], r.DiscardPile[i]
			return
		}
	}
	for _, hand := range r.Hands {
		for i, c := range hand {
			if c != nil && *c == card {
				swapped := r.DrawPile[top]
				r.DrawPile[top] = *c
				hand[i] = &swapped
				return
			}
		}
	}
	t.Fatalf("card %s not found in round", card)
}

// requireFullDeck asserts the round still holds exactly one standard
// 52-card deck across all piles and hands.
func requireFullDeck(t *testing.T, r *RoundState) {
	t.Helper()
	census := r.CardCensus()
	total := 0
	for c, n := range census {
		require.Equal(t, 1, n, "card %s appears %d times", c, n)
		total += n
	}
	require.Equal(t, DeckSize, total)
}

func intp(v int) *int             { return &v }
func boolp(v bool) *bool          { return &v }
func uuidp(v uuid.UUID) *uuid.UUID { return &v }
