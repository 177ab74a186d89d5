// internal/engine/actions_test.go
package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDrawFromDeckThenDiscard walks the simplest turn: draw a powerless
// card off the deck and discard it.
func TestDrawFromDeckThenDiscard(t *testing.T) {
	g, rng := newTestGame(t, 2)
	ackAllPeeks(t, g, rng)
	r := g.CurrentRound()
	actor := r.CurrentTurnPlayerID

	planted := NewCard(SuitHearts, RankTwo)
	plantDraw(t, r, planted)

	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionDrawFromDeck}, rng)
	require.NotNil(t, r.DrawnCard)
	assert.Equal(t, planted, *r.DrawnCard)
	assert.Equal(t, actor, r.DrawnCardOwnerID)
	assert.True(t, r.DrawnFromDeck)

	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionDiscardDrawn}, rng)
	assert.Nil(t, r.DrawnCard)
	assert.Equal(t, planted, *r.discardTop())
	assert.Nil(t, r.Power, "a 2 grants no power")
	assert.NotEqual(t, actor, r.CurrentTurnPlayerID, "turn must advance after the discard")
	requireFullDeck(t, r)
}

// TestDrawRequiresTurn rejects a draw by the player whose turn it is not.
func TestDrawRequiresTurn(t *testing.T) {
	g, rng := newTestGame(t, 2)
	ackAllPeeks(t, g, rng)
	r := g.CurrentRound()

	var waiter PlayerInfo
	for _, p := range g.Players {
		if p.UserID != r.CurrentTurnPlayerID {
			waiter = p
		}
	}
	_, err := g.apply(ActionRequest{PlayerID: waiter.UserID, Type: ActionDrawFromDeck}, rng)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "not your turn")
}

// TestDoubleDrawRejected stops a second draw within the same turn.
func TestDoubleDrawRejected(t *testing.T) {
	g, rng := newTestGame(t, 2)
	ackAllPeeks(t, g, rng)
	actor := g.CurrentRound().CurrentTurnPlayerID

	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionDrawFromDeck}, rng)
	_, err := g.apply(ActionRequest{PlayerID: actor, Type: ActionDrawFromDeck}, rng)
	require.ErrorIs(t, err, ErrValidation)
	_, err = g.apply(ActionRequest{PlayerID: actor, Type: ActionDrawFromDiscard}, rng)
	require.ErrorIs(t, err, ErrValidation)
}

// TestDrawFromDiscardMustExchange verifies a discard-pile card cannot be
// discarded again or matched; only an exchange resolves it.
func TestDrawFromDiscardMustExchange(t *testing.T) {
	g, rng := newTestGame(t, 2)
	ackAllPeeks(t, g, rng)
	r := g.CurrentRound()
	actor := r.CurrentTurnPlayerID
	taken := *r.discardTop()

	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionDrawFromDiscard}, rng)
	assert.Equal(t, taken, *r.DrawnCard)
	assert.False(t, r.DrawnFromDeck)

	_, err := g.apply(ActionRequest{PlayerID: actor, Type: ActionDiscardDrawn}, rng)
	require.ErrorIs(t, err, ErrValidation)
	_, err = g.apply(ActionRequest{PlayerID: actor, Type: ActionAttemptMatch, Position: intp(0)}, rng)
	require.ErrorIs(t, err, ErrValidation)

	displaced := *r.Hands[actor][1]
	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionExchangeCard, Position: intp(1)}, rng)
	assert.Equal(t, taken, *r.Hands[actor][1], "taken card must land in the chosen slot")
	assert.Equal(t, displaced, *r.discardTop(), "displaced card goes to the discard top")
	assert.Nil(t, r.DrawnCard)
	assert.NotEqual(t, actor, r.CurrentTurnPlayerID)
	requireFullDeck(t, r)
}

// TestExchangeFromDeckDraw swaps a deck-drawn card into the hand.
func TestExchangeFromDeckDraw(t *testing.T) {
	g, rng := newTestGame(t, 2)
	ackAllPeeks(t, g, rng)
	r := g.CurrentRound()
	actor := r.CurrentTurnPlayerID

	planted := NewCard(SuitSpades, RankFour)
	plantDraw(t, r, planted)
	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionDrawFromDeck}, rng)

	displaced := *r.Hands[actor][0]
	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionExchangeCard, Position: intp(0)}, rng)
	assert.Equal(t, planted, *r.Hands[actor][0])
	assert.Equal(t, displaced, *r.discardTop())
	requireFullDeck(t, r)
}

// TestAttemptMatchSuccess removes both cards from play on a rank match
// and leaves the slot permanently vacant.
func TestAttemptMatchSuccess(t *testing.T) {
	g, rng := newTestGame(t, 2)
	ackAllPeeks(t, g, rng)
	r := g.CurrentRound()
	actor := r.CurrentTurnPlayerID

	occupant := *r.Hands[actor][2]
	// Plant a same-rank, different-suit card on top of the draw pile.
	var planted Card
	for _, s := range allSuits {
		if s != occupant.Suit {
			planted = NewCard(s, occupant.Rank)
			break
		}
	}
	plantDraw(t, r, planted)

	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionDrawFromDeck}, rng)
	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionAttemptMatch, Position: intp(2)}, rng)

	assert.Nil(t, r.Hands[actor][2], "matched slot stays vacant")
	n := len(r.DiscardPile)
	require.GreaterOrEqual(t, n, 3)
	assert.Equal(t, occupant, r.DiscardPile[n-1])
	assert.Equal(t, planted, r.DiscardPile[n-2])
	assert.NotEqual(t, actor, r.CurrentTurnPlayerID)
	requireFullDeck(t, r)

	// The vacant slot is dead for the rest of the round.
	next := r.CurrentTurnPlayerID
	plantDraw(t, r, NewCard(SuitHearts, RankThree))
	mustApply(t, g, ActionRequest{PlayerID: next, Type: ActionDrawFromDeck}, rng)
	mustApply(t, g, ActionRequest{PlayerID: next, Type: ActionDiscardDrawn}, rng)

	plantDraw(t, r, NewCard(SuitHearts, RankFive))
	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionDrawFromDeck}, rng)
	_, err := g.apply(ActionRequest{PlayerID: actor, Type: ActionExchangeCard, Position: intp(2)}, rng)
	require.ErrorIs(t, err, ErrValidation)
}

// TestAttemptMatchFailurePenalty forces the drawn card into the slot on
// a mismatch.
func TestAttemptMatchFailurePenalty(t *testing.T) {
	g, rng := newTestGame(t, 2)
	ackAllPeeks(t, g, rng)
	r := g.CurrentRound()
	actor := r.CurrentTurnPlayerID

	occupant := *r.Hands[actor][0]
	var planted Card
	for _, rk := range allRanks {
		if rk != occupant.Rank {
			planted = NewCard(occupant.Suit, rk)
			break
		}
	}
	plantDraw(t, r, planted)

	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionDrawFromDeck}, rng)
	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionAttemptMatch, Position: intp(0)}, rng)

	assert.Equal(t, planted, *r.Hands[actor][0], "drawn card is forced into the slot")
	assert.Equal(t, occupant, *r.discardTop(), "old occupant is exposed on the discard pile")
	assert.NotEqual(t, actor, r.CurrentTurnPlayerID)
	requireFullDeck(t, r)
}

// TestDeclareScambodia freezes the turn budget and rejects a second
// declaration.
func TestDeclareScambodia(t *testing.T) {
	g, rng := newTestGame(t, 3)
	g.TotalRounds = 3
	ackAllPeeks(t, g, rng)
	r := g.CurrentRound()
	declarer := r.CurrentTurnPlayerID

	mustApply(t, g, ActionRequest{PlayerID: declarer, Type: ActionDeclareScambodia}, rng)
	assert.Equal(t, PhaseFinalTurn, r.Phase)
	assert.Equal(t, declarer, r.DeclaredBy)
	assert.Equal(t, 2, r.FinalTurnsLeft)
	assert.NotEqual(t, declarer, r.CurrentTurnPlayerID)

	_, err := g.apply(ActionRequest{PlayerID: r.CurrentTurnPlayerID, Type: ActionDeclareScambodia}, rng)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "already been declared")
}

// TestDeclareWithOutstandingDrawRejected: the drawn card must be
// resolved before declaring.
func TestDeclareWithOutstandingDrawRejected(t *testing.T) {
	g, rng := newTestGame(t, 2)
	ackAllPeeks(t, g, rng)
	actor := g.CurrentRound().CurrentTurnPlayerID

	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionDrawFromDeck}, rng)
	_, err := g.apply(ActionRequest{PlayerID: actor, Type: ActionDeclareScambodia}, rng)
	require.ErrorIs(t, err, ErrValidation)
}

// TestReshuffleWhenDrawPileEmpty recycles the discard pile minus its top
// card, and errors when there is nothing left to recycle.
func TestReshuffleWhenDrawPileEmpty(t *testing.T) {
	g, rng := newTestGame(t, 2)
	ackAllPeeks(t, g, rng)
	r := g.CurrentRound()
	actor := r.CurrentTurnPlayerID

	// Move the whole draw pile onto the discard pile.
	r.DiscardPile = append(r.DiscardPile, r.DrawPile...)
	r.DrawPile = nil
	top := *r.discardTop()
	before := len(r.DiscardPile)

	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionDrawFromDeck}, rng)
	assert.Equal(t, []Card{top}, r.DiscardPile, "the old top stays behind")
	assert.Len(t, r.DrawPile, before-2, "rest reshuffled minus the card just drawn")
	require.NotNil(t, r.DrawnCard)
	requireFullDeck(t, r)

	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionDiscardDrawn}, rng)

	// Exhausted: nothing beyond the single top card remains.
	r2 := g.CurrentRound()
	r2.DrawPile = nil
	r2.DiscardPile = r2.DiscardPile[len(r2.DiscardPile)-1:]
	_, err := g.apply(ActionRequest{PlayerID: r2.CurrentTurnPlayerID, Type: ActionDrawFromDeck}, rng)
	require.ErrorIs(t, err, ErrValidation)
}

// TestInvalidPositions rejects out-of-range and missing slot indices.
func TestInvalidPositions(t *testing.T) {
	g, rng := newTestGame(t, 2)
	ackAllPeeks(t, g, rng)
	actor := g.CurrentRound().CurrentTurnPlayerID

	mustApply(t, g, ActionRequest{PlayerID: actor, Type: ActionDrawFromDeck}, rng)

	_, err := g.apply(ActionRequest{PlayerID: actor, Type: ActionExchangeCard}, rng)
	require.ErrorIs(t, err, ErrValidation)
	_, err = g.apply(ActionRequest{PlayerID: actor, Type: ActionExchangeCard, Position: intp(4)}, rng)
	require.ErrorIs(t, err, ErrValidation)
	_, err = g.apply(ActionRequest{PlayerID: actor, Type: ActionAttemptMatch, Position: intp(-1)}, rng)
	require.ErrorIs(t, err, ErrValidation)
}

// TestUnseatedPlayerRejected returns not-found for a stranger.
func TestUnseatedPlayerRejected(t *testing.T) {
	g, rng := newTestGame(t, 2)
	ackAllPeeks(t, g, rng)

	_, err := g.apply(ActionRequest{PlayerID: uuid.New(), Type: ActionDrawFromDeck}, rng)
	require.ErrorIs(t, err, ErrNotFound)
}
