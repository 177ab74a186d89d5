// internal/engine/scoring_test.go
package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(s Suit, r Rank) *Card {
	c := NewCard(s, r)
	return &c
}

// TestHandScore: 3 + 7 + (vacant) + 13 = 23.
func TestHandScore(t *testing.T) {
	h := Hand{
		card(SuitSpades, RankThree),
		card(SuitDiamonds, RankSeven),
		nil,
		card(SuitClubs, RankKing),
	}
	assert.Equal(t, 23, h.Score())

	empty := Hand{}
	assert.Equal(t, 0, empty.Score())
}

// TestFinishRoundCorrectDeclaration credits a declarer who holds the
// strictly lowest score and deals the next round.
func TestFinishRoundCorrectDeclaration(t *testing.T) {
	g, rng := newTestGame(t, 2)
	g.TotalRounds = 3
	ackAllPeeks(t, g, rng)
	r := g.CurrentRound()
	a, b := g.Players[0].UserID, g.Players[1].UserID

	r.Hands[a] = &Hand{card(SuitHearts, RankAce), card(SuitSpades, RankTwo), nil, nil}
	r.Hands[b] = &Hand{card(SuitClubs, RankKing), card(SuitDiamonds, RankQueen), nil, nil}
	r.DeclaredBy = a

	g.finishRound(r, rng)

	require.NotNil(t, r.ScambodiaCorrect)
	assert.True(t, *r.ScambodiaCorrect)
	assert.Equal(t, 1, g.ScambodiaCalls[a])
	assert.Equal(t, 3, g.CumulativeScores[a])
	assert.Equal(t, 25, g.CumulativeScores[b])
	assert.Equal(t, 3, r.Scores[a])
	assert.Equal(t, PhaseComplete, r.Phase)

	// Round two is dealt in the same mutation.
	assert.Equal(t, StatusPlaying, g.Status)
	assert.Equal(t, 2, g.CurrentRoundNumber)
	require.NotNil(t, g.CurrentRound())
	assert.Equal(t, PhaseSetup, g.CurrentRound().Phase)
	assert.Equal(t, 1, g.CurrentRound().DealerSeat)
}

// TestFinishRoundIncorrectDeclaration: a tie is not strictly lowest, so
// the declaration fails and earns no credit.
func TestFinishRoundIncorrectDeclaration(t *testing.T) {
	g, rng := newTestGame(t, 2)
	g.TotalRounds = 3
	ackAllPeeks(t, g, rng)
	r := g.CurrentRound()
	a, b := g.Players[0].UserID, g.Players[1].UserID

	r.Hands[a] = &Hand{card(SuitHearts, RankFive), nil, nil, nil}
	r.Hands[b] = &Hand{card(SuitSpades, RankFive), nil, nil, nil}
	r.DeclaredBy = a

	g.finishRound(r, rng)

	require.NotNil(t, r.ScambodiaCorrect)
	assert.False(t, *r.ScambodiaCorrect)
	assert.Equal(t, 0, g.ScambodiaCalls[a])
}

// TestGameCompletionWinner seals a one-round game: lowest cumulative
// score takes the pot and the payout gate flips in the same write.
func TestGameCompletionWinner(t *testing.T) {
	g, rng := newTestGame(t, 2)
	ackAllPeeks(t, g, rng)
	r := g.CurrentRound()
	a, b := g.Players[0].UserID, g.Players[1].UserID

	r.Hands[a] = &Hand{card(SuitHearts, RankTwo), nil, nil, nil}
	r.Hands[b] = &Hand{card(SuitClubs, RankNine), nil, nil, nil}

	require.False(t, g.PayoutProcessed)
	g.finishRound(r, rng)

	assert.Equal(t, StatusFinished, g.Status)
	assert.Equal(t, a, g.GameWinnerID)
	assert.False(t, g.IsDraw)
	assert.True(t, g.PayoutProcessed)
}

// TestTieBreakByScambodiaCalls: equal cumulative scores fall back to
// correct declarations.
func TestTieBreakByScambodiaCalls(t *testing.T) {
	g, rng := newTestGame(t, 2)
	ackAllPeeks(t, g, rng)
	r := g.CurrentRound()
	a, b := g.Players[0].UserID, g.Players[1].UserID

	r.Hands[a] = &Hand{card(SuitHearts, RankFour), nil, nil, nil}
	r.Hands[b] = &Hand{card(SuitSpades, RankFour), nil, nil, nil}
	g.ScambodiaCalls[a] = 2
	g.ScambodiaCalls[b] = 1

	g.finishRound(r, rng)

	assert.Equal(t, StatusFinished, g.Status)
	assert.Equal(t, a, g.GameWinnerID)
	assert.False(t, g.IsDraw)
}

// TestExhaustedTieBreakIsDraw: equal scores and equal declarations end
// in an explicit draw, never a guessed winner.
func TestExhaustedTieBreakIsDraw(t *testing.T) {
	g, rng := newTestGame(t, 2)
	ackAllPeeks(t, g, rng)
	r := g.CurrentRound()
	a, b := g.Players[0].UserID, g.Players[1].UserID

	r.Hands[a] = &Hand{card(SuitHearts, RankSix), nil, nil, nil}
	r.Hands[b] = &Hand{card(SuitSpades, RankSix), nil, nil, nil}

	g.finishRound(r, rng)

	assert.Equal(t, StatusFinished, g.Status)
	assert.Equal(t, uuid.Nil, g.GameWinnerID)
	assert.True(t, g.IsDraw)
	assert.True(t, g.PayoutProcessed, "a draw still settles the pot exactly once")
}

// TestTotalPot multiplies the per-player wager by the seated count.
func TestTotalPot(t *testing.T) {
	g, _ := newTestGame(t, 3)
	g.WagerPerPlayer = 250
	assert.Equal(t, int64(750), g.TotalPot())
}

// TestHoldsStrictLowest pins the strictness of the declaration check.
func TestHoldsStrictLowest(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	assert.True(t, holdsStrictLowest(map[uuid.UUID]int{a: 3, b: 10, c: 7}, a))
	assert.False(t, holdsStrictLowest(map[uuid.UUID]int{a: 7, b: 7, c: 9}, a))
	assert.False(t, holdsStrictLowest(map[uuid.UUID]int{a: 9, b: 3, c: 7}, a))
	assert.False(t, holdsStrictLowest(map[uuid.UUID]int{b: 3}, a))
}
