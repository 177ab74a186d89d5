// internal/engine/scoring.go
//
// Round scoring, cumulative totals and game
// completion.
package engine

import (
	"math/rand"

	"github.com/google/uuid"
)

// finishRound scores the round, credits a correct declaration, folds the
// scores into the cumulative totals and either deals the next round or
// completes the game. Everything happens inside the same document
// mutation so scoring can never half-apply.
func (g *GameState) finishRound(r *RoundState, rng *rand.Rand) {
	r.Phase = PhaseScoring
	r.CurrentTurnPlayerID = uuid.Nil
	r.FinalTurnsLeft = 0
	r.Reveals = nil

	r.Scores = make(map[uuid.UUID]int, len(g.Players))
	for _, p := range g.Players {
		r.Scores[p.UserID] = r.Hands[p.UserID].Score()
	}

	if r.DeclaredBy != uuid.Nil {
		correct := holdsStrictLowest(r.Scores, r.DeclaredBy)
		r.ScambodiaCorrect = &correct
		if correct {
			g.ScambodiaCalls[r.DeclaredBy]++
		}
	}

	for id, s := range r.Scores {
		g.CumulativeScores[id] += s
	}

	// Terminal marker for audit; immediately superseded by the next
	// round's Setup or by game completion.
	r.Phase = PhaseComplete

	if r.Number < g.TotalRounds {
		g.startRound(r.Number+1, rng)
		return
	}
	g.finishGame()
}

// holdsStrictLowest reports whether playerID's score is strictly lower
// than every other score.
func holdsStrictLowest(scores map[uuid.UUID]int, playerID uuid.UUID) bool {
	own, ok := scores[playerID]
	if !ok {
		return false
	}
	for id, s := range scores {
		if id != playerID && s <= own {
			return false
		}
	}
	return true
}

// finishGame seals the document: lowest cumulative score wins, ties
// break on the number of correct declarations, and an exhausted
// tie-break is surfaced as a draw rather than guessed at. The payout
// gate flips in the same committed write so the event can only fire once.
func (g *GameState) finishGame() {
	g.Status = StatusFinished

	winner, isDraw := g.computeWinner()
	g.GameWinnerID = winner
	g.IsDraw = isDraw

	if !g.PayoutProcessed {
		g.PayoutProcessed = true
	}
}

// computeWinner returns the winning player, or a draw marker when the
// tie-break is exhausted.
func (g *GameState) computeWinner() (uuid.UUID, bool) {
	lowest := 0
	first := true
	for _, p := range g.Players {
		s := g.CumulativeScores[p.UserID]
		if first || s < lowest {
			lowest = s
			first = false
		}
	}

	var contenders []uuid.UUID
	for _, p := range g.Players {
		if g.CumulativeScores[p.UserID] == lowest {
			contenders = append(contenders, p.UserID)
		}
	}
	if len(contenders) == 1 {
		return contenders[0], false
	}

	// Tie-break: most correct Scambodia declarations.
	bestCalls := -1
	for _, id := range contenders {
		if g.ScambodiaCalls[id] > bestCalls {
			bestCalls = g.ScambodiaCalls[id]
		}
	}
	var byCalls []uuid.UUID
	for _, id := range contenders {
		if g.ScambodiaCalls[id] == bestCalls {
			byCalls = append(byCalls, id)
		}
	}
	if len(byCalls) == 1 {
		return byCalls[0], false
	}
	return uuid.Nil, true
}

// TotalPot is the amount at stake: wager per player times seat count.
func (g *GameState) TotalPot() int64 {
	return g.WagerPerPlayer * int64(len(g.Players))
}
