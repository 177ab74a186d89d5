package engine

import (
	"fmt"
	"math/rand"
)

// Suit of a standard playing card.
type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
)

// Rank of a standard playing card. "10" is spelled out, not "T".
type Rank string

const (
	RankAce   Rank = "A"
	RankTwo   Rank = "2"
	RankThree Rank = "3"
	RankFour  Rank = "4"
	RankFive  Rank = "5"
	RankSix   Rank = "6"
	RankSeven Rank = "7"
	RankEight Rank = "8"
	RankNine  Rank = "9"
	RankTen   Rank = "10"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
)

var allSuits = [4]Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

var allRanks = [13]Rank{
	RankAce, RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven,
	RankEight, RankNine, RankTen, RankJack, RankQueen, RankKing,
}

// rankValues maps every rank to its scoring value. Aces count 1, face
// cards count 11/12/13.
var rankValues = map[Rank]int{
	RankAce: 1, RankTwo: 2, RankThree: 3, RankFour: 4, RankFive: 5,
	RankSix: 6, RankSeven: 7, RankEight: 8, RankNine: 9, RankTen: 10,
	RankJack: 11, RankQueen: 12, RankKing: 13,
}

// Card is an immutable value type. Value is derived from Rank at
// construction and carried in the document so clients never need the
// mapping table.
type Card struct {
	Suit  Suit `json:"suit"`
	Rank  Rank `json:"rank"`
	Value int  `json:"value"`
}

// NewCard constructs a Card with its scoring value filled in.
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank, Value: rankValues[rank]}
}

func (c Card) String() string {
	return fmt.Sprintf("%s-%s", c.Rank, c.Suit)
}

// PowerType is the closed set of special abilities a rank can grant.
type PowerType string

const (
	PowerNone         PowerType = ""
	PowerPeekOwn      PowerType = "peek_own"       // 7, 8
	PowerPeekOpponent PowerType = "peek_opponent"  // 9, 10
	PowerBlindSwap    PowerType = "blind_swap"     // J, Q
	PowerSeenSwap     PowerType = "seen_swap"      // K
)

// Power returns the special power granted when this card is drawn from
// the deck and then discarded. Powers never trigger on cards taken from
// the discard pile or pushed out of a hand by an exchange.
func (c Card) Power() PowerType {
	switch c.Rank {
	case RankSeven, RankEight:
		return PowerPeekOwn
	case RankNine, RankTen:
		return PowerPeekOpponent
	case RankJack, RankQueen:
		return PowerBlindSwap
	case RankKing:
		return PowerSeenSwap
	default:
		return PowerNone
	}
}

// HasPower reports whether the card grants any power (ranks 7 through K).
func (c Card) HasPower() bool { return c.Power() != PowerNone }

// DeckSize is the number of cards in play per round.
const DeckSize = 52

// NewDeck returns the standard 52-card deck in canonical order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range allSuits {
		for _, r := range allRanks {
			deck = append(deck, NewCard(s, r))
		}
	}
	return deck
}

// shuffledDeck returns a freshly shuffled 52-card deck.
func shuffledDeck(rng *rand.Rand) []Card {
	deck := NewDeck()
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}
