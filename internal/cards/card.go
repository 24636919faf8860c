package cards

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Separator between rank and suit in the wire form ("10.H").
const Separator = "."

// Suit of a card.
type Suit int8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits in the order the trump picker shows them.
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

var (
	suitLetters = "CDHS"
	suitSymbols = [...]string{
		"♣", // clubs
		"♦", // diamonds
		"♥", // hearts
		"♠", // spades
	}
)

func (s Suit) String() string {
	if s < Clubs || s > Spades {
		return "?"
	}
	return suitLetters[s : s+1]
}

// Symbol returns the suit glyph.
func (s Suit) Symbol() string {
	if s < Clubs || s > Spades {
		return "?"
	}
	return suitSymbols[s]
}

// Red reports whether the suit is printed in red.
func (s Suit) Red() bool {
	return s == Diamonds || s == Hearts
}

// ParseSuit parses a single suit letter (C, D, H or S).
func ParseSuit(s string) (Suit, error) {
	if len(s) == 1 {
		if i := strings.Index(suitLetters, s); i >= 0 {
			return Suit(i), nil
		}
	}
	return Clubs, &MalformedCardError{Input: s, Reason: fmt.Sprintf("unknown suit '%s'", s)}
}

// Rank of a card. Euchre plays with the nine through the ace.
type Rank int8

const (
	Nine Rank = iota
	Ten
	Jack
	Queen
	King
	Ace
)

var Ranks = []Rank{Nine, Ten, Jack, Queen, King, Ace}

var rankNames = [...]string{"9", "10", "J", "Q", "K", "A"}

func (r Rank) String() string {
	if r < Nine || r > Ace {
		return "?"
	}
	return rankNames[r]
}

func parseRank(s string) (Rank, error) {
	for i, name := range rankNames {
		if name == s {
			return Rank(i), nil
		}
	}
	return Nine, &MalformedCardError{Input: s, Reason: fmt.Sprintf("unknown rank '%s'", s)}
}

// Card is an immutable rank/suit pair.
type Card struct {
	Rank Rank
	Suit Suit
}

// String returns the wire form, e.g. "10.H".
func (c Card) String() string {
	return c.Rank.String() + Separator + c.Suit.String()
}

func (c Card) Red() bool {
	return c.Suit.Red()
}

func (c Card) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(c.String())
}

func (c *Card) UnmarshalJSON(b []byte) error {
	var s string
	if err := jsoniter.Unmarshal(b, &s); err != nil {
		return &MalformedCardError{Input: string(b), Reason: "not a string"}
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Parse decodes the "<rank>.<suit>" wire form.
func Parse(s string) (Card, error) {
	fields := strings.Split(s, Separator)
	if len(fields) != 2 {
		return Card{}, &MalformedCardError{Input: s, Reason: fmt.Sprintf("expected 2 fields, found %d", len(fields))}
	}
	suit, err := ParseSuit(fields[1])
	if err != nil {
		return Card{}, &MalformedCardError{Input: s, Reason: err.(*MalformedCardError).Reason}
	}
	rank, err := parseRank(fields[0])
	if err != nil {
		return Card{}, &MalformedCardError{Input: s, Reason: err.(*MalformedCardError).Reason}
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// MustParse is Parse for literals in tests and tables.
func MustParse(s string) Card {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseAll parses every card or fails on the first malformed one.
func ParseAll(strs []string) ([]Card, error) {
	cs := make([]Card, 0, len(strs))
	for _, s := range strs {
		c, err := Parse(s)
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, nil
}

// Face is the display form of a card.
type Face struct {
	Rank   string `json:"rank"`
	Symbol string `json:"symbol"`
	Red    bool   `json:"red"`
}

func (f Face) String() string {
	return f.Rank + f.Symbol
}

// Format returns the rank and suit glyph used to draw a card.
func Format(c Card) Face {
	return Face{Rank: c.Rank.String(), Symbol: c.Suit.Symbol(), Red: c.Red()}
}

// Deck returns the 24 euchre cards in suit then rank order.
func Deck() []Card {
	deck := make([]Card, 0, len(Suits)*len(Ranks))
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// Index returns the position of c in cs or -1.
func Index(cs []Card, c Card) int {
	for i, x := range cs {
		if x == c {
			return i
		}
	}
	return -1
}

// Strings returns the wire form of every card.
func Strings(cs []Card) []string {
	strs := make([]string, len(cs))
	for i, c := range cs {
		strs[i] = c.String()
	}
	return strs
}
