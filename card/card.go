package card

import "strings"

// Card is a compact card token: a level character followed by a suit
// character ("9D", "0H", "AS"). Suitless specials such as jokers carry
// the level character alone ("X").
type Card string

// Hidden is the placeholder substituted for cards a viewer may not see.
// Collections keep their length, only card identity is masked.
const Hidden Card = "??"

// Level returns the card level character, one of "234567890JQKAX".
func (c Card) Level() string {
	if c == "" {
		return ""
	}
	return string(c[0])
}

// Suit returns the card suit character, one of "DHSC", or "" for
// suitless specials.
func (c Card) Suit() string {
	if len(c) < 2 {
		return ""
	}
	return string(c[1:])
}

func (c Card) IsSpecial() bool {
	return len(c) < 2
}

func (c Card) String() string {
	return string(c)
}

// Ordering is the result of comparing two cards.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

// CompareIndex orders two values by their position in a fixed alphabet,
// earlier position ranking lower. Values missing from the alphabet rank
// below all present ones.
func CompareIndex(alphabet, a, b string) Ordering {
	ia, ib := strings.Index(alphabet, a), strings.Index(alphabet, b)
	switch {
	case ia < ib:
		return Less
	case ia > ib:
		return Greater
	}
	return Equal
}

// Contains reports whether hand holds every card in cards, respecting
// multiplicity.
func Contains(hand []Card, cards []Card) bool {
	remaining := append([]Card(nil), hand...)
	for _, c := range cards {
		found := false
		for i, h := range remaining {
			if h == c {
				remaining = append(remaining[:i], remaining[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Drop returns hand without the given cards, one occurrence dropped per
// card given.
func Drop(hand []Card, cards []Card) []Card {
	result := append([]Card(nil), hand...)
	for _, c := range cards {
		for i, h := range result {
			if h == c {
				result = append(result[:i], result[i+1:]...)
				break
			}
		}
	}
	return result
}

// Strings converts cards to plain strings, for logging.
func Strings(cards []Card) []string {
	result := make([]string, len(cards))
	for i, c := range cards {
		result[i] = string(c)
	}
	return result
}
