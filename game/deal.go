package game

import (
	"math/rand"

	"deckhall.com/server/card"
	"deckhall.com/server/template"
)

// Deal is the result of distributing a shuffled deck.
type Deal struct {
	Hands map[PlayerID][]card.Card
	Talon []card.Card
	// Lead is the shared face-up stack for retreat games.
	Lead []card.Card
	// Trump is the face-up talon trump card, if the template turns one.
	Trump card.Card
}

// MakeDeck returns the template's full card list permuted uniformly at
// random. A nil source seeds from crypto/rand.
func MakeDeck(t *template.Template, source rand.Source) []card.Card {
	return card.Shuffle(t.Opts.Cards, source)
}

// Distribute deals the deck round-robin until a configured max hand
// size is reached, the remainder falls to the configured talon, or the
// deck is exhausted. Hands come back sorted per the template's declared
// sort order.
func Distribute(t *template.Template, players []*Player, deck []card.Card) Deal {
	deal := Deal{Hands: make(map[PlayerID][]card.Card, len(players))}
	for _, p := range players {
		deal.Hands[p.ID] = []card.Card{}
	}

	remaining := append([]card.Card(nil), deck...)
	maxHand := t.Opts.Hand
	hasTalon := t.Opts.Talon != nil

	for len(remaining) > 0 {
		for _, p := range players {
			if len(remaining) == 0 {
				break
			}
			deal.Hands[p.ID] = append(deal.Hands[p.ID], remaining[0])
			remaining = remaining[1:]
		}

		if maxHand > 0 && len(deal.Hands[players[0].ID]) >= maxHand {
			break
		}
		// Without a talon the whole deck is dealt, last round uneven.
		if hasTalon && len(remaining) <= len(players) {
			break
		}
	}

	if hasTalon && len(remaining) > 0 {
		deal.Talon = remaining
		if n := t.Opts.Talon.Lead; n > 0 && n < len(deal.Talon) {
			deal.Lead = deal.Talon[:n]
			deal.Talon = deal.Talon[n:]
		}
		if t.Opts.Talon.Trump && len(deal.Talon) > 0 {
			deal.Trump = deal.Talon[len(deal.Talon)-1]
		}
	}

	for _, p := range players {
		t.SortHand(deal.Hands[p.ID])
	}

	return deal
}
