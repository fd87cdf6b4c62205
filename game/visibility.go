package game

import (
	"deckhall.com/server/card"
	"deckhall.com/server/template"
)

// Redact masks every card collection the viewer is not entitled to see,
// replacing each hidden card with a placeholder of the same count: card
// identity is hidden, card counts never are. The snapshot is mutated in
// place and must be a viewer-private copy.
func Redact(t *template.Template, s *TableState, viewer UserID) *TableState {
	// Action payloads in the log can carry card identities (a distribute,
	// a crawl move), so another player's entries travel without data.
	for i := range s.Log {
		if s.Log[i].UserID != viewer {
			s.Log[i].Data = nil
		}
	}

	g := s.Game
	if g == nil {
		return s
	}

	ended := g.Status == StatusEnded
	revealAll := ended && (t.Opts.Reveal ||
		(g.Opts.Redeal && t.Opts.Redeal != nil && t.Opts.Redeal.Reveal))
	crawling := g.Status == StatusOngoing && crawlInTrick(g.Trick)

	if !revealAll {
		g.Deck = maskCards(g.Deck)
		for id := range g.Hands {
			g.Hands[id] = maskCards(g.Hands[id])
		}
		if t.Opts.Talon == nil || !t.Opts.Talon.Face {
			g.Talon = maskCards(g.Talon)
			g.Talon0 = maskCards(g.Talon0)
		}
		g.Moves = maskAllButLast(g.Moves, 2)
		if crawling {
			// A crawl trick stays face-down, current move group included;
			// only the previous trick's group stays visible.
			g.Trick = maskMoves(g.Trick)
			if n := len(g.Moves); n > 0 {
				g.Moves[n-1] = maskMoves(g.Moves[n-1])
			}
		}
		g.Tricks = maskAllButLast(g.Tricks, 1)
		g.Discards = maskAllButLast(g.Discards, 1)
	}

	for _, p := range s.Players {
		blind := g.Status == StatusBidding && p.Status == "blind"
		ownHand := p.UserID == viewer && !blind
		if !revealAll && !ownHand {
			p.Hand = maskCards(p.Hand)
			p.Hand0 = maskCards(p.Hand0)
		}
		if !revealAll {
			p.Moves = maskAllButLast(p.Moves, 2)
			p.Tricks = maskAllButLast(p.Tricks, 1)
		}
	}

	return s
}

func maskCards(cards []card.Card) []card.Card {
	result := make([]card.Card, len(cards))
	for i := range result {
		result[i] = card.Hidden
	}
	return result
}

func maskMove(move Move) Move {
	move.Cards = maskCards(move.Cards)
	move.Uptake = maskCards(move.Uptake)
	return move
}

func maskMoves(moves []Move) []Move {
	result := make([]Move, len(moves))
	for i, move := range moves {
		result[i] = maskMove(move)
	}
	return result
}

// maskAllButLast hides every move group except the trailing keep ones.
func maskAllButLast(groups [][]Move, keep int) [][]Move {
	result := make([][]Move, len(groups))
	for i, group := range groups {
		if i >= len(groups)-keep {
			result[i] = group
			continue
		}
		result[i] = maskMoves(group)
	}
	return result
}
