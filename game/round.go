package game

import (
	"deckhall.com/server/card"
	"deckhall.com/server/template"
)

// roundWinner resolves the player who won a completed trick, or the
// last non-passing mover for last-mover-wins games.
func roundWinner(t *template.Template, g *Game, s *TableState, trick []Move) *Player {
	if len(trick) == 0 {
		return nil
	}
	winnerID := trick[0].PlayerID

	if t.Opts.Trick {
		var winSuite, winLevel string
		win := t.Opts.Move.Win
		if win == nil || win.Suite || win.Level != "" {
			// First card seeds the suit and level to beat.
			if first := firstCards(trick); len(first) > 0 {
				winSuite, winLevel = first[0].Suit(), first[0].Level()
			}
		}

		for _, move := range trick {
			if len(move.Cards) == 0 {
				continue
			}
			c := move.Cards[0]
			mSuite, mLevel := c.Suit(), c.Level()
			if t.Opts.Trump && g.Opts.Trump != "" && mSuite == g.Opts.Trump && mSuite != winSuite {
				// Trump supersedes any non-trump winner outright.
				winSuite, winLevel, winnerID = mSuite, mLevel, move.PlayerID
				continue
			}
			if mSuite == winSuite &&
				card.CompareIndex(t.Opts.Strengths, mLevel, winLevel) != card.Less {
				winLevel, winnerID = mLevel, move.PlayerID
			}
		}
	} else if t.Opts.Move != nil && t.Opts.Move.Win != nil && t.Opts.Move.Win.Last {
		for i := len(trick) - 1; i >= 0; i-- {
			if len(trick[i].Cards) > 0 {
				winnerID = trick[i].PlayerID
				break
			}
		}
	}

	return s.PlayerByID(winnerID)
}

func firstCards(trick []Move) []card.Card {
	for _, move := range trick {
		if len(move.Cards) > 0 {
			return move.Cards
		}
	}
	return nil
}

func lastCards(trick []Move) []card.Card {
	for i := len(trick) - 1; i >= 0; i-- {
		if len(trick[i].Cards) > 0 {
			return trick[i].Cards
		}
	}
	return nil
}

// hasAllOfAKind reports whether the trick ends with every deck card of
// one level played consecutively.
func hasAllOfAKind(t *template.Template, trick []Move) bool {
	var levels []string
	for _, move := range trick {
		for _, c := range move.Cards {
			levels = append(levels, c.Level())
		}
	}
	if len(levels) == 0 {
		return false
	}
	last := levels[len(levels)-1]
	streak := 0
	for i := len(levels) - 1; i >= 0 && levels[i] == last; i-- {
		streak++
	}
	return streak == t.LevelCount(last)
}

// nextPlayerInRound returns the next seat still holding cards that has
// not passed in the current trick.
func nextPlayerInRound(g *Game, players []*Player, from *Player) *Player {
	passed := make(map[PlayerID]bool)
	for _, move := range g.Trick {
		if move.Pass {
			passed[move.PlayerID] = true
		}
	}

	current := from
	for i := 0; i < len(players); i++ {
		current = seatAfter(players, current)
		if len(current.Hand) > 0 && !passed[current.ID] {
			return current
		}
	}
	return from
}

// nextPlayerInGame returns the next seat still holding cards.
func nextPlayerInGame(players []*Player, from *Player) *Player {
	current := from
	for i := 0; i < len(players); i++ {
		current = seatAfter(players, current)
		if len(current.Hand) > 0 {
			return current
		}
	}
	return from
}

func seatAfter(players []*Player, p *Player) *Player {
	for i, candidate := range players {
		if candidate.ID == p.ID {
			return players[(i+1)%len(players)]
		}
	}
	return players[0]
}

// playersWithCards returns all seats still holding cards.
func playersWithCards(players []*Player) []*Player {
	var result []*Player
	for _, p := range players {
		if len(p.Hand) > 0 {
			result = append(result, p)
		}
	}
	return result
}
