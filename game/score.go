package game

import (
	"sort"

	"deckhall.com/server/template"
)

// gamePoints computes final per-player point scores for an ended game:
// trick card values plus special-move bonuses, with the bid winner
// capped at or penalized by their bid.
func gamePoints(t *template.Template, table *Table, g *Game, players []*Player) Score {
	result := Score{}
	popts := t.Opts.Points

	for _, player := range players {
		score := 0

		for _, trick := range player.Tricks {
			for _, move := range trick {
				for _, c := range move.Cards {
					score += t.Points(c)
				}
			}
		}

		for _, trick := range player.Moves {
			for _, move := range trick {
				if move.Trump && popts.Trump != nil && len(move.Cards) > 0 {
					score += popts.Trump[move.Cards[0].Suit()]
				}
				if move.Special != "" {
					score += popts.Special[move.Special]
				}
			}
		}

		if g.Bid != nil && player.ID == g.Bid.PlayerID && g.Bid.Number > 0 {
			if score < g.Bid.Number {
				op := bidPenalty(popts, g.Bid)
				if op != nil {
					score = op.Apply(g.Bid.Number)
				}
			} else {
				// Bidder only wins as much as they bid.
				score = g.Bid.Number
				if g.Bid.Blind && popts.Blind != nil {
					score = popts.Blind.Apply(g.Bid.Number)
				}
			}
		}

		if popts.Bidonly != nil && (g.Bid == nil || player.ID != g.Bid.PlayerID) {
			// Player past the stage where trick points count for them.
			if runningTotal(table, player.ID) >= popts.Bidonly.Min {
				score = 0
			}
		}

		result[player.ID] = score
	}

	return result
}

func bidPenalty(popts *template.PointsOpts, bid *Bid) *template.Op {
	if popts.Penalties == nil {
		return nil
	}
	if bid.Blind && popts.Penalties.Blind != nil {
		return popts.Penalties.Blind
	}
	return popts.Penalties.Bid
}

func runningTotal(table *Table, id PlayerID) int {
	if len(table.Scores) == 0 {
		return 0
	}
	return table.Scores[len(table.Scores)-1][id]
}

// tablePoints returns the table's score list with a new cumulative
// entry appended, applying the no-change streak penalty where
// configured.
func tablePoints(t *template.Template, table *Table, lastScores Score) []Score {
	var nochange *template.NochangeOpts
	if t.Opts.Points != nil && t.Opts.Points.Penalties != nil {
		nochange = t.Opts.Points.Penalties.Nochange
	}

	entry := Score{}
	for playerID, delta := range lastScores {
		if delta == 0 && nochange != nil && nochange.Times > 0 &&
			unchangedFor(table.Scores, playerID, nochange.Times) {
			delta = template.Op{Op: nochange.Op, Value: nochange.Value}.Apply(0)
		}
		entry[playerID] = runningTotal(table, playerID) + delta
	}

	result := append(append([]Score(nil), table.Scores...), entry)
	return result
}

// unchangedFor reports whether a player's running total has stayed the
// same for the past times games.
func unchangedFor(scores []Score, id PlayerID, times int) bool {
	if len(scores) < times {
		return false
	}
	last := scores[len(scores)-1][id]
	for i := len(scores) - times; i < len(scores); i++ {
		if scores[i][id] != last {
			return false
		}
	}
	return true
}

// gameRanking ranks players by the move index at which they finished
// their hand, passes excluded; players never emptying their hand rank
// last.
func gameRanking(t *template.Template, g *Game, players []*Player) Score {
	ropts := t.Opts.Ranking
	result := Score{}
	if ropts == nil || !ropts.Finish {
		return result
	}

	indexes := make(map[PlayerID]int)
	for i, trick := range g.Moves {
		for j, move := range trick {
			if move.Pass {
				continue
			}
			indexes[move.PlayerID] = i*len(t.Opts.Cards) + j
		}
	}
	unfinished := len(t.Opts.Cards) * (len(g.Moves) + 1)
	for _, player := range players {
		if len(player.Hand) > 0 {
			indexes[player.ID] = unfinished
		}
	}

	ordered := make([]PlayerID, 0, len(indexes))
	for id := range indexes {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if indexes[ordered[i]] != indexes[ordered[j]] {
			return indexes[ordered[i]] < indexes[ordered[j]]
		}
		return ordered[i] < ordered[j]
	})
	for i, id := range ordered {
		result[id] = i + 1
	}

	return result
}

// isTableComplete reports whether any player's latest total has crossed
// the configured completion threshold.
func isTableComplete(t *template.Template, table *Table) bool {
	copts := t.Opts.Complete
	if copts == nil || copts.Score <= 0 || len(table.Scores) == 0 {
		return false
	}
	for _, score := range table.Scores[len(table.Scores)-1] {
		if score >= copts.Score {
			return true
		}
	}
	return false
}
