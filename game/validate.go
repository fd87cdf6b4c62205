package game

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set"

	"deckhall.com/server/card"
	"deckhall.com/server/template"
)

// validateBid checks a proposed bid against phase, turn and the
// template's bidding rules. The first failing check short-circuits.
func validateBid(t *template.Template, g *Game, player *Player, data *BidData) error {
	if g == nil || g.Status != StatusBidding {
		return ConflictError{"not in bidding phase"}
	}
	if g.PlayerID != player.ID {
		return ForbiddenError{"not player's turn"}
	}
	if data == nil {
		return BadRequestError{"bid missing data"}
	}

	bopts := t.Opts.Bidding
	if data.Pass && !bopts.Pass {
		return BadRequestError{"cannot pass"}
	}
	if data.Blind && player.Status != "blind" {
		return ForbiddenError{"no longer blind"}
	}
	if data.Pass {
		return nil
	}

	if data.Number <= 0 {
		return BadRequestError{"bid missing data"}
	}
	if bopts.Suite != "" && (data.Suite == "" || !strings.Contains(bopts.Suite, data.Suite)) {
		return BadRequestError{"bid missing data"}
	}

	trumpCapable := false
	if sp := t.TrumpSpecial(); t.Opts.Trump && sp != nil {
		trumpCapable = sp.Holds(player.Hand)
	}
	if min := bopts.Min.For(data.Blind, trumpCapable); min != nil && data.Number < *min {
		return BadRequestError{"bid too small"}
	}
	if max := bopts.Max.For(data.Blind, trumpCapable); max != nil && data.Number > *max {
		return BadRequestError{"bid too large"}
	}
	if bopts.Step > 0 && data.Number%bopts.Step != 0 {
		return BadRequestError{"bid invalid number"}
	}

	if last := lastStandingBid(g.Bids); last != nil {
		switch {
		case data.Number < last.Number:
			return BadRequestError{"bid needs to be higher than previous"}
		case data.Number == last.Number:
			if bopts.Suite == "" {
				return BadRequestError{"bid needs to be higher than previous"}
			}
			if card.CompareIndex(t.Opts.Suites, data.Suite, last.Suite) == card.Less {
				return BadRequestError{"bid needs to be higher than previous"}
			}
		}
	}

	return nil
}

// validateMove checks a proposed move: pass, crawl, card count, trump
// declaration, named specials and response-following, in that order.
func validateMove(t *template.Template, g *Game, player *Player, data *MoveData) error {
	if g == nil || g.Status != StatusOngoing {
		return ConflictError{"game not underway"}
	}
	if g.PlayerID != player.ID {
		return ForbiddenError{"not player's turn"}
	}
	if data == nil {
		return BadRequestError{"move missing data"}
	}

	mopts := t.Opts.Move
	if mopts == nil {
		return ConflictError{"game has no moves"}
	}
	cards := data.Cards

	if data.Pass {
		if len(g.Trick) == 0 || !mopts.Pass {
			return BadRequestError{"cannot pass"}
		}
		return nil
	}
	if len(cards) == 0 {
		return BadRequestError{"not the right amount of cards"}
	}
	if !card.Contains(player.Hand, cards) {
		return BadRequestError{"no such cards"}
	}
	if fixed := mopts.Cards.Fixed; fixed != nil && len(cards) != *fixed {
		return BadRequestError{"not the right amount of cards"}
	}

	if data.Crawl {
		if mopts.Crawl == nil {
			return BadRequestError{"cannot crawl in this game"}
		}
		if *mopts.Crawl != len(g.Tricks) {
			return BadRequestError{"cannot make crawl move this round"}
		}
		if holdsLevel(player.Hand, t.TopLevel()) {
			return BadRequestError{"cannot crawl holding a top card"}
		}
	}

	if data.Trump {
		if err := validateSpecial(t, g, player, "trump", cards); err != nil {
			return err
		}
	}
	if data.Special != "" && data.Special != "trump" {
		if err := validateSpecial(t, g, player, data.Special, cards); err != nil {
			return err
		}
	}

	return validateResponse(t, g, player, data)
}

// validateSpecial checks a named special move: feature gate, per-round
// enablement, required holding and the played-card intersection.
func validateSpecial(t *template.Template, g *Game, player *Player, name string, cards []card.Card) error {
	if name == "trump" && !t.Opts.Trump {
		return BadRequestError{"cannot declare trump in this game"}
	}
	sp, ok := t.Opts.Move.Special[name]
	if !ok {
		return BadRequestError{fmt.Sprintf("cannot make %s in this game", name)}
	}
	if !sp.AllowedInRound(len(g.Tricks)) {
		return BadRequestError{fmt.Sprintf("cannot make %s this round", name)}
	}
	if !sp.Holds(player.Hand) {
		return BadRequestError{fmt.Sprintf("no cards to make %s", name)}
	}
	if sp.HeldSet(player.Hand, cards) == nil {
		return BadRequestError{fmt.Sprintf("not a %s card", name)}
	}
	if sp.Condition == "suite" {
		declared := g.Opts.Trump
		if declared == "" && g.Bid != nil {
			declared = g.Bid.Suite
		}
		if declared == "" || cards[0].Suit() != declared {
			return BadRequestError{fmt.Sprintf("%s must match the declared suite", name)}
		}
	}
	return nil
}

// validateResponse enforces single-suit/level moves and the follow
// rules against the current trick.
func validateResponse(t *template.Template, g *Game, player *Player, data *MoveData) error {
	mopts := t.Opts.Move
	cards := data.Cards

	if mopts.Suite && suitSet(cards).Cardinality() != 1 {
		return BadRequestError{"must play cards of one suite"}
	}
	if mopts.Level && levelSet(cards).Cardinality() != 1 {
		return BadRequestError{"must play cards of one level"}
	}

	if len(g.Trick) == 0 || mopts.Response == nil {
		return nil
	}
	resp := mopts.Response
	trumping := t.Opts.Trump && g.Opts.Trump != "" && cards[0].Suit() == g.Opts.Trump

	if resp.Suite && !data.Crawl && !crawlInTrick(g.Trick) && !trumping {
		leadSuits := suitSet(firstCards(g.Trick))
		if !suitSet(cards).Equal(leadSuits) &&
			suitSet(player.Hand).Intersect(leadSuits).Cardinality() > 0 {
			return BadRequestError{"must follow suite"}
		}
	}

	last := lastCards(g.Trick)
	if resp.Level && len(last) > 0 {
		if t.Stronger(cards[0], last[0]) == card.Less {
			// A trump response is exempt when it cannot match the lead.
			if !(trumping && last[0].Suit() != g.Opts.Trump) {
				return BadRequestError{"must play at least same level"}
			}
		}
	}
	if resp.Amount && len(cards) < len(last) {
		return BadRequestError{"must play at least same amount"}
	}

	return nil
}

// lastStandingBid returns the newest non-pass bid since the last sale,
// or nil when none stands.
func lastStandingBid(bids []Bid) *Bid {
	since := bidsSinceSale(bids)
	for i := len(since) - 1; i >= 0; i-- {
		if !since[i].Pass && !since[i].Sell {
			return &since[i]
		}
	}
	return nil
}

// bidsSinceSale returns the bid history after the most recent sell
// entry; a sale reopens bidding from a clean slate.
func bidsSinceSale(bids []Bid) []Bid {
	for i := len(bids) - 1; i >= 0; i-- {
		if bids[i].Sell {
			return bids[i+1:]
		}
	}
	return bids
}

// latestBids maps each player to their newest bid since the last sale.
func latestBids(bids []Bid) map[PlayerID]Bid {
	result := make(map[PlayerID]Bid)
	since := bidsSinceSale(bids)
	for i := len(since) - 1; i >= 0; i-- {
		if _, ok := result[since[i].PlayerID]; !ok {
			result[since[i].PlayerID] = since[i]
		}
	}
	return result
}

func crawlInTrick(trick []Move) bool {
	for _, move := range trick {
		if move.Crawl {
			return true
		}
	}
	return false
}

func holdsLevel(hand []card.Card, level string) bool {
	for _, c := range hand {
		if c.Level() == level {
			return true
		}
	}
	return false
}

func suitSet(cards []card.Card) mapset.Set {
	result := mapset.NewSet()
	for _, c := range cards {
		result.Add(c.Suit())
	}
	return result
}

func levelSet(cards []card.Card) mapset.Set {
	result := mapset.NewSet()
	for _, c := range cards {
		result.Add(c.Level())
	}
	return result
}
