package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckhall.com/server/card"
	"deckhall.com/server/template"
)

func TestBidRejections(t *testing.T) {
	e, s := thousandBidding(t)

	// Not the acting player's turn.
	err := e.Apply(s, "u2", bidAction(60))
	require.Error(t, err)
	assert.Equal(t, KindForbidden, Kind(err))

	// Not a multiple of the bidding step.
	err = e.Apply(s, "u1", bidAction(63))
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, Kind(err))

	// Below the minimum.
	err = e.Apply(s, "u1", bidAction(55))
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, Kind(err))

	// Above the base maximum for a hand without a marriage.
	err = e.Apply(s, "u1", bidAction(125))
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, Kind(err))

	// A stranger is no player.
	err = e.Apply(s, "uZ", bidAction(60))
	require.Error(t, err)
	assert.Equal(t, KindForbidden, Kind(err))
}

func TestBidRejectionMutatesNothing(t *testing.T) {
	e, s := thousandBidding(t)
	before := stateJSON(t, s)

	for i := 0; i < 2; i++ {
		err := e.Apply(s, "u1", bidAction(63))
		require.Error(t, err)
		assert.EqualError(t, err, "bid invalid number")
	}
	assert.Equal(t, before, stateJSON(t, s))
}

func TestBidMustExceedStanding(t *testing.T) {
	e, s := thousandBidding(t)

	require.NoError(t, e.Apply(s, "u1", bidAction(60)))
	assert.Equal(t, PlayerID("p2"), s.Game.PlayerID)

	err := e.Apply(s, "u2", bidAction(60))
	require.Error(t, err)
	assert.EqualError(t, err, "bid needs to be higher than previous")

	require.NoError(t, e.Apply(s, "u2", bidAction(65)))
	assert.Equal(t, PlayerID("p3"), s.Game.PlayerID)
	assert.Len(t, s.Game.Bids, 2)
}

func TestBidClosureWinnerTakesTalon(t *testing.T) {
	e, s := thousandBidding(t)

	require.NoError(t, e.Apply(s, "u1", bidAction(100)))
	require.NoError(t, e.Apply(s, "u2", passBid()))
	require.NoError(t, e.Apply(s, "u3", passBid()))

	g := s.Game
	require.NotNil(t, g.Bid)
	assert.Equal(t, PlayerID("p1"), g.Bid.PlayerID)
	assert.Equal(t, 100, g.Bid.Number)
	assert.Equal(t, StatusDistributing, g.Status)
	assert.Equal(t, PlayerID("p1"), g.PlayerID)

	// Winner took the talon and owes one card to each opponent.
	p1 := s.PlayerByID("p1")
	assert.Len(t, p1.Hand, 10)
	assert.True(t, card.Contains(p1.Hand, []card.Card{"JS", "QC", "KS"}))
	assert.Empty(t, g.Talon)
	assert.Equal(t, map[PlayerID]int{"p2": 1, "p3": 1}, p1.Expected.Distribute)
}

func TestBidAllPassEndsGame(t *testing.T) {
	e, s := thousandBidding(t)

	require.NoError(t, e.Apply(s, "u1", passBid()))
	require.NoError(t, e.Apply(s, "u2", passBid()))
	require.NoError(t, e.Apply(s, "u3", passBid()))

	assert.Equal(t, StatusEnded, s.Game.Status)
	assert.Equal(t, StatusEnded, s.Table.Status)
	assert.Nil(t, s.Game.Bid)
	assert.Empty(t, s.Game.Score)

	// Further bids hit a closed phase.
	err := e.Apply(s, "u1", bidAction(60))
	require.Error(t, err)
	assert.Equal(t, KindConflict, Kind(err))
}

func TestBidFinalPassSkipsPassedPlayers(t *testing.T) {
	e, s := thousandBidding(t)

	require.NoError(t, e.Apply(s, "u1", passBid()))
	require.NoError(t, e.Apply(s, "u2", bidAction(60)))
	require.NoError(t, e.Apply(s, "u3", bidAction(65)))

	// p1 already passed for good, the turn skips back to p2.
	assert.Equal(t, PlayerID("p2"), s.Game.PlayerID)

	require.NoError(t, e.Apply(s, "u2", passBid()))
	require.NotNil(t, s.Game.Bid)
	assert.Equal(t, PlayerID("p3"), s.Game.Bid.PlayerID)
	assert.Equal(t, 65, s.Game.Bid.Number)
}

func TestBlindBidding(t *testing.T) {
	e, s := thousandBidding(t)
	for _, p := range s.Players {
		p.Status = "blind"
	}

	// Blind limit allows bids past the base maximum.
	require.NoError(t, e.Apply(s, "u1", Action{Type: ActionBid, Bid: &BidData{Number: 200, Blind: true}}))
	require.Len(t, s.Game.Bids, 1)
	assert.True(t, s.Game.Bids[0].Blind)

	// Looking at the hand forfeits blind bidding.
	require.NoError(t, e.Apply(s, "u2", Action{Type: ActionLook}))
	assert.Empty(t, s.PlayerByID("p2").Status)
	err := e.Apply(s, "u2", Action{Type: ActionBid, Bid: &BidData{Number: 205, Blind: true}})
	require.Error(t, err)
	assert.EqualError(t, err, "no longer blind")
	assert.Equal(t, KindForbidden, Kind(err))

	// And caps the bid at the base maximum again.
	err = e.Apply(s, "u2", bidAction(205))
	require.Error(t, err)
	assert.EqualError(t, err, "bid too large")
}

func TestSellReopensBidding(t *testing.T) {
	e, s := thousandBidding(t)

	require.NoError(t, e.Apply(s, "u1", bidAction(100)))
	require.NoError(t, e.Apply(s, "u2", passBid()))
	require.NoError(t, e.Apply(s, "u3", passBid()))
	require.Equal(t, StatusDistributing, s.Game.Status)

	// Only the bid winner may sell.
	err := e.Apply(s, "u2", Action{Type: ActionSell})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, Kind(err))

	require.NoError(t, e.Apply(s, "u1", Action{Type: ActionSell}))
	g := s.Game
	assert.Equal(t, StatusBidding, g.Status)
	assert.Nil(t, g.Bid)
	assert.True(t, g.Opts.Sold)
	assert.Equal(t, []card.Card{"JS", "QC", "KS"}, g.Talon)
	assert.Len(t, s.PlayerByID("p1").Hand, 7)
	assert.True(t, g.Bids[len(g.Bids)-1].Sell)
	assert.Equal(t, PlayerID("p2"), g.PlayerID)

	// The sale wiped the standing bid: any legal amount reopens.
	require.NoError(t, e.Apply(s, "u2", bidAction(60)))
	require.NoError(t, e.Apply(s, "u3", passBid()))
	require.NoError(t, e.Apply(s, "u1", passBid()))

	require.NotNil(t, g.Bid)
	assert.Equal(t, PlayerID("p2"), g.Bid.PlayerID)
	assert.Len(t, s.PlayerByID("p2").Hand, 10)

	// The talon sells only once per game.
	err = e.Apply(s, "u2", Action{Type: ActionSell})
	require.Error(t, err)
	assert.Equal(t, KindConflict, Kind(err))
}

func TestDistributeAfterBidding(t *testing.T) {
	e, s := thousandBidding(t)

	require.NoError(t, e.Apply(s, "u1", bidAction(100)))
	require.NoError(t, e.Apply(s, "u2", passBid()))
	require.NoError(t, e.Apply(s, "u3", passBid()))

	// Only the obligated winner distributes.
	err := e.Apply(s, "u2", Action{Type: ActionDistribute,
		Distribute: map[PlayerID][]card.Card{"p1": {"AH"}}})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, Kind(err))

	// Wrong amounts are rejected.
	err = e.Apply(s, "u1", Action{Type: ActionDistribute,
		Distribute: map[PlayerID][]card.Card{"p2": {"9D", "JD"}, "p3": {"JS"}}})
	require.Error(t, err)
	assert.EqualError(t, err, "wrong amount being distributed")

	// Cards must come from the distributor's hand.
	err = e.Apply(s, "u1", Action{Type: ActionDistribute,
		Distribute: map[PlayerID][]card.Card{"p2": {"AH"}, "p3": {"JS"}}})
	require.Error(t, err)
	assert.EqualError(t, err, "distributing cards not in hand")

	require.NoError(t, e.Apply(s, "u1", Action{Type: ActionDistribute,
		Distribute: map[PlayerID][]card.Card{"p2": {"9D"}, "p3": {"JS"}}}))

	g := s.Game
	assert.Equal(t, StatusOngoing, g.Status)
	assert.Equal(t, PlayerID("p1"), g.PlayerID)
	assert.Len(t, s.PlayerByID("p1").Hand, 8)
	assert.Len(t, s.PlayerByID("p2").Hand, 8)
	assert.Len(t, s.PlayerByID("p3").Hand, 8)
	assert.Equal(t, string(ActionMove), s.PlayerByID("p1").Expected.Action)
}

func TestRedeal(t *testing.T) {
	e, s := thousandBidding(t)

	// Two nines do not qualify.
	err := e.Apply(s, "u1", Action{Type: ActionRedeal})
	require.Error(t, err)
	assert.EqualError(t, err, "hand does not qualify for redeal")

	p1 := s.PlayerByID("p1")
	p1.Hand = []card.Card{"9D", "9H", "9S", "AD", "KD", "QH", "JD"}

	require.NoError(t, e.Apply(s, "u1", Action{Type: ActionRedeal}))
	g := s.Game
	assert.Equal(t, StatusEnded, g.Status)
	assert.Equal(t, StatusEnded, s.Table.Status)
	assert.True(t, g.Opts.Redeal)
	assert.True(t, g.Bids[len(g.Bids)-1].Redeal)
	assert.Empty(t, g.Score)
}

func TestRedealForfeitedByBidding(t *testing.T) {
	e, s := thousandBidding(t)
	s.PlayerByID("p1").Hand = []card.Card{"9D", "9H", "9S", "AD", "KD", "QH", "JD"}

	require.NoError(t, e.Apply(s, "u1", bidAction(60)))
	require.NoError(t, e.Apply(s, "u2", passBid()))

	// p1 has bid already; the claim comes too late.
	err := e.Apply(s, "u1", Action{Type: ActionRedeal})
	require.Error(t, err)
	assert.Equal(t, KindConflict, Kind(err))
}

func TestSuitedBidding(t *testing.T) {
	tpl := &template.Template{
		Name: "suited",
		Opts: template.Opts{
			Cards:     []card.Card{"9D", "9H", "9S", "9C", "AD", "AH", "AS", "AC"},
			Strengths: "9A",
			Suites:    "DHSC",
			Sort:      []string{"strength"},
			Players:   template.PlayerRange{Min: 3, Max: 3},
			Hand:      2,
			Bidding:   &template.BiddingOpts{Pass: true, Suite: "DHSC"},
		},
	}
	e := NewEngine(tpl)
	s := newTable(3)
	s.Table.Status = StatusOngoing
	s.Game = &Game{Status: StatusBidding, PlayerID: "p1"}
	setHands(s, map[PlayerID][]card.Card{
		"p1": {"9D", "AD"},
		"p2": {"9H", "AH"},
		"p3": {"9S", "AS"},
	})

	suited := func(number int, suite string) Action {
		return Action{Type: ActionBid, Bid: &BidData{Number: number, Suite: suite}}
	}

	// This game bids in a suit; a bid without one says nothing.
	err := e.Apply(s, "u1", suited(5, ""))
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, Kind(err))
	err = e.Apply(s, "u1", suited(5, "Z"))
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, Kind(err))

	require.NoError(t, e.Apply(s, "u1", suited(5, "H")))

	// Same number only overbids in a higher suit.
	err = e.Apply(s, "u2", suited(5, "D"))
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, Kind(err))
	err = e.Apply(s, "u2", suited(5, ""))
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, Kind(err))
	require.NoError(t, e.Apply(s, "u2", suited(5, "S")))
}
