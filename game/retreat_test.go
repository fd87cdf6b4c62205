package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckhall.com/server/card"
	"deckhall.com/server/template"
)

func retreatTemplate() *template.Template {
	return &template.Template{
		Name: "retreat",
		Opts: template.Opts{
			Cards:     []card.Card{"9D", "9H", "9S", "9C", "AD", "AH", "AS", "AC"},
			Strengths: "9A",
			Suites:    "DHSC",
			Sort:      []string{"strength"},
			Players:   template.PlayerRange{Min: 2, Max: 2},
			Hand:      2,
			Trick:     true,
			Talon:     &template.TalonOpts{Face: true, Lead: 2},
			Move: &template.MoveOpts{
				Cards:   template.Count{Fixed: intp(1)},
				Retreat: &template.RetreatOpts{Cards: 2},
			},
		},
	}
}

// retreatGame seats two players mid-game with a lead stack and talon.
func retreatGame(lead, talon []card.Card) (*Engine, *TableState) {
	e := NewEngine(retreatTemplate())
	s := newTable(2)
	s.Table.Status = StatusOngoing
	s.Game = &Game{
		Status:   StatusOngoing,
		PlayerID: "p1",
		Lead:     lead,
		Talon:    talon,
	}
	setHands(s, map[PlayerID][]card.Card{
		"p1": {"AC"},
		"p2": {"AD"},
	})
	return e, s
}

func TestRetreatTakesFromLead(t *testing.T) {
	e, s := retreatGame([]card.Card{"9D", "9H", "9S"}, nil)
	g := s.Game

	require.NoError(t, e.Apply(s, "u1", Action{Type: ActionRetreat}))

	// The top two lead cards move into the hand, sorted in.
	p1 := s.PlayerByID("p1")
	assert.ElementsMatch(t, []card.Card{"AC", "9H", "9S"}, p1.Hand)
	assert.Equal(t, card.Card("AC"), p1.Hand[0])
	assert.Equal(t, []card.Card{"9D"}, g.Lead)

	// The uptake is logged as a move and the turn passes on.
	require.NotEmpty(t, g.Moves)
	last := g.Moves[len(g.Moves)-1]
	require.NotEmpty(t, last)
	assert.Equal(t, []card.Card{"9H", "9S"}, last[len(last)-1].Uptake)
	assert.Equal(t, PlayerID("p2"), g.PlayerID)
	assert.Equal(t, string(ActionMove), s.PlayerByID("p2").Expected.Action)
}

func TestRetreatRefillsLeadFromTalon(t *testing.T) {
	// An empty lead stack refills from the talon before the take.
	e, s := retreatGame(nil, []card.Card{"AH", "AS"})
	g := s.Game

	require.NoError(t, e.Apply(s, "u1", Action{Type: ActionRetreat}))
	assert.ElementsMatch(t, []card.Card{"AC", "AH", "AS"}, s.PlayerByID("p1").Hand)
	assert.Empty(t, g.Lead)
	assert.Empty(t, g.Talon)
}

func TestRetreatRefillsAfterTake(t *testing.T) {
	e, s := retreatGame([]card.Card{"9D", "9H"}, []card.Card{"AH", "AS", "9C"})
	g := s.Game

	require.NoError(t, e.Apply(s, "u1", Action{Type: ActionRetreat}))

	// Emptying the lead stack tops it up again, two cards per refill.
	assert.ElementsMatch(t, []card.Card{"AC", "9D", "9H"}, s.PlayerByID("p1").Hand)
	assert.Equal(t, []card.Card{"AH", "AS"}, g.Lead)
	assert.Equal(t, []card.Card{"9C"}, g.Talon)
}

func TestRetreatShortLead(t *testing.T) {
	// Fewer cards than the configured take is not an error.
	e, s := retreatGame([]card.Card{"9D"}, nil)

	require.NoError(t, e.Apply(s, "u1", Action{Type: ActionRetreat}))
	assert.ElementsMatch(t, []card.Card{"AC", "9D"}, s.PlayerByID("p1").Hand)
	assert.Empty(t, s.Game.Lead)
}

func TestRetreatEndsGameWhenOpponentIsOut(t *testing.T) {
	e, s := retreatGame([]card.Card{"9D"}, nil)
	s.PlayerByID("p2").Hand = nil

	require.NoError(t, e.Apply(s, "u1", Action{Type: ActionRetreat}))
	assert.Equal(t, StatusEnded, s.Game.Status)
	assert.Equal(t, StatusEnded, s.Table.Status)
}

func TestRetreatRejections(t *testing.T) {
	e, s := retreatGame([]card.Card{"9D"}, nil)

	// Out of turn.
	err := e.Apply(s, "u2", Action{Type: ActionRetreat})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, Kind(err))

	// Both stacks empty.
	s.Game.Lead, s.Game.Talon = nil, nil
	err = e.Apply(s, "u1", Action{Type: ActionRetreat})
	require.Error(t, err)
	assert.EqualError(t, err, "nothing to retreat")

	// The game has to support retreating at all.
	mini, ms := NewEngine(miniTemplate()), newTable(2)
	ms.Table.Status = StatusOngoing
	ms.Game = &Game{Status: StatusOngoing, PlayerID: "p1", Lead: []card.Card{"9D"}}
	setHands(ms, map[PlayerID][]card.Card{"p1": {"AD"}, "p2": {"AH"}})
	err = mini.Apply(ms, "u1", Action{Type: ActionRetreat})
	require.Error(t, err)
	assert.EqualError(t, err, "cannot retreat in this game")
}
