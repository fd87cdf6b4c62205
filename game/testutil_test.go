package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"deckhall.com/server/card"
	"deckhall.com/server/template"
)

func intp(n int) *int { return &n }

func loadTemplate(t *testing.T, name string) *template.Template {
	tpl, err := template.Load(fmt.Sprintf("../templates/%s.yaml", name))
	require.NoError(t, err)
	return tpl
}

// miniTemplate is a two-player trick game small enough to script whole
// games by hand.
func miniTemplate() *template.Template {
	return &template.Template{
		Name: "mini",
		Opts: template.Opts{
			Cards:     []card.Card{"9D", "9H", "AD", "AH"},
			Strengths: "9A",
			Suites:    "DH",
			Sort:      []string{"strength", "suite"},
			Players:   template.PlayerRange{Min: 2, Max: 2},
			Hand:      2,
			Trick:     true,
			Move:      &template.MoveOpts{Cards: template.Count{Fixed: intp(1)}},
			Lead:      &template.LeadOpts{Rest: "trick"},
			Points:    &template.PointsOpts{Trick: map[string]int{"A": 11}},
			Complete:  &template.CompleteOpts{Score: 20},
		},
	}
}

// newTable seats n players p1..pn held by users u1..un, hosted by u1.
func newTable(n int) *TableState {
	s := &TableState{
		Table: &Table{
			Code:     "tbl1",
			Name:     "test table",
			HostID:   "u1",
			Template: "test",
			Series:   1,
			Status:   StatusNew,
		},
	}
	for i := 1; i <= n; i++ {
		p := &Player{
			ID:       PlayerID(fmt.Sprintf("p%d", i)),
			UserID:   UserID(fmt.Sprintf("u%d", i)),
			Sequence: i - 1,
		}
		s.Players = append(s.Players, p)
		s.Viewers = append(s.Viewers, p.UserID)
	}
	return s
}

// thousandBidding returns a three-player thousand table mid-bidding
// with fixed hands, no player holding a marriage, and p1 to act.
func thousandBidding(t *testing.T) (*Engine, *TableState) {
	tpl := loadTemplate(t, "thousand")
	s := newTable(3)
	s.Table.Status = StatusOngoing

	hands := map[PlayerID][]card.Card{
		"p1": {"AD", "0D", "KD", "QH", "JD", "9D", "AS"},
		"p2": {"AH", "0H", "KH", "QD", "JH", "9H", "0S"},
		"p3": {"AC", "KC", "QS", "JC", "9C", "9S", "0C"},
	}
	talon := []card.Card{"JS", "QC", "KS"}

	g := &Game{
		Series:   1,
		Sequence: 1,
		Status:   StatusBidding,
		Hands:    make(map[PlayerID][]card.Card),
		Talon:    append([]card.Card(nil), talon...),
		Talon0:   append([]card.Card(nil), talon...),
		PlayerID: "p1",
	}
	for _, p := range s.Players {
		hand := hands[p.ID]
		g.Deck = append(g.Deck, hand...)
		g.Hands[p.ID] = append([]card.Card(nil), hand...)
		p.Hand = append([]card.Card(nil), hand...)
		p.Hand0 = append([]card.Card(nil), hand...)
	}
	g.Deck = append(g.Deck, talon...)
	s.Players[0].Expected = Expected{Action: string(ActionBid)}
	s.Game = g

	return NewEngine(tpl), s
}

func setHands(s *TableState, hands map[PlayerID][]card.Card) {
	for _, p := range s.Players {
		hand := hands[p.ID]
		p.Hand = append([]card.Card(nil), hand...)
		p.Hand0 = append([]card.Card(nil), hand...)
		if s.Game != nil {
			if s.Game.Hands == nil {
				s.Game.Hands = make(map[PlayerID][]card.Card)
			}
			s.Game.Hands[p.ID] = append([]card.Card(nil), hand...)
		}
	}
}

func bidAction(number int) Action {
	return Action{Type: ActionBid, Bid: &BidData{Number: number}}
}

func passBid() Action {
	return Action{Type: ActionBid, Bid: &BidData{Pass: true}}
}

func moveAction(cards ...card.Card) Action {
	return Action{Type: ActionMove, Move: &MoveData{Cards: cards}}
}

func passMove() Action {
	return Action{Type: ActionMove, Move: &MoveData{Pass: true}}
}

// stateJSON serializes a snapshot for before/after comparisons.
func stateJSON(t *testing.T, s *TableState) string {
	data, err := json.Marshal(s)
	require.NoError(t, err)
	return string(data)
}
