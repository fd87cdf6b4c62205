package game

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"deckhall.com/server/card"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PlayerID identifies one seat at a table across the table's lifetime.
type PlayerID string

// UserID is the authenticated identity supplied by the caller.
type UserID string

// Status is a table or game phase.
type Status string

const (
	StatusNew          Status = "new"
	StatusBidding      Status = "bidding"
	StatusDistributing Status = "distributing"
	StatusOngoing      Status = "ongoing"
	StatusEnded        Status = "ended"
	// StatusComplete applies to the owning table, never to a game.
	StatusComplete Status = "complete"
)

// Bid is one entry in a game's bid history.
type Bid struct {
	PlayerID PlayerID `json:"fk_player"`
	Number   int      `json:"number,omitempty"`
	Suite    string   `json:"suite,omitempty"`
	Pass     bool     `json:"pass,omitempty"`
	Blind    bool     `json:"blind,omitempty"`
	Sell     bool     `json:"sell,omitempty"`
	Redeal   bool     `json:"redeal,omitempty"`
}

// Move is one entry in a game's move log.
type Move struct {
	PlayerID PlayerID    `json:"fk_player"`
	Cards    []card.Card `json:"cards,omitempty"`
	Pass     bool        `json:"pass,omitempty"`
	Crawl    bool        `json:"crawl,omitempty"`
	Trump    bool        `json:"trump,omitempty"`
	// Special names a template special move other than trump.
	Special string `json:"special,omitempty"`
	// Uptake records cards taken back from the lead stack by a retreat.
	Uptake []card.Card `json:"uptake,omitempty"`
}

// Score maps players to a game or running result.
type Score map[PlayerID]int

// GameOpts are runtime flags derived during play.
type GameOpts struct {
	// Trump is the currently declared trump suit, if any.
	Trump string `json:"trump,omitempty"`
	// Sold is set once a won bid has been sold back this game.
	Sold bool `json:"sell,omitempty"`
	// Redeal marks a game aborted for a qualifying bad hand.
	Redeal bool `json:"redeal,omitempty"`
}

// Game is one played round of a table. Mutated exclusively by the
// engine under the table's exclusion scope; immutable once ended.
type Game struct {
	Series   int      `json:"series"`
	Sequence int      `json:"sequence"`
	Status   Status   `json:"status"`
	Opts     GameOpts `json:"opts"`

	Deck  []card.Card              `json:"deck"`
	Hands map[PlayerID][]card.Card `json:"hands"`
	// Talon is the current undealt reserve, Talon0 the initial one.
	Talon  []card.Card `json:"talon"`
	Talon0 []card.Card `json:"talon0"`
	// Lead is the shared face-up stack retreat games take back from.
	Lead []card.Card `json:"lead,omitempty"`

	Bid  *Bid  `json:"bid,omitempty"`
	Bids []Bid `json:"bids"`

	// Trick holds cards currently on the table; Tricks the completed
	// ones; Moves the full log grouped per trick; Discards the piles
	// cleared off the table (mirrors Tricks).
	Trick    []Move   `json:"trick"`
	Tricks   [][]Move `json:"tricks"`
	Moves    [][]Move `json:"moves"`
	Discards [][]Move `json:"discards"`

	Score Score `json:"score,omitempty"`

	// PlayerID designates whose turn it is; empty when no one's.
	PlayerID PlayerID  `json:"fk_player,omitempty"`
	Changed  time.Time `json:"dt_changed"`
}

// Expected describes the next legal action shape for a player, used
// for UI hinting and defensively by the distribute handler.
type Expected struct {
	Action string `json:"action,omitempty"`
	// Cards is the fixed cards-per-move amount; 0 when variable.
	Cards int `json:"cards,omitempty"`
	// Distribute maps recipients to owed card counts.
	Distribute map[PlayerID]int `json:"distribute,omitempty"`
	// Best requires the surrendered cards to be the player's strongest.
	Best bool `json:"best,omitempty"`
}

func (e Expected) Empty() bool {
	return e.Action == "" && len(e.Distribute) == 0
}

// Player is one seat at a table.
type Player struct {
	ID       PlayerID `json:"id"`
	UserID   UserID   `json:"fk_user"`
	Sequence int      `json:"sequence"`
	// Status is free-form; "blind" while holding an unseen blind hand.
	Status string `json:"status,omitempty"`

	Hand  []card.Card `json:"hand"`
	Hand0 []card.Card `json:"hand0"`

	Expected Expected  `json:"expected"`
	Moves    [][]Move  `json:"moves"`
	Tricks   [][]Move  `json:"tricks"`
	Changed  time.Time `json:"dt_changed"`
}

// Table is the durable per-table record spanning games.
type Table struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	HostID   UserID `json:"fk_host"`
	Template string `json:"fk_template"`
	Series   int    `json:"series"`
	// Games is the sequence counter of the current series.
	Games  int    `json:"games"`
	Status Status `json:"status"`

	Bids        []Bid   `json:"bids"`
	BidsHistory [][]Bid `json:"bids_history"`
	// Scores holds one entry per ended game: running totals for point
	// games, raw ranks for ranking games.
	Scores        []Score   `json:"scores"`
	ScoresHistory [][]Score `json:"scores_history"`
	Changed       time.Time `json:"dt_changed"`
}

// LogEntry records one accepted action.
type LogEntry struct {
	ID     string      `json:"id"`
	Action ActionType  `json:"action"`
	UserID UserID      `json:"fk_user"`
	Data   interface{} `json:"data,omitempty"`
	At     time.Time   `json:"dt_created"`
}

// TableState is the consistent snapshot one action operates on.
type TableState struct {
	Table   *Table     `json:"table"`
	Game    *Game      `json:"game,omitempty"`
	Players []*Player  `json:"players"`
	Viewers []UserID   `json:"viewers"`
	Log     []LogEntry `json:"log"`
}

// Clone deep-copies the state so a handler can mutate a working copy
// that is discarded wholesale on rejection.
func (s *TableState) Clone() (*TableState, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var result TableState
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PlayerByID returns the seat with the given id, or nil.
func (s *TableState) PlayerByID(id PlayerID) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByUser returns the seat held by the given user, or nil.
func (s *TableState) PlayerByUser(userID UserID) *Player {
	for _, p := range s.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// HasViewer reports whether the user participates at the table.
func (s *TableState) HasViewer(userID UserID) bool {
	for _, v := range s.Viewers {
		if v == userID {
			return true
		}
	}
	return false
}
