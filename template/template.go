package template

import (
	"sort"

	"gopkg.in/yaml.v3"

	"deckhall.com/server/card"
)

// Template is an immutable rule descriptor for one game kind. It is
// parsed from a YAML document once at load time and consulted read-only
// by the engine.
type Template struct {
	Name string `yaml:"name" json:"name"`
	Opts Opts   `yaml:"opts" json:"opts"`
}

// Opts is the declarative rule tree of a template.
type Opts struct {
	Cards     []card.Card `yaml:"cards" json:"cards"`
	Strengths string      `yaml:"strengths" json:"strengths"`
	Suites    string      `yaml:"suites" json:"suites"`
	Sort      []string    `yaml:"sort" json:"sort"`
	Players   PlayerRange `yaml:"players" json:"players"`
	Hand      int         `yaml:"hand" json:"hand"`

	Trick bool `yaml:"trick" json:"trick"`
	Trump bool `yaml:"trump" json:"trump"`

	Talon    *TalonOpts    `yaml:"talon" json:"talon,omitempty"`
	Bidding  *BiddingOpts  `yaml:"bidding" json:"bidding,omitempty"`
	Lead     *LeadOpts     `yaml:"lead" json:"lead,omitempty"`
	Move     *MoveOpts     `yaml:"move" json:"move,omitempty"`
	Points   *PointsOpts   `yaml:"points" json:"points,omitempty"`
	Ranking  *RankingOpts  `yaml:"ranking" json:"ranking,omitempty"`
	Complete *CompleteOpts `yaml:"complete" json:"complete,omitempty"`
	Redeal   *RedealOpts   `yaml:"redeal" json:"redeal,omitempty"`
	Nextgame *NextgameOpts `yaml:"nextgame" json:"nextgame,omitempty"`

	// Reveal all hands to all viewers once the game has ended.
	Reveal bool `yaml:"reveal" json:"reveal"`
}

// PlayerRange is the allowed seat count, declared as a [min, max] list.
type PlayerRange struct {
	Min int
	Max int
}

func (p *PlayerRange) UnmarshalYAML(value *yaml.Node) error {
	var pair []int
	if err := value.Decode(&pair); err != nil {
		return err
	}
	if len(pair) > 0 {
		p.Min = pair[0]
		p.Max = pair[0]
	}
	if len(pair) > 1 {
		p.Max = pair[1]
	}
	return nil
}

type TalonOpts struct {
	// Face-up talon is visible to all viewers.
	Face bool `yaml:"face" json:"face"`
	// Lead deals this many talon cards to a shared face-up lead stack.
	Lead int `yaml:"lead" json:"lead"`
	// Trump turns the last dealt talon card face up as initial trump.
	Trump bool `yaml:"trump" json:"trump"`
}

type BiddingOpts struct {
	Min        Limit  `yaml:"min" json:"min"`
	Max        Limit  `yaml:"max" json:"max"`
	Step       int    `yaml:"step" json:"step"`
	Pass       bool   `yaml:"pass" json:"pass"`
	PassFinal  bool   `yaml:"pass_final" json:"pass_final"`
	Blind      bool   `yaml:"blind" json:"blind"`
	Talon      bool   `yaml:"talon" json:"talon"`
	Sell       bool   `yaml:"sell" json:"sell"`
	Distribute int    `yaml:"distribute" json:"distribute"`
	Suite      string `yaml:"suite" json:"suite"`
}

// Limit is a bid bound, either a plain number or conditional on the
// bidder being blind or holding a trump-capable set:
//
//	min: 60
//	max: {base: 120, blind: 240, trump: 340}
type Limit struct {
	Base  *int `yaml:"base" json:"base,omitempty"`
	Blind *int `yaml:"blind" json:"blind,omitempty"`
	Trump *int `yaml:"trump" json:"trump,omitempty"`
}

func (l *Limit) UnmarshalYAML(value *yaml.Node) error {
	var scalar int
	if err := value.Decode(&scalar); err == nil {
		l.Base = &scalar
		return nil
	}
	type plain Limit
	return value.Decode((*plain)(l))
}

// For returns the applicable bound for a bidder, or nil when unbounded.
func (l Limit) For(blind, trump bool) *int {
	if trump && l.Trump != nil {
		return l.Trump
	}
	if blind && l.Blind != nil {
		return l.Blind
	}
	return l.Base
}

type LeadOpts struct {
	// First names the leader of the first trick ("bidder").
	First string `yaml:"first" json:"first"`
	// Rest names the leader of later tricks ("trick": trick winner leads).
	Rest string `yaml:"rest" json:"rest"`
}

type MoveOpts struct {
	Cards Count `yaml:"cards" json:"cards"`
	Pass  bool  `yaml:"pass" json:"pass"`
	// Crawl enables the face-down crawl variant at this trick index.
	Crawl *int `yaml:"crawl" json:"crawl,omitempty"`
	// Suite and Level require all cards of one move to share suit/level.
	Suite    bool               `yaml:"suite" json:"suite"`
	Level    bool               `yaml:"level" json:"level"`
	Response *ResponseOpts      `yaml:"response" json:"response,omitempty"`
	Win      *WinOpts           `yaml:"win" json:"win,omitempty"`
	Special  map[string]Special `yaml:"special" json:"special,omitempty"`
	Retreat  *RetreatOpts       `yaml:"retreat" json:"retreat,omitempty"`
}

// Count is a cards-per-move requirement, either a fixed number or "*"
// for any amount.
type Count struct {
	Fixed *int
	Any   bool
}

func (c *Count) UnmarshalYAML(value *yaml.Node) error {
	var scalar int
	if err := value.Decode(&scalar); err == nil {
		c.Fixed = &scalar
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	c.Any = s == "*"
	return nil
}

type ResponseOpts struct {
	Suite  bool `yaml:"suite" json:"suite"`
	Level  bool `yaml:"level" json:"level"`
	Amount bool `yaml:"amount" json:"amount"`
}

type WinOpts struct {
	Suite bool   `yaml:"suite" json:"suite"`
	Level string `yaml:"level" json:"level"` // "first" or "all"
	Last  bool   `yaml:"last" json:"last"`
}

// Special is a named special move such as declaring trump: playing a
// card from a fully held qualifying set.
type Special struct {
	// Condition gates the move on game state; "suite" requires the
	// played set to match the declared bid suit.
	Condition string `yaml:"condition" json:"condition,omitempty"`
	// Rounds disables the move for listed trick indexes.
	Rounds map[int]bool  `yaml:"rounds" json:"rounds,omitempty"`
	Sets   [][]card.Card `yaml:"sets" json:"sets"`
}

// AllowedInRound reports whether the special move is enabled at the
// given trick index. Absent entries default to enabled.
func (s Special) AllowedInRound(round int) bool {
	enabled, listed := s.Rounds[round]
	return !listed || enabled
}

// HeldSet returns a fully held qualifying set containing any of the
// played cards, or nil.
func (s Special) HeldSet(hand, played []card.Card) []card.Card {
	for _, set := range s.Sets {
		if !card.Contains(hand, set) {
			continue
		}
		for _, p := range played {
			for _, c := range set {
				if p == c {
					return set
				}
			}
		}
	}
	return nil
}

// Holds reports whether hand fully holds any qualifying set.
func (s Special) Holds(hand []card.Card) bool {
	for _, set := range s.Sets {
		if card.Contains(hand, set) {
			return true
		}
	}
	return false
}

type RetreatOpts struct {
	// Cards taken back from the lead stack per retreat.
	Cards int `yaml:"cards" json:"cards"`
}

type PointsOpts struct {
	// Trick values points per exact card token, suit char or level char.
	Trick map[string]int `yaml:"trick" json:"trick,omitempty"`
	// Trump pays a suit-keyed bonus for a trump declaration.
	Trump map[string]int `yaml:"trump" json:"trump,omitempty"`
	// Special pays flat bonuses for other named special moves.
	Special map[string]int `yaml:"special" json:"special,omitempty"`
	// Blind is a bonus operation applied to a fulfilled blind bid.
	Blind     *Op          `yaml:"blind" json:"blind,omitempty"`
	Penalties *PenaltyOpts `yaml:"penalties" json:"penalties,omitempty"`
	Bidonly   *BidonlyOpts `yaml:"bidonly" json:"bidonly,omitempty"`
}

type PenaltyOpts struct {
	Bid      *Op           `yaml:"bid" json:"bid,omitempty"`
	Blind    *Op           `yaml:"blind" json:"blind,omitempty"`
	Nochange *NochangeOpts `yaml:"nochange" json:"nochange,omitempty"`
}

// Op is an arithmetic operation applied to a base value.
type Op struct {
	Op    string `yaml:"op" json:"op"` // "mul" or "add"
	Value int    `yaml:"value" json:"value"`
}

// Apply returns the operation applied to value.
func (o Op) Apply(value int) int {
	switch o.Op {
	case "mul":
		return value * o.Value
	case "add":
		return value + o.Value
	}
	return value
}

type NochangeOpts struct {
	Op    string `yaml:"op" json:"op"`
	Value int    `yaml:"value" json:"value"`
	// Times is the streak length of unchanged scores triggering the op.
	Times int `yaml:"times" json:"times"`
}

type BidonlyOpts struct {
	// Min is the running total past which non-bidders score nothing.
	Min int `yaml:"min" json:"min"`
}

type RankingOpts struct {
	// Finish ranks players by hand-exhaustion order.
	Finish bool `yaml:"finish" json:"finish"`
}

type CompleteOpts struct {
	// Score completes the table once any running total reaches it.
	Score int `yaml:"score" json:"score"`
}

type RedealOpts struct {
	// Cards is the "bad hand" set; holding Min or more of them before
	// bidding qualifies for a redeal.
	Cards  []card.Card `yaml:"cards" json:"cards"`
	Min    int         `yaml:"min" json:"min"`
	Reveal bool        `yaml:"reveal" json:"reveal"`
}

type NextgameOpts struct {
	Distribute *NextgameDistributeOpts `yaml:"distribute" json:"distribute,omitempty"`
}

type NextgameDistributeOpts struct {
	// Ranking exchanges hands between ranking halves before next game.
	Ranking bool `yaml:"ranking" json:"ranking"`
	// Max cards exchanged by the outermost ranking pair; one less per
	// pair inward.
	Max int `yaml:"max" json:"max"`
}

// Compare orders two cards by the template's declared sort categories,
// each category an index comparison over the suite or strength alphabet.
func (t *Template) Compare(a, b card.Card) card.Ordering {
	for _, category := range t.Opts.Sort {
		var result card.Ordering
		switch category {
		case "suite":
			result = card.CompareIndex(t.Opts.Suites, a.Suit(), b.Suit())
		case "strength":
			result = card.CompareIndex(t.Opts.Strengths, a.Level(), b.Level())
		}
		if result != card.Equal {
			return result
		}
	}
	return card.Equal
}

// Stronger orders two cards by strength alone, ignoring suit categories.
func (t *Template) Stronger(a, b card.Card) card.Ordering {
	return card.CompareIndex(t.Opts.Strengths, a.Level(), b.Level())
}

// SortHand sorts cards in place, strongest first per the declared sort
// order.
func (t *Template) SortHand(cards []card.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return t.Compare(cards[i], cards[j]) == card.Greater
	})
}

// Points returns the point value of a card: per exact token, per suit
// char and per level char, summed.
func (t *Template) Points(c card.Card) int {
	if t.Opts.Points == nil {
		return 0
	}
	values := t.Opts.Points.Trick
	result := values[string(c)]
	if s := c.Suit(); s != "" {
		result += values[s]
	}
	if l := c.Level(); l != "" {
		result += values[l]
	}
	return result
}

// HasBidding reports whether games of this template open with a bidding
// phase.
func (t *Template) HasBidding() bool {
	return t.Opts.Bidding != nil
}

// MoveCount returns the fixed cards-per-move requirement, or 0 when the
// amount is variable.
func (t *Template) MoveCount() int {
	if t.Opts.Move == nil || t.Opts.Move.Cards.Fixed == nil {
		return 0
	}
	return *t.Opts.Move.Cards.Fixed
}

// TrumpSpecial returns the configured trump declaration move, if any.
func (t *Template) TrumpSpecial() *Special {
	if t.Opts.Move == nil {
		return nil
	}
	if s, ok := t.Opts.Move.Special["trump"]; ok {
		return &s
	}
	return nil
}

// LevelCount returns how many deck cards carry the given level.
func (t *Template) LevelCount(level string) int {
	count := 0
	for _, c := range t.Opts.Cards {
		if c.Level() == level {
			count++
		}
	}
	return count
}

// TopLevel returns the strongest level character in the strength order.
func (t *Template) TopLevel() string {
	if t.Opts.Strengths == "" {
		return ""
	}
	return string(t.Opts.Strengths[len(t.Opts.Strengths)-1])
}
