package game

import (
	"deckhall.com/server/card"
)

// ActionType is the closed set of game actions. Dispatch is an
// exhaustive switch in Engine.Apply; unknown types are a BadRequest.
type ActionType string

const (
	ActionStart      ActionType = "start"
	ActionEnd        ActionType = "end"
	ActionLook       ActionType = "look"
	ActionBid        ActionType = "bid"
	ActionMove       ActionType = "move"
	ActionDistribute ActionType = "distribute"
	ActionSell       ActionType = "sell"
	ActionRedeal     ActionType = "redeal"
	ActionReset      ActionType = "reset"
	ActionRetreat    ActionType = "retreat"
)

// BidData is the payload of a bid action.
type BidData struct {
	Number int    `json:"number,omitempty"`
	Suite  string `json:"suite,omitempty"`
	Pass   bool   `json:"pass,omitempty"`
	Blind  bool   `json:"blind,omitempty"`
}

// MoveData is the payload of a move action.
type MoveData struct {
	Cards   []card.Card `json:"cards,omitempty"`
	Pass    bool        `json:"pass,omitempty"`
	Crawl   bool        `json:"crawl,omitempty"`
	Trump   bool        `json:"trump,omitempty"`
	Special string      `json:"special,omitempty"`
}

// Action is one state-changing request against a table.
type Action struct {
	Type ActionType `json:"action"`

	Bid        *BidData                 `json:"bid,omitempty"`
	Move       *MoveData                `json:"move,omitempty"`
	Distribute map[PlayerID][]card.Card `json:"distribute,omitempty"`
}
