package game

import (
	"math/rand"

	"github.com/rs/zerolog"

	"deckhall.com/server/card"
	"deckhall.com/server/logging"
	"deckhall.com/server/template"
)

var engineLogger = logging.GetZeroLogger("game::engine", nil)

// Engine is the phase state machine for one template. Handlers mutate
// the working snapshot they are given and return a rejection without
// mutating on any failed check; the coordinator discards the snapshot
// on rejection.
type Engine struct {
	template *template.Template
	logger   *zerolog.Logger

	// Source overrides deal randomness, for reproducible tests.
	Source rand.Source
}

func NewEngine(t *template.Template) *Engine {
	return &Engine{template: t, logger: engineLogger}
}

// Apply processes one action end-to-end: validate, mutate, advance
// turn, detect round and game end.
func (e *Engine) Apply(s *TableState, userID UserID, action Action) error {
	switch action.Type {
	case ActionStart:
		return e.start(s, userID)
	case ActionEnd:
		return e.end(s, userID)
	case ActionReset:
		return e.reset(s, userID)
	case ActionLook:
		return e.look(s, userID)
	case ActionBid:
		return e.bid(s, userID, action.Bid)
	case ActionSell:
		return e.sell(s, userID)
	case ActionRedeal:
		return e.redeal(s, userID)
	case ActionDistribute:
		return e.distribute(s, userID, action.Distribute)
	case ActionMove:
		return e.move(s, userID, action.Move)
	case ActionRetreat:
		return e.retreat(s, userID)
	default:
		return BadRequestError{"unknown action"}
	}
}

// start deals a fresh game. Host-only, and only between games.
func (e *Engine) start(s *TableState, userID UserID) error {
	t := e.template
	if userID != s.Table.HostID {
		return ForbiddenError{"not table host"}
	}
	if s.Table.Status != StatusNew && s.Table.Status != StatusEnded {
		return ConflictError{"game underway"}
	}
	if len(s.Players) < t.Opts.Players.Min || len(s.Players) > t.Opts.Players.Max {
		return BadRequestError{"not enough players"}
	}

	deck := MakeDeck(t, e.Source)
	deal := Distribute(t, s.Players, deck)

	e.logger.Info().
		Str(logging.TableCodeKey, s.Table.Code).
		Int(logging.GameSeqKey, s.Table.Games+1).
		Msgf("Starting new game of %s", t.Name)

	status := StatusOngoing
	if t.HasBidding() {
		status = StatusBidding
	}
	exchange := t.Opts.Nextgame != nil && t.Opts.Nextgame.Distribute != nil &&
		t.Opts.Nextgame.Distribute.Ranking &&
		s.Game != nil && len(s.Game.Score) == len(s.Players)
	if exchange {
		status = StatusDistributing
	}

	g := &Game{
		Series:   s.Table.Series,
		Sequence: s.Table.Games + 1,
		Status:   status,
		Deck:     deck,
		Hands:    make(map[PlayerID][]card.Card, len(s.Players)),
		Talon:    deal.Talon,
		Talon0:   append([]card.Card(nil), deal.Talon...),
		Lead:     deal.Lead,
	}
	if deal.Trump != "" {
		g.Opts.Trump = deal.Trump.Suit()
	}

	starter := e.firstActor(s)
	prevScore := Score{}
	if s.Game != nil {
		prevScore = s.Game.Score
	}

	for _, p := range s.Players {
		hand := deal.Hands[p.ID]
		g.Hands[p.ID] = append([]card.Card(nil), hand...)
		p.Hand = append([]card.Card(nil), hand...)
		p.Hand0 = append([]card.Card(nil), hand...)
		p.Moves = nil
		p.Tricks = nil
		p.Expected = Expected{}
		p.Status = ""
		if status == StatusBidding && t.Opts.Bidding.Blind {
			p.Status = "blind"
		}
	}

	g.PlayerID = starter.ID
	if exchange {
		e.assignExchange(s, prevScore)
	} else if status == StatusBidding {
		starter.Expected = Expected{Action: string(ActionBid)}
	} else {
		starter.Expected = e.moveExpected()
	}

	s.Game = g
	s.Table.Status = StatusOngoing
	s.Table.Games = g.Sequence
	return nil
}

// firstActor picks the opening seat: the one after the previous game's
// first bidder or mover, or the same seat again when the previous game
// produced no winner.
func (e *Engine) firstActor(s *TableState) *Player {
	prev := s.Game
	if prev == nil {
		return s.Players[0]
	}

	var prevFirst PlayerID
	if len(prev.Bids) > 0 {
		prevFirst = prev.Bids[0].PlayerID
	} else if len(prev.Moves) > 0 && len(prev.Moves[0]) > 0 {
		prevFirst = prev.Moves[0][0].PlayerID
	}
	p0 := s.PlayerByID(prevFirst)
	if p0 == nil {
		return s.Players[0]
	}
	if len(prev.Score) == 0 && prev.Bid == nil {
		// No recorded winner: the same seat opens again.
		return p0
	}
	return seatAfter(s.Players, p0)
}

// assignExchange computes post-game hand-exchange obligations from the
// previous game's ranking, split into upper and lower halves: the
// outermost pair exchanges the configured maximum, one card less per
// pair inward, lower-half players owing their strongest cards.
func (e *Engine) assignExchange(s *TableState, ranking Score) {
	max := e.template.Opts.Nextgame.Distribute.Max
	ranked := make([]*Player, len(s.Players))
	copy(ranked, s.Players)
	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			if ranking[ranked[j].ID] < ranking[ranked[i].ID] {
				ranked[i], ranked[j] = ranked[j], ranked[i]
			}
		}
	}

	for i := 0; i < len(ranked)/2; i++ {
		count := max - i
		if count < 1 {
			break
		}
		upper, lower := ranked[i], ranked[len(ranked)-1-i]
		upper.Expected = Expected{
			Action:     string(ActionDistribute),
			Distribute: map[PlayerID]int{lower.ID: count},
		}
		lower.Expected = Expected{
			Action:     string(ActionDistribute),
			Distribute: map[PlayerID]int{upper.ID: count},
			Best:       true,
		}
	}
}

// end force-terminates the current game without scoring. Host-only.
func (e *Engine) end(s *TableState, userID UserID) error {
	if userID != s.Table.HostID {
		return ForbiddenError{"not table host"}
	}
	if s.Table.Status == StatusNew || s.Table.Status == StatusEnded {
		return ConflictError{"game not underway"}
	}

	s.Game.Status = StatusEnded
	s.Game.PlayerID = ""
	s.Table.Status = StatusEnded
	for _, p := range s.Players {
		p.Expected = Expected{}
		p.Status = ""
	}
	return nil
}

// reset archives table score and bid history, advances the series and
// starts the first game of the new series.
func (e *Engine) reset(s *TableState, userID UserID) error {
	if userID != s.Table.HostID {
		return ForbiddenError{"not table host"}
	}
	if s.Table.Status != StatusComplete {
		return ConflictError{"table not completed"}
	}

	table := s.Table
	table.ScoresHistory = append(table.ScoresHistory, table.Scores)
	table.BidsHistory = append(table.BidsHistory, table.Bids)
	table.Scores = nil
	table.Bids = nil
	table.Games = 0
	table.Series++
	table.Status = StatusEnded
	return e.start(s, userID)
}

// look reveals the player's own blind hand to them.
func (e *Engine) look(s *TableState, userID UserID) error {
	player := s.PlayerByUser(userID)
	if player == nil {
		return ForbiddenError{"not a player at table"}
	}
	if player.Status == "blind" {
		player.Status = ""
	}
	return nil
}

// bid processes one bid and detects bidding closure: all passed, or
// one standing bidder left.
func (e *Engine) bid(s *TableState, userID UserID, data *BidData) error {
	t := e.template
	if !t.HasBidding() {
		return ConflictError{"game has no bidding"}
	}
	player := s.PlayerByUser(userID)
	if player == nil {
		return ForbiddenError{"not a player at table"}
	}
	if err := validateBid(t, s.Game, player, data); err != nil {
		return err
	}

	g := s.Game
	g.Bids = append(g.Bids, Bid{
		PlayerID: player.ID,
		Number:   data.Number,
		Suite:    data.Suite,
		Pass:     data.Pass,
		Blind:    data.Blind,
	})
	player.Expected = Expected{}

	acted := latestBids(g.Bids)
	passes := 0
	for _, bid := range acted {
		if bid.Pass {
			passes++
		}
	}

	switch {
	case len(acted) == len(s.Players) && passes == len(s.Players):
		// All players passed without a single bid: game over, no score.
		g.Status = StatusEnded
		g.PlayerID = ""
		s.Table.Status = StatusEnded
		for _, p := range s.Players {
			p.Status = ""
			p.Expected = Expected{}
		}

	case len(acted) == len(s.Players) && passes == len(s.Players)-1:
		e.closeBidding(s)

	default:
		next := seatAfter(s.Players, player)
		if t.Opts.Bidding.PassFinal {
			for bid, ok := acted[next.ID]; ok && bid.Pass; bid, ok = acted[next.ID] {
				next = seatAfter(s.Players, next)
			}
		}
		g.PlayerID = next.ID
		next.Expected = Expected{Action: string(ActionBid)}
	}

	return nil
}

// closeBidding resolves the winning bid: the winner optionally takes
// the talon and optionally enters a forced distributing sub-phase.
func (e *Engine) closeBidding(s *TableState) {
	t, g := e.template, s.Game
	winning := lastStandingBid(g.Bids)
	g.Bid = winning
	winner := s.PlayerByID(winning.PlayerID)

	for _, p := range s.Players {
		p.Status = ""
	}

	e.logger.Info().
		Str(logging.TableCodeKey, s.Table.Code).
		Str(logging.PlayerIDKey, string(winner.ID)).
		Int("number", winning.Number).
		Msg("Bidding closed")

	if t.Opts.Bidding.Talon && len(g.Talon) > 0 {
		winner.Hand = append(winner.Hand, g.Talon...)
		t.SortHand(winner.Hand)
		g.Talon = nil
	}

	g.PlayerID = winner.ID
	if t.Opts.Bidding.Distribute > 0 {
		g.Status = StatusDistributing
		obligations := make(map[PlayerID]int)
		for _, p := range s.Players {
			if p.ID != winner.ID {
				obligations[p.ID] = t.Opts.Bidding.Distribute
			}
		}
		winner.Expected = Expected{
			Action:     string(ActionDistribute),
			Distribute: obligations,
		}
	} else {
		g.Status = StatusOngoing
		winner.Expected = e.moveExpected()
	}
}

// sell reverts a won bid mid-distribution and reopens bidding.
func (e *Engine) sell(s *TableState, userID UserID) error {
	t, g := e.template, s.Game
	player := s.PlayerByUser(userID)
	if player == nil {
		return ForbiddenError{"not a player at table"}
	}
	if g == nil || g.Status != StatusDistributing {
		return ConflictError{"not in distributing phase"}
	}
	if !t.HasBidding() || !t.Opts.Bidding.Sell {
		return BadRequestError{"cannot sell in this game"}
	}
	if g.Bid == nil || g.Bid.PlayerID != player.ID {
		return ForbiddenError{"not bid winner"}
	}
	if g.Opts.Sold {
		return ConflictError{"talon already sold"}
	}

	player.Hand = append([]card.Card(nil), g.Hands[player.ID]...)
	player.Expected = Expected{}
	g.Talon = append([]card.Card(nil), g.Talon0...)
	g.Bids = append(g.Bids, Bid{PlayerID: player.ID, Sell: true})
	g.Bid = nil
	g.Opts.Sold = true
	g.Status = StatusBidding

	next := seatAfter(s.Players, player)
	g.PlayerID = next.ID
	next.Expected = Expected{Action: string(ActionBid)}
	return nil
}

// redeal aborts the game before the acting player has bid, for a
// qualifying bad hand.
func (e *Engine) redeal(s *TableState, userID UserID) error {
	t, g := e.template, s.Game
	player := s.PlayerByUser(userID)
	if player == nil {
		return ForbiddenError{"not a player at table"}
	}
	if g == nil || g.Status != StatusBidding {
		return ConflictError{"not in bidding phase"}
	}
	ropts := t.Opts.Redeal
	if ropts == nil {
		return BadRequestError{"cannot redeal in this game"}
	}
	for _, bid := range g.Bids {
		if bid.PlayerID == player.ID {
			return ConflictError{"already bid"}
		}
	}
	held := 0
	for _, c := range ropts.Cards {
		for _, h := range player.Hand {
			if h == c {
				held++
				break
			}
		}
	}
	if held < ropts.Min {
		return BadRequestError{"hand does not qualify for redeal"}
	}

	g.Bids = append(g.Bids, Bid{PlayerID: player.ID, Redeal: true})
	g.Opts.Redeal = true
	g.Status = StatusEnded
	g.PlayerID = ""
	s.Table.Status = StatusEnded
	for _, p := range s.Players {
		p.Expected = Expected{}
		if !ropts.Reveal {
			p.Status = ""
		}
	}
	return nil
}

// distribute gives cards away: the bid winner's forced give-away after
// taking the talon, or the ranked hand exchange before a next game.
func (e *Engine) distribute(s *TableState, userID UserID, dist map[PlayerID][]card.Card) error {
	t, g := e.template, s.Game
	player := s.PlayerByUser(userID)
	if player == nil {
		return ForbiddenError{"not a player at table"}
	}
	if g == nil || g.Status != StatusDistributing {
		return ConflictError{"not in distributing phase"}
	}
	expected := player.Expected.Distribute
	if len(expected) == 0 {
		return ForbiddenError{"not expected to distribute"}
	}
	if len(dist) == 0 {
		return BadRequestError{"distribution missing data"}
	}

	if len(dist) != len(expected) {
		return BadRequestError{"distributing to unknown players"}
	}
	var given []card.Card
	for recipientID, cards := range dist {
		count, ok := expected[recipientID]
		if !ok {
			return BadRequestError{"distributing to unknown players"}
		}
		if len(cards) != count {
			return BadRequestError{"wrong amount being distributed"}
		}
		given = append(given, cards...)
	}
	if !card.Contains(player.Hand, given) {
		return BadRequestError{"distributing cards not in hand"}
	}
	if player.Expected.Best {
		remaining := card.Drop(player.Hand, given)
		for _, g0 := range given {
			for _, r := range remaining {
				if t.Compare(g0, r) == card.Less {
					return BadRequestError{"must give away strongest cards"}
				}
			}
		}
	}

	for recipientID, cards := range dist {
		recipient := s.PlayerByID(recipientID)
		recipient.Hand = append(recipient.Hand, cards...)
		t.SortHand(recipient.Hand)
	}
	player.Hand = card.Drop(player.Hand, given)
	player.Expected = Expected{}

	for _, p := range s.Players {
		if len(p.Expected.Distribute) > 0 {
			// Other obligated players still owe cards.
			return nil
		}
	}

	g.Status = StatusOngoing
	if mover := s.PlayerByID(g.PlayerID); mover != nil {
		mover.Expected = e.moveExpected()
	}
	return nil
}

// move plays cards or passes, resolves completed tricks and detects
// game end.
func (e *Engine) move(s *TableState, userID UserID, data *MoveData) error {
	t, g := e.template, s.Game
	player := s.PlayerByUser(userID)
	if player == nil {
		return ForbiddenError{"not a player at table"}
	}
	if err := validateMove(t, g, player, data); err != nil {
		return err
	}

	move := Move{PlayerID: player.ID}
	if !data.Pass {
		move.Cards = data.Cards
	}
	move.Pass = data.Pass
	move.Crawl = data.Crawl || crawlInTrick(g.Trick)
	if data.Trump {
		move.Trump = true
		g.Opts.Trump = data.Cards[0].Suit()
	}
	if data.Special != "" && data.Special != "trump" {
		move.Special = data.Special
	}

	player.Hand = card.Drop(player.Hand, move.Cards)
	player.Expected = Expected{}

	if !playerInTrick(g.Trick, player.ID) || len(player.Moves) == 0 {
		player.Moves = append(player.Moves, nil)
	}
	player.Moves[len(player.Moves)-1] = append(player.Moves[len(player.Moves)-1], move)

	if len(g.Trick) == 0 || len(g.Moves) == 0 {
		g.Moves = append(g.Moves, nil)
	}
	g.Moves[len(g.Moves)-1] = append(g.Moves[len(g.Moves)-1], move)
	g.Trick = append(g.Trick, move)

	left := playersWithCards(s.Players)
	win := t.Opts.Move.Win

	roundOver := false
	switch {
	case t.Opts.Trick && len(g.Trick) == len(s.Players):
		// All players have participated in the trick.
		roundOver = true
	case !data.Pass && win != nil && win.Level == "all" && hasAllOfAKind(t, g.Trick):
		roundOver = true
	case data.Pass && win != nil && win.Last && trickPassers(g.Trick) >= len(left)-1:
		roundOver = true
	case len(left) < 2:
		roundOver = true
	}
	gameOver := roundOver && len(left) < 2

	if roundOver {
		e.closeRound(s, gameOver)
	} else {
		next := nextPlayerInRound(g, s.Players, player)
		g.PlayerID = next.ID
		next.Expected = e.moveExpected()
	}

	if gameOver {
		e.finishGame(s)
	}
	return nil
}

// closeRound resolves the completed trick and rotates the lead.
func (e *Engine) closeRound(s *TableState, gameOver bool) {
	t, g := e.template, s.Game
	winner := roundWinner(t, g, s, g.Trick)

	if !gameOver && winner != nil {
		rest := "trick"
		if t.Opts.Lead != nil && t.Opts.Lead.Rest != "" {
			rest = t.Opts.Lead.Rest
		}
		if rest == "trick" {
			next := winner
			if len(next.Hand) == 0 {
				next = nextPlayerInGame(s.Players, next)
			}
			g.PlayerID = next.ID
			next.Expected = e.moveExpected()
		}
	}

	if t.Opts.Trick && winner != nil {
		winner.Tricks = append(winner.Tricks, g.Trick)
	}
	g.Discards = append(g.Discards, g.Trick)
	g.Tricks = append(g.Tricks, g.Trick)
	g.Trick = nil
}

// finishGame scores the ended game and updates table totals and
// completion.
func (e *Engine) finishGame(s *TableState) {
	t, g, table := e.template, s.Game, s.Table

	g.Status = StatusEnded
	g.PlayerID = ""
	if g.Bid != nil {
		table.Bids = append(table.Bids, *g.Bid)
	}
	if t.Opts.Points != nil {
		g.Score = gamePoints(t, table, g, s.Players)
		table.Scores = tablePoints(t, table, g.Score)
	} else if t.Opts.Ranking != nil {
		g.Score = gameRanking(t, g, s.Players)
		table.Scores = append(table.Scores, g.Score)
	}

	table.Status = StatusEnded
	if isTableComplete(t, table) {
		table.Status = StatusComplete
	}
	for _, p := range s.Players {
		p.Expected = Expected{}
	}

	e.logger.Info().
		Str(logging.TableCodeKey, table.Code).
		Int(logging.GameSeqKey, g.Sequence).
		Interface("score", g.Score).
		Msg("Game ended")
}

// retreat takes back cards from the shared lead stack, refilling the
// stack from the talon when it empties.
func (e *Engine) retreat(s *TableState, userID UserID) error {
	t, g := e.template, s.Game
	player := s.PlayerByUser(userID)
	if player == nil {
		return ForbiddenError{"not a player at table"}
	}
	if g == nil || g.Status != StatusOngoing {
		return ConflictError{"game not underway"}
	}
	if g.PlayerID != player.ID {
		return ForbiddenError{"not player's turn"}
	}
	if t.Opts.Move == nil || t.Opts.Move.Retreat == nil {
		return BadRequestError{"cannot retreat in this game"}
	}
	ropts := t.Opts.Move.Retreat
	if len(g.Lead) == 0 && len(g.Talon) == 0 {
		return BadRequestError{"nothing to retreat"}
	}

	// An exhausted lead stack refills before the take, so the talon
	// backs every retreat until both run out.
	e.refillLead(g)

	count := ropts.Cards
	if count > len(g.Lead) {
		count = len(g.Lead)
	}
	taken := append([]card.Card(nil), g.Lead[len(g.Lead)-count:]...)
	g.Lead = g.Lead[:len(g.Lead)-count]
	e.refillLead(g)

	player.Hand = append(player.Hand, taken...)
	t.SortHand(player.Hand)
	player.Expected = Expected{}

	move := Move{PlayerID: player.ID, Uptake: taken}
	if len(g.Moves) == 0 {
		g.Moves = append(g.Moves, nil)
	}
	g.Moves[len(g.Moves)-1] = append(g.Moves[len(g.Moves)-1], move)
	if len(player.Moves) == 0 {
		player.Moves = append(player.Moves, nil)
	}
	player.Moves[len(player.Moves)-1] = append(player.Moves[len(player.Moves)-1], move)

	if len(playersWithCards(s.Players)) < 2 {
		e.finishGame(s)
		return nil
	}
	next := nextPlayerInGame(s.Players, player)
	g.PlayerID = next.ID
	next.Expected = e.moveExpected()
	return nil
}

// refillLead tops up an empty lead stack from the talon.
func (e *Engine) refillLead(g *Game) {
	if len(g.Lead) > 0 || len(g.Talon) == 0 {
		return
	}
	refill := 0
	if t := e.template; t.Opts.Talon != nil {
		refill = t.Opts.Talon.Lead
	}
	if refill <= 0 || refill > len(g.Talon) {
		refill = len(g.Talon)
	}
	g.Lead = append(g.Lead, g.Talon[:refill]...)
	g.Talon = g.Talon[refill:]
}

func (e *Engine) moveExpected() Expected {
	return Expected{Action: string(ActionMove), Cards: e.template.MoveCount()}
}

func playerInTrick(trick []Move, id PlayerID) bool {
	for _, move := range trick {
		if move.PlayerID == id {
			return true
		}
	}
	return false
}

func trickPassers(trick []Move) int {
	passed := make(map[PlayerID]bool)
	for _, move := range trick {
		if move.Pass {
			passed[move.PlayerID] = true
		}
	}
	return len(passed)
}
