package game

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"deckhall.com/server/logging"
	"deckhall.com/server/template"
)

var managerLogger = logging.GetZeroLogger("game::manager", nil)

// Manager coordinates all state-changing operations on tables. One
// mutual-exclusion scope per table code serializes concurrent actions:
// at most one mutation is in flight per table, acquired for the full
// validate-mutate-persist cycle.
type Manager struct {
	templates map[string]*template.Template
	store     TableStore
	logger    *zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(templates map[string]*template.Template, store TableStore) *Manager {
	return &Manager{
		templates: templates,
		store:     store,
		logger:    managerLogger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// tableLock returns the exclusion scope for a table, created on first
// reference and kept forever (bounded by table count).
func (m *Manager) tableLock(code string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[code]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[code] = lock
	}
	return lock
}

// Template returns the rule descriptor a table plays by.
func (m *Manager) Template(state *TableState) (*template.Template, error) {
	t, ok := m.templates[state.Table.Template]
	if !ok {
		return nil, NotFoundError{"template not found"}
	}
	return t, nil
}

// CreateTable creates a table hosted by the given user, seating them
// as the first player.
func (m *Manager) CreateTable(ctx context.Context, userID UserID, name, templateName string) (*TableState, error) {
	if _, ok := m.templates[templateName]; !ok {
		return nil, NotFoundError{"template not found"}
	}
	now := time.Now().UTC()
	state := &TableState{
		Table: &Table{
			Code:     shortCode(),
			Name:     name,
			HostID:   userID,
			Template: templateName,
			Series:   1,
			Status:   StatusNew,
			Changed:  now,
		},
		Players: []*Player{newPlayer(userID, 0, now)},
		Viewers: []UserID{userID},
	}
	if err := m.store.Create(ctx, state); err != nil {
		return nil, err
	}
	m.logger.Info().
		Str(logging.TableCodeKey, state.Table.Code).
		Str("template", templateName).
		Msg("Table created")
	return state, nil
}

// JoinTable seats a user at a table between games.
func (m *Manager) JoinTable(ctx context.Context, userID UserID, code string) (*TableState, error) {
	lock := m.tableLock(code)
	lock.Lock()
	defer lock.Unlock()

	state, err := m.store.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	t, err := m.Template(state)
	if err != nil {
		return nil, err
	}
	if state.PlayerByUser(userID) != nil {
		return state, nil
	}
	if state.Table.Status != StatusNew && state.Table.Status != StatusEnded {
		return nil, ConflictError{"cannot join game in progress"}
	}
	if len(state.Players) >= t.Opts.Players.Max {
		return nil, ConflictError{"table full"}
	}

	now := time.Now().UTC()
	state.Players = append(state.Players, newPlayer(userID, len(state.Players), now))
	if !state.HasViewer(userID) {
		state.Viewers = append(state.Viewers, userID)
	}
	state.Table.Changed = now
	if err := m.store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// HandleAction serializes one state-changing action through the
// table's exclusion scope: load, validate, mutate a working copy,
// persist. A rejection discards the working copy; nothing partial is
// ever observable.
func (m *Manager) HandleAction(ctx context.Context, userID UserID, code string, action Action) (*TableState, error) {
	lock := m.tableLock(code)
	lock.Lock()
	defer lock.Unlock()

	state, err := m.store.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	if !state.HasViewer(userID) {
		return nil, ForbiddenError{"not a table participant"}
	}
	t, err := m.Template(state)
	if err != nil {
		return nil, err
	}

	working, err := state.Clone()
	if err != nil {
		return nil, UnexpectedError{err}
	}

	if err := m.apply(t, working, userID, action); err != nil {
		m.logger.Debug().
			Str(logging.TableCodeKey, code).
			Str(logging.ActionKey, string(action.Type)).
			Str("kind", string(Kind(err))).
			Msg(err.Error())
		return nil, err
	}

	now := time.Now().UTC()
	stampChanges(state, working, now)
	working.Log = append(working.Log, LogEntry{
		ID:     uuid.New().String(),
		Action: action.Type,
		UserID: userID,
		Data:   action,
		At:     now,
	})
	if err := m.store.Save(ctx, working); err != nil {
		return nil, UnexpectedError{errors.Wrap(err, "persisting accepted action")}
	}

	snapshot, err := working.Clone()
	if err != nil {
		return nil, UnexpectedError{err}
	}
	return Redact(t, snapshot, userID), nil
}

// apply runs the engine, converting panics during mutation into an
// Unexpected rejection so the working copy is discarded whole.
func (m *Manager) apply(t *template.Template, working *TableState, userID UserID, action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().
				Str(logging.TableCodeKey, working.Table.Code).
				Str(logging.ActionKey, string(action.Type)).
				Interface("panic", r).
				Msg("Recovered panic during action")
			err = UnexpectedError{errors.Errorf("panic: %v", r)}
		}
	}()
	return NewEngine(t).Apply(working, userID, action)
}

// PollResult carries records changed since a poll timestamp.
type PollResult struct {
	Table   *Table    `json:"table,omitempty"`
	Game    *Game     `json:"game,omitempty"`
	Players []*Player `json:"players,omitempty"`
}

// Poll returns records changed since the given time, redacted for the
// viewer. Reading needs no exclusion scope except to lazily register a
// new viewer, which is a short, separately locked mutation.
func (m *Manager) Poll(ctx context.Context, userID UserID, code string, since time.Time) (*PollResult, error) {
	state, err := m.store.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	if !state.HasViewer(userID) {
		if state, err = m.registerViewer(ctx, userID, code); err != nil {
			return nil, err
		}
	}
	t, err := m.Template(state)
	if err != nil {
		return nil, err
	}

	snapshot, err := state.Clone()
	if err != nil {
		return nil, UnexpectedError{err}
	}
	Redact(t, snapshot, userID)

	result := &PollResult{}
	if snapshot.Table.Changed.After(since) {
		result.Table = snapshot.Table
	}
	if snapshot.Game != nil && snapshot.Game.Changed.After(since) {
		result.Game = snapshot.Game
	}
	for _, p := range snapshot.Players {
		if p.Changed.After(since) {
			result.Players = append(result.Players, p)
		}
	}
	return result, nil
}

func (m *Manager) registerViewer(ctx context.Context, userID UserID, code string) (*TableState, error) {
	lock := m.tableLock(code)
	lock.Lock()
	defer lock.Unlock()

	state, err := m.store.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	if !state.HasViewer(userID) {
		state.Viewers = append(state.Viewers, userID)
		if err := m.store.Save(ctx, state); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// stampChanges marks records whose serialized form differs from the
// pre-action snapshot, so polls can return only what changed.
func stampChanges(before, after *TableState, now time.Time) {
	if !sameJSON(before.Table, after.Table) {
		after.Table.Changed = now
	}
	if after.Game != nil && (before.Game == nil || !sameJSON(before.Game, after.Game)) {
		after.Game.Changed = now
	}
	for _, p := range after.Players {
		if prev := before.PlayerByID(p.ID); prev == nil || !sameJSON(prev, p) {
			p.Changed = now
		}
	}
}

func sameJSON(a, b interface{}) bool {
	da, erra := json.Marshal(a)
	db, errb := json.Marshal(b)
	return erra == nil && errb == nil && string(da) == string(db)
}

func newPlayer(userID UserID, sequence int, now time.Time) *Player {
	return &Player{
		ID:       PlayerID(shortCode()),
		UserID:   userID,
		Sequence: sequence,
		Changed:  now,
	}
}

func shortCode() string {
	return strings.SplitN(uuid.New().String(), "-", 2)[0]
}
