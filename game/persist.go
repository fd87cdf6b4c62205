package game

import "context"

// TableStore persists table state records. Storage mechanics are
// external to the engine; stores only see opaque JSON documents.
type TableStore interface {
	Create(ctx context.Context, state *TableState) error
	Load(ctx context.Context, code string) (*TableState, error)
	Save(ctx context.Context, state *TableState) error
	Remove(ctx context.Context, code string) error
}
