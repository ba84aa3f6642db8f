package store

import "context"

// Store is the document store used by the pipeline.
type Store interface {
	UpsertAll(ctx context.Context, docs []Document) error
	LoadAll(ctx context.Context) ([]Document, error)
	Prune(ctx context.Context, keep []string) (int, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Opener acquires a Store. Each pipeline phase calls it once and closes the result.
type Opener func() (Store, error)

// SQLiteOpener returns an Opener for the SQLite store at path.
func SQLiteOpener(path string) Opener {
	return func() (Store, error) {
		s, err := Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

var _ Store = (*SQLiteStore)(nil)
