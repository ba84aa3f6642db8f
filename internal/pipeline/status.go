package pipeline

import (
	"context"
	"os"
)

// Status describes the stored state of a vault.
type Status struct {
	Vault     string
	Database  string
	Exists    bool // false until the first scan creates the database
	Documents int
	Empty     int // documents with an empty signature
	Groups    int // distinct non-empty groups
}

// Status reports what the store currently holds. It never creates the
// database and does not take the run lock.
func (r *Runner) Status(ctx context.Context) (*Status, error) {
	st := &Status{
		Vault:    r.vault,
		Database: r.config.Storage.DatabasePath(r.vault),
	}
	if _, err := os.Stat(st.Database); err != nil {
		return st, nil
	}
	st.Exists = true

	docs, err := r.loadDocuments(ctx, r.logger)
	if err != nil {
		return st, err
	}
	groups := make(map[string]struct{})
	for _, d := range docs {
		if len(d.Signature) == 0 {
			st.Empty++
		}
		if d.Group != "" {
			groups[d.Group] = struct{}{}
		}
	}
	st.Documents = len(docs)
	st.Groups = len(groups)
	return st, nil
}
