package directory

import (
	"context"
	"log/slog"

	"hangout-chat/go-client/internal/platform/metrics"
	"hangout-chat/go-client/internal/store"
	"hangout-chat/go-client/pkg/models"
)

// Searcher is the remote half of the resolver chain.
type Searcher interface {
	SearchRelationships(ctx context.Context, query string) ([]models.Relationship, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
}

// Resolver runs the cached → remote-relationship → remote-user fallback
// chain and folds every outcome into the store.
type Resolver struct {
	store    *store.Store
	searcher Searcher
	logger   *slog.Logger
}

func NewResolver(st *store.Store, searcher Searcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: st, searcher: searcher, logger: logger}
}

// StartSearch resolves the search text. The cached collection is narrowed
// first when non-empty; the remote relationship lookup always runs; zero
// results or a failed relationship lookup falls back to the user lookup.
// Failures land in store state for the user to retry.
func (r *Resolver) StartSearch(ctx context.Context, text string) {
	r.store.Dispatch(store.SearchTextChanged{Text: text})
	if len(r.store.Snapshot().Relationships) > 0 {
		r.store.Dispatch(store.FilterRelationships{})
	}
	r.store.Dispatch(store.DirectorySearchStarted{})

	rels, err := r.searcher.SearchRelationships(ctx, text)
	if err != nil {
		metrics.DirectoryLookups.WithLabelValues("relationship", "error").Inc()
		r.logger.Warn("relationship lookup failed, falling back to user lookup", "error", err)
		r.searchUsers(ctx, text)
		return
	}
	if len(rels) == 0 {
		metrics.DirectoryLookups.WithLabelValues("relationship", "empty").Inc()
		r.searchUsers(ctx, text)
		return
	}

	metrics.DirectoryLookups.WithLabelValues("relationship", "hit").Inc()
	r.store.Dispatch(store.RelationshipDirectorySucceeded{Relationships: rels})
}

func (r *Resolver) searchUsers(ctx context.Context, text string) {
	users, err := r.searcher.SearchUsers(ctx, text)
	if err != nil {
		metrics.DirectoryLookups.WithLabelValues("user", "error").Inc()
		r.logger.Warn("user lookup failed", "error", err)
		r.store.Dispatch(store.DirectorySearchFailed{Err: err})
		return
	}
	metrics.DirectoryLookups.WithLabelValues("user", "hit").Inc()
	r.store.Dispatch(store.DirectorySearchSucceeded{Users: users})
}
