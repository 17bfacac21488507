// Package store holds the relationship collection and all derived view state
// behind a single pure reducer. Every mutation in the client flows through
// Dispatch; persistence of the collection is a post-reduce effect, never a
// second independent writer.
package store

import "hangout-chat/go-client/pkg/models"

// State is the immutable value the reducer folds over. Active names the
// selected relationship by username; an empty Active means nothing is
// selected, which is a recoverable condition, not an error.
type State struct {
	Relationships []models.Relationship
	// Filtered is the search-narrowed view of Relationships. It is derived
	// state only: the full collection stays authoritative (and is what the
	// mirror persists), so entries hidden by a search are never lost. A nil
	// Filtered means no filter is in effect.
	Filtered               []models.Relationship
	Active                 string
	SearchText             string
	DirectoryMatches       []models.User
	DirectoryRelationships []models.Relationship
	PendingMessageText     string
	Loading                bool
	Err                    error
}

// VisibleRelationships is what a list view should render: the filtered view
// while a filter is in effect, the full collection otherwise.
func (s State) VisibleRelationships() []models.Relationship {
	if s.Filtered != nil {
		return s.Filtered
	}
	return s.Relationships
}

// ActiveRelationship resolves Active against the collection.
func (s State) ActiveRelationship() (models.Relationship, bool) {
	if s.Active == "" {
		return models.Relationship{}, false
	}
	return s.Relationship(s.Active)
}

// Relationship looks up an entry by username.
func (s State) Relationship(username string) (models.Relationship, bool) {
	for _, rel := range s.Relationships {
		if rel.Username == username {
			return rel, true
		}
	}
	return models.Relationship{}, false
}

// upsert replaces the entry matching rel.Username or appends when absent.
// At most one entry per username survives any sequence of upserts.
func upsert(rels []models.Relationship, rel models.Relationship) []models.Relationship {
	out := models.CloneRelationships(rels)
	for i := range out {
		if out[i].Username == rel.Username {
			out[i] = rel
			return out
		}
	}
	return append(out, rel)
}

// dedupeByUsername keeps the last entry per username, preserving first-seen
// order. Used when loading a collection wholesale from the durable record.
func dedupeByUsername(rels []models.Relationship) []models.Relationship {
	out := make([]models.Relationship, 0, len(rels))
	index := make(map[string]int, len(rels))
	for _, rel := range rels {
		if at, seen := index[rel.Username]; seen {
			out[at] = rel
			continue
		}
		index[rel.Username] = len(out)
		out = append(out, rel)
	}
	return models.CloneRelationships(out)
}
