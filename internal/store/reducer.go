package store

import (
	"strings"

	"hangout-chat/go-client/pkg/models"
)

// Reduce folds one action into the state. It is pure: no I/O, no panics, no
// error returns. All fallibility is resolved before an action is dispatched.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case SearchTextChanged:
		state.SearchText = a.Text
		if a.Text == "" {
			state.Filtered = nil
		}
		return state

	case DirectorySearchStarted:
		state.Loading = true
		state.Err = nil
		return state

	case DirectorySearchSucceeded:
		state.Loading = false
		state.Err = nil
		state.DirectoryMatches = append([]models.User(nil), a.Users...)
		return state

	case DirectorySearchFailed:
		state.Loading = false
		state.Err = a.Err
		return state

	case RelationshipDirectorySucceeded:
		state.Loading = false
		state.Err = nil
		state.DirectoryRelationships = models.CloneRelationships(a.Relationships)
		return state

	case RelationshipsLoaded:
		state.Relationships = dedupeByUsername(a.Relationships)
		return refreshFilter(state)

	case FilterRelationships:
		if state.SearchText == "" {
			state.Filtered = nil
			return state
		}
		state.Filtered = narrowByUsername(state.Relationships, state.SearchText)
		return state

	case NewRelationshipSelected:
		state.Relationships = upsert(state.Relationships, a.Relationship)
		state.Active = a.Relationship.Username
		return refreshFilter(state)

	case RelationshipSelected:
		if _, ok := state.Relationship(a.Username); ok {
			state.Active = a.Username
		} else {
			state.Active = ""
		}
		return state

	case RelationshipStateReconciled:
		state.Relationships = upsert(state.Relationships, a.Relationship)
		state.Active = a.Relationship.Username
		state.Loading = false
		state.Err = nil
		return refreshFilter(state)

	case PendingMessageTextChanged:
		state.PendingMessageText = a.Text
		return state

	case CommandStarted:
		state.Loading = true
		state.Err = nil
		return state

	case CommandFailed:
		state.Loading = false
		state.Err = a.Err
		return state

	case FaultReported:
		state.Loading = false
		state.Err = a.Err
		return state
	}
	return state
}

// narrowByUsername is the filter predicate: case-sensitive substring match
// on the username.
func narrowByUsername(rels []models.Relationship, text string) []models.Relationship {
	narrowed := make([]models.Relationship, 0, len(rels))
	for _, rel := range rels {
		if strings.Contains(rel.Username, text) {
			narrowed = append(narrowed, rel)
		}
	}
	return models.CloneRelationships(narrowed)
}

// refreshFilter recomputes the filtered view after the underlying collection
// changed, so a reconciliation arriving mid-search stays visible.
func refreshFilter(state State) State {
	if state.Filtered == nil || state.SearchText == "" {
		return state
	}
	state.Filtered = narrowByUsername(state.Relationships, state.SearchText)
	return state
}
