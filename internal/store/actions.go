package store

import (
	"hangout-chat/go-client/pkg/models"
)

// Action is the closed set of state transitions. The reducer matches it
// exhaustively; there is no fall-through and no default mutation.
type Action interface{ isAction() }

type SearchTextChanged struct{ Text string }

type DirectorySearchStarted struct{}

type DirectorySearchSucceeded struct{ Users []models.User }

type DirectorySearchFailed struct{ Err error }

// RelationshipDirectorySucceeded replaces the directory's relationship search
// result set. Distinct from the cached Relationships collection.
type RelationshipDirectorySucceeded struct{ Relationships []models.Relationship }

// RelationshipsLoaded replaces the collection wholesale. Used once per
// session, from the durable record. Input is deduplicated by username.
type RelationshipsLoaded struct{ Relationships []models.Relationship }

// FilterRelationships narrows the visible view to usernames containing the
// current search text (case-sensitive substring). The underlying collection
// is untouched; only State.Filtered changes.
type FilterRelationships struct{}

// NewRelationshipSelected upserts a relationship chosen from directory search
// and makes it active.
type NewRelationshipSelected struct{ Relationship models.Relationship }

// RelationshipSelected activates an existing entry by username. A missing
// username clears the selection.
type RelationshipSelected struct{ Username string }

// RelationshipStateReconciled upserts the reconciled value and makes it
// active. Services both the acknowledgement and the peer-event flow.
type RelationshipStateReconciled struct{ Relationship models.Relationship }

type PendingMessageTextChanged struct{ Text string }

// CommandStarted marks an outbound command in flight. Loading only; the
// relationship state changes when the acknowledgement arrives.
type CommandStarted struct{ Command string }

// CommandFailed surfaces a failed channel send.
type CommandFailed struct{ Err error }

// FaultReported surfaces a protocol fault from the inbound path. It also
// clears Loading: a fault can preempt the acknowledgement a command is
// waiting on, and the spinner must not outlive the command.
type FaultReported struct{ Err error }

func (SearchTextChanged) isAction()              {}
func (DirectorySearchStarted) isAction()         {}
func (DirectorySearchSucceeded) isAction()       {}
func (DirectorySearchFailed) isAction()          {}
func (RelationshipDirectorySucceeded) isAction() {}
func (RelationshipsLoaded) isAction()            {}
func (FilterRelationships) isAction()            {}
func (NewRelationshipSelected) isAction()        {}
func (RelationshipSelected) isAction()           {}
func (RelationshipStateReconciled) isAction()    {}
func (PendingMessageTextChanged) isAction()      {}
func (CommandStarted) isAction()                 {}
func (CommandFailed) isAction()                  {}
func (FaultReported) isAction()                  {}

// persistAfter reports whether the mirror must be rewritten once the action
// has been reduced. Filtering narrows the in-memory view only and must never
// reach the durable record; loading came from the record in the first place.
func persistAfter(action Action) bool {
	switch action.(type) {
	case NewRelationshipSelected, RelationshipStateReconciled:
		return true
	}
	return false
}
