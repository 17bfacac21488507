package store

import (
	"errors"
	"testing"

	"hangout-chat/go-client/pkg/models"
)

func bob() models.Relationship {
	return models.Relationship{
		Username: "bob",
		Email:    "bob@x.com",
		State:    models.StateInviteIntent,
		Phase:    models.PhasePendingIntent,
	}
}

func TestNewRelationshipSelectedUpsertsOnce(t *testing.T) {
	state := Reduce(State{}, NewRelationshipSelected{Relationship: bob()})
	state = Reduce(state, NewRelationshipSelected{Relationship: bob()})
	state = Reduce(state, NewRelationshipSelected{Relationship: bob()})

	if len(state.Relationships) != 1 {
		t.Fatalf("expected one entry per username, got %d", len(state.Relationships))
	}
	if state.Active != "bob" {
		t.Fatalf("expected bob active, got %q", state.Active)
	}
}

func TestUniquenessAcrossSelectionAndReconciliation(t *testing.T) {
	state := Reduce(State{}, NewRelationshipSelected{Relationship: bob()})
	confirmed := bob().WithState(models.StateInviter)
	state = Reduce(state, RelationshipStateReconciled{Relationship: confirmed})
	state = Reduce(state, RelationshipStateReconciled{Relationship: confirmed.WithState(models.StateAccepter)})

	if len(state.Relationships) != 1 {
		t.Fatalf("expected one bob entry, got %d", len(state.Relationships))
	}
	if state.Relationships[0].State != models.StateAccepter {
		t.Fatalf("expected ACCEPTER, got %s", state.Relationships[0].State)
	}
}

func TestReconciliationIsIdempotent(t *testing.T) {
	state := Reduce(State{}, NewRelationshipSelected{Relationship: bob()})
	confirmed := bob().WithState(models.StateInviter)

	once := Reduce(state, RelationshipStateReconciled{Relationship: confirmed})
	twice := Reduce(once, RelationshipStateReconciled{Relationship: confirmed})

	got, ok := twice.ActiveRelationship()
	if !ok {
		t.Fatal("expected an active relationship")
	}
	want, _ := once.ActiveRelationship()
	if got.State != want.State || got.Phase != want.Phase || len(twice.Relationships) != len(once.Relationships) {
		t.Fatal("applying the same reconciliation twice must match applying it once")
	}
}

func TestRelationshipsLoadedDeduplicates(t *testing.T) {
	state := Reduce(State{}, RelationshipsLoaded{Relationships: []models.Relationship{
		{Username: "alice", State: models.StateAccepter},
		{Username: "bob", State: models.StateInviter},
		{Username: "alice", State: models.StateBlocker},
	}})
	if len(state.Relationships) != 2 {
		t.Fatalf("expected 2 deduplicated entries, got %d", len(state.Relationships))
	}
	got, _ := state.Relationship("alice")
	if got.State != models.StateBlocker {
		t.Fatalf("last alice entry must win, got %s", got.State)
	}
}

func TestFilterRelationships(t *testing.T) {
	state := State{
		Relationships: []models.Relationship{
			{Username: "alice"},
			{Username: "bob"},
		},
		SearchText: "ali",
	}
	state = Reduce(state, FilterRelationships{})
	if len(state.Filtered) != 1 || state.Filtered[0].Username != "alice" {
		t.Fatalf("expected only alice visible, got %+v", state.Filtered)
	}
	if len(state.Relationships) != 2 {
		t.Fatalf("filtering must not touch the collection, got %+v", state.Relationships)
	}
	if visible := state.VisibleRelationships(); len(visible) != 1 || visible[0].Username != "alice" {
		t.Fatalf("visible view must be the filtered one, got %+v", visible)
	}
}

func TestFilterIsCaseSensitive(t *testing.T) {
	state := State{
		Relationships: []models.Relationship{{Username: "Alice"}},
		SearchText:    "ali",
	}
	state = Reduce(state, FilterRelationships{})
	if len(state.Filtered) != 0 {
		t.Fatal("substring match is case-sensitive")
	}
	if len(state.Relationships) != 1 {
		t.Fatal("filtering must not touch the collection")
	}
}

func TestClearedSearchDropsFilter(t *testing.T) {
	state := State{
		Relationships: []models.Relationship{{Username: "alice"}, {Username: "bob"}},
		SearchText:    "ali",
	}
	state = Reduce(state, FilterRelationships{})
	state = Reduce(state, SearchTextChanged{Text: ""})
	if state.Filtered != nil {
		t.Fatalf("clearing the search must drop the filter, got %+v", state.Filtered)
	}
	if len(state.VisibleRelationships()) != 2 {
		t.Fatal("the full collection must be visible again")
	}
}

func TestReconciliationRefreshesFilteredView(t *testing.T) {
	state := State{
		Relationships: []models.Relationship{{Username: "alice"}, {Username: "bob"}},
		SearchText:    "ali",
	}
	state = Reduce(state, FilterRelationships{})
	state = Reduce(state, RelationshipStateReconciled{
		Relationship: models.Relationship{Username: "alice", State: models.StateAccepter, Phase: models.PhaseConfirmed},
	})
	if len(state.Filtered) != 1 || state.Filtered[0].State != models.StateAccepter {
		t.Fatalf("reconciliation must show through the filtered view, got %+v", state.Filtered)
	}
	if len(state.Relationships) != 2 {
		t.Fatalf("reconciliation under a filter must keep the full collection, got %+v", state.Relationships)
	}
}

func TestRelationshipSelectedMissingClearsActive(t *testing.T) {
	state := Reduce(State{}, NewRelationshipSelected{Relationship: bob()})
	state = Reduce(state, RelationshipSelected{Username: "nobody"})
	if state.Active != "" {
		t.Fatalf("missing username must clear selection, got %q", state.Active)
	}
	if _, ok := state.ActiveRelationship(); ok {
		t.Fatal("no relationship should resolve as active")
	}
}

func TestCommandStartedIsLoadingOnly(t *testing.T) {
	state := Reduce(State{}, NewRelationshipSelected{Relationship: bob()})
	before, _ := state.ActiveRelationship()
	state = Reduce(state, CommandStarted{Command: "INVITE"})
	if !state.Loading {
		t.Fatal("command start must set loading")
	}
	after, _ := state.ActiveRelationship()
	if after.State != before.State || after.Phase != before.Phase {
		t.Fatal("command start must not transition relationship state")
	}
}

func TestCommandFailedSurfacesError(t *testing.T) {
	sendErr := errors.New("channel closed")
	state := Reduce(State{Loading: true}, CommandFailed{Err: sendErr})
	if state.Loading {
		t.Fatal("loading must clear on failure")
	}
	if !errors.Is(state.Err, sendErr) {
		t.Fatalf("expected send error surfaced, got %v", state.Err)
	}
}

func TestFaultClearsLoading(t *testing.T) {
	state := Reduce(State{}, CommandStarted{Command: "INVITE"})
	fault := errors.New("unknown inbound kind")
	state = Reduce(state, FaultReported{Err: fault})
	if state.Loading {
		t.Fatal("a fault preempting the acknowledgement must clear loading")
	}
	if !errors.Is(state.Err, fault) {
		t.Fatalf("fault must surface, got %v", state.Err)
	}
}

func TestDirectorySearchLifecycle(t *testing.T) {
	state := Reduce(State{}, DirectorySearchStarted{})
	if !state.Loading {
		t.Fatal("search start must set loading")
	}
	users := []models.User{{Username: "bob", Email: "bob@x.com"}}
	state = Reduce(state, DirectorySearchSucceeded{Users: users})
	if state.Loading || state.Err != nil {
		t.Fatal("search success must clear loading and error")
	}
	if len(state.DirectoryMatches) != 1 || state.DirectoryMatches[0].Username != "bob" {
		t.Fatalf("directory matches not applied: %+v", state.DirectoryMatches)
	}
	if len(state.Relationships) != 0 {
		t.Fatal("directory results must not touch the cached collection")
	}

	lookupErr := errors.New("lookup failed")
	state = Reduce(state, DirectorySearchFailed{Err: lookupErr})
	if state.Loading || !errors.Is(state.Err, lookupErr) {
		t.Fatal("search failure must clear loading and surface the error")
	}
}

func TestRelationshipDirectoryResultsStaySeparate(t *testing.T) {
	cached := Reduce(State{}, NewRelationshipSelected{Relationship: bob()})
	state := Reduce(cached, RelationshipDirectorySucceeded{Relationships: []models.Relationship{
		{Username: "carol", State: models.StateAccepter},
	}})
	if len(state.DirectoryRelationships) != 1 || state.DirectoryRelationships[0].Username != "carol" {
		t.Fatalf("directory relationship set not applied: %+v", state.DirectoryRelationships)
	}
	if len(state.Relationships) != 1 || state.Relationships[0].Username != "bob" {
		t.Fatal("cached collection must be unchanged by directory results")
	}
}

func TestPendingMessageAndSearchText(t *testing.T) {
	state := Reduce(State{}, PendingMessageTextChanged{Text: "join me"})
	state = Reduce(state, SearchTextChanged{Text: "bo"})
	if state.PendingMessageText != "join me" || state.SearchText != "bo" {
		t.Fatalf("text fields not applied: %+v", state)
	}
}

func TestReducerNeverMutatesInput(t *testing.T) {
	original := State{
		Relationships: []models.Relationship{{Username: "bob", State: models.StateInviter, Message: &models.ChatMessage{Text: "hi"}}},
	}
	_ = Reduce(original, RelationshipStateReconciled{
		Relationship: models.Relationship{Username: "bob", State: models.StateAccepter},
	})
	if original.Relationships[0].State != models.StateInviter {
		t.Fatal("reducer must not mutate the input collection")
	}
}
