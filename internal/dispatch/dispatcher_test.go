package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"hangout-chat/go-client/internal/channel"
	"hangout-chat/go-client/internal/platform/ratelimiter"
	"hangout-chat/go-client/internal/session"
	"hangout-chat/go-client/internal/store"
	"hangout-chat/go-client/pkg/models"
)

type failingChannel struct {
	err error
}

func (f *failingChannel) Send(context.Context, []byte) error { return f.err }
func (f *failingChannel) Attach(channel.Handlers)            {}
func (f *failingChannel) Close() error                       { return nil }

func fixedNow() time.Time {
	return time.UnixMilli(1700000000000)
}

func newDispatcher(t *testing.T, ch channel.Channel, mirror store.Mirror) (*Dispatcher, *store.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(mirror, logger)
	d := New(Options{
		Store:    st,
		Channel:  ch,
		Identity: session.Identity{Username: "alice", Email: "alice@x.com"},
		Logger:   logger,
		Now:      fixedNow,
	})
	return d, st
}

func decodeFrame(t *testing.T, frame []byte) map[string]any {
	t.Helper()
	var decoded map[string]any
	if err := json.Unmarshal(frame, &decoded); err != nil {
		t.Fatalf("sent frame is not json: %v", err)
	}
	return decoded
}

func TestInviteSendsEnvelopeAndLoadsOnly(t *testing.T) {
	ch := channel.NewLoopback()
	d, st := newDispatcher(t, ch, nil)

	d.SelectFromDirectory(models.User{Username: "bob", Email: "bob@x.com"})
	d.SetPendingMessageText("come hang out")
	if err := d.Invite(context.Background()); err != nil {
		t.Fatalf("invite failed: %v", err)
	}

	sent := ch.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected one frame, got %d", len(sent))
	}
	frame := decodeFrame(t, sent[0])
	if frame["type"] != "INVITE" || frame["username"] != "bob" || frame["email"] != "bob@x.com" {
		t.Fatalf("unexpected envelope: %v", frame)
	}
	msg, ok := frame["message"].(map[string]any)
	if !ok || msg["text"] != "come hang out" {
		t.Fatalf("invite must carry the pending message text: %v", frame["message"])
	}
	if int64(msg["timestamp"].(float64)) != fixedNow().UnixMilli() {
		t.Fatalf("invite timestamp must be now in ms, got %v", msg["timestamp"])
	}

	state := st.Snapshot()
	if !state.Loading {
		t.Fatal("invite must set loading")
	}
	bob, _ := state.Relationship("bob")
	if bob.State != models.StateInviteIntent || bob.Phase != models.PhasePendingIntent {
		t.Fatal("invite must not optimistically transition relationship state")
	}
}

func TestAcceptWithoutSelectionFails(t *testing.T) {
	ch := channel.NewLoopback()
	d, st := newDispatcher(t, ch, nil)

	err := d.Accept(context.Background())
	if !errors.Is(err, ErrNoActiveRelationship) {
		t.Fatalf("expected no-active error, got %v", err)
	}
	if len(ch.Sent()) != 0 {
		t.Fatal("nothing may be sent without a selection")
	}
	if st.Snapshot().Err == nil {
		t.Fatal("the failure must surface in state")
	}
}

func TestSendFailureIsVisible(t *testing.T) {
	sendErr := errors.New("broken pipe")
	d, st := newDispatcher(t, &failingChannel{err: sendErr}, nil)

	d.SelectFromDirectory(models.User{Username: "bob", Email: "bob@x.com"})
	if err := d.Block(context.Background()); !errors.Is(err, sendErr) {
		t.Fatalf("expected the send error, got %v", err)
	}
	state := st.Snapshot()
	if !errors.Is(state.Err, sendErr) {
		t.Fatal("a failed send must be distinguishable in store state")
	}
	if state.Loading {
		t.Fatal("loading must clear on send failure")
	}
}

func TestEachCommandUsesItsKind(t *testing.T) {
	ch := channel.NewLoopback()
	d, _ := newDispatcher(t, ch, nil)
	d.SelectFromDirectory(models.User{Username: "bob", Email: "bob@x.com"})

	ctx := context.Background()
	calls := []struct {
		run  func(context.Context) error
		kind string
	}{
		{d.Accept, "ACCEPT"},
		{d.Decline, "DECLINE"},
		{d.Block, "BLOCK"},
		{d.Unblock, "UNBLOCK"},
		{d.SendMessage, "MESSAGE"},
	}
	for _, call := range calls {
		if err := call.run(ctx); err != nil {
			t.Fatalf("%s failed: %v", call.kind, err)
		}
	}
	sent := ch.Sent()
	if len(sent) != len(calls) {
		t.Fatalf("expected %d frames, got %d", len(calls), len(sent))
	}
	for i, call := range calls {
		if frame := decodeFrame(t, sent[i]); frame["type"] != call.kind {
			t.Fatalf("frame %d: expected type %s, got %v", i, call.kind, frame["type"])
		}
	}
}

type countingMirror struct {
	mu     sync.Mutex
	writes int
}

func (m *countingMirror) Persist([]models.Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	return nil
}

func TestSelectFromDirectoryPersistsSynchronously(t *testing.T) {
	mirror := &countingMirror{}
	d, st := newDispatcher(t, channel.NewLoopback(), mirror)

	rel := d.SelectFromDirectory(models.User{Username: "bob", Email: "bob@x.com"})
	if rel.State != models.StateInviteIntent || rel.Phase != models.PhasePendingIntent {
		t.Fatalf("directory selection must carry the invite intent, got %+v", rel)
	}
	if mirror.writes != 1 {
		t.Fatalf("selection must persist before any network round trip, writes=%d", mirror.writes)
	}
	active, ok := st.Snapshot().ActiveRelationship()
	if !ok || active.Username != "bob" {
		t.Fatal("selection must activate the new relationship")
	}
}

func TestSelectFromDirectoryTwiceKeepsOneEntry(t *testing.T) {
	d, st := newDispatcher(t, channel.NewLoopback(), nil)
	user := models.User{Username: "bob", Email: "bob@x.com"}
	d.SelectFromDirectory(user)
	d.SelectFromDirectory(user)
	if got := len(st.Snapshot().Relationships); got != 1 {
		t.Fatalf("re-selecting the same user must not duplicate, got %d", got)
	}
}

func TestRateLimitSurfaces(t *testing.T) {
	ch := channel.NewLoopback()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(nil, logger)
	d := New(Options{
		Store:    st,
		Channel:  ch,
		Identity: session.Identity{Username: "alice", Email: "alice@x.com"},
		Limiter:  ratelimiter.New(1, 1, time.Minute),
		Logger:   logger,
		Now:      fixedNow,
	})
	d.SelectFromDirectory(models.User{Username: "bob", Email: "bob@x.com"})

	if err := d.Accept(context.Background()); err != nil {
		t.Fatalf("first command must pass: %v", err)
	}
	if err := d.Accept(context.Background()); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limit, got %v", err)
	}
	if len(ch.Sent()) != 1 {
		t.Fatal("the limited command must not reach the channel")
	}
}

func TestCommandLogsCarrySessionOwner(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ch := channel.NewLoopback()
	st := store.New(nil, logger)
	d := New(Options{
		Store:    st,
		Channel:  ch,
		Identity: session.Identity{Username: "alice", Email: "alice@x.com"},
		Logger:   logger,
		Now:      fixedNow,
	})
	d.SelectFromDirectory(models.User{Username: "bob", Email: "bob@x.com"})

	if err := d.Accept(context.Background()); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	var attributed bool
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var record map[string]any
		if err := json.Unmarshal(line, &record); err != nil {
			t.Fatalf("log output is not json: %v", err)
		}
		if record["msg"] == "command sent" && record["owner"] == "alice" {
			attributed = true
		}
	}
	if !attributed {
		t.Fatal("command logs must carry the session owner")
	}
}
