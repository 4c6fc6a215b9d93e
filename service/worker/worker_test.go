package worker

import (
	"context"
	"testing"
	"time"

	"RoomRelay/module/chat/message"
	"RoomRelay/module/chat/model"
	"RoomRelay/tools/errs"
)

type sliceQueue struct {
	items  []*model.OutboundMessage
	cancel context.CancelFunc
}

func (q *sliceQueue) Pop(ctx context.Context) (*model.OutboundMessage, error) {
	if len(q.items) == 0 {
		if q.cancel != nil {
			q.cancel()
		}
		return nil, context.Canceled
	}
	m := q.items[0]
	q.items = q.items[1:]
	return m, nil
}

type scriptBus struct {
	counts    []int64 // publish replies, last one repeats
	published []*model.Envelope
}

func (b *scriptBus) Publish(ctx context.Context, roomID string, env *model.Envelope) (int64, error) {
	i := len(b.published)
	b.published = append(b.published, env)
	if i >= len(b.counts) {
		i = len(b.counts) - 1
	}
	return b.counts[i], nil
}

func newTestWorker(store message.Store, bus Bus) (*Worker, *[]time.Duration) {
	w := New(nil, store, bus, Options{PublishRetries: 3, PublishBackoff: 100 * time.Millisecond})
	var sleeps []time.Duration
	w.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return w, &sleeps
}

func entry(msgID string) *model.OutboundMessage {
	return &model.OutboundMessage{
		MsgID:          msgID,
		RoomID:         "r1",
		ClientSenderID: "u1",
		Content:        "hello",
		SentAt:         time.Now().UTC(),
	}
}

func TestProcessPersistsAndPublishes(t *testing.T) {
	store := message.NewMemStore()
	bus := &scriptBus{counts: []int64{2}}
	w, _ := newTestWorker(store, bus)

	if err := w.process(context.Background(), entry("m1")); err != nil {
		t.Fatal(err)
	}

	saved, err := store.FindMessage(context.Background(), "m1")
	if err != nil {
		t.Fatalf("message not persisted: %v", err)
	}
	if saved.RoomID != "r1" || saved.SenderID != "u1" || saved.Body != "hello" {
		t.Fatalf("persisted = %+v", saved)
	}
	if saved.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not set")
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d envelopes, want 1", len(bus.published))
	}
	env := bus.published[0]
	if env.ID != "m1" || env.RoomID != "r1" || env.SenderID != "u1" || env.Content != "hello" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestProcessGeneratesIDWhenMissing(t *testing.T) {
	store := message.NewMemStore()
	bus := &scriptBus{counts: []int64{1}}
	w, _ := newTestWorker(store, bus)

	if err := w.process(context.Background(), entry("")); err != nil {
		t.Fatal(err)
	}
	if len(bus.published) != 1 || bus.published[0].ID == "" {
		t.Fatalf("expected a generated envelope id, got %+v", bus.published)
	}
}

func TestProcessSkipsAlreadyPersisted(t *testing.T) {
	store := message.NewMemStore()
	if err := store.InsertMessage(context.Background(), &model.Message{
		ID: "m1", RoomID: "r1", SenderID: "u1", Body: "hello", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatal(err)
	}
	bus := &scriptBus{counts: []int64{1}}
	w, _ := newTestWorker(store, bus)

	if err := w.process(context.Background(), entry("m1")); err != nil {
		t.Fatal(err)
	}
	msgs, err := store.History(context.Background(), "r1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("store holds %d messages, want 1", len(msgs))
	}
	if len(bus.published) != 0 {
		t.Fatal("a duplicate must not be re-published")
	}
}

// raceStore simulates a competing consumer winning between the lookup and the
// insert: FindMessage misses but InsertMessage hits the unique index.
type raceStore struct {
	message.Store
}

func (s *raceStore) FindMessage(ctx context.Context, id string) (*model.Message, error) {
	return nil, errs.ErrNotFound.WithDetail(id)
}

func (s *raceStore) InsertMessage(ctx context.Context, m *model.Message) error {
	return errs.ErrDuplicate.WithDetail(m.ID)
}

func TestProcessSkipsInsertRace(t *testing.T) {
	bus := &scriptBus{counts: []int64{1}}
	w, _ := newTestWorker(&raceStore{Store: message.NewMemStore()}, bus)

	if err := w.process(context.Background(), entry("m1")); err != nil {
		t.Fatalf("insert race should be a silent skip, got %v", err)
	}
	if len(bus.published) != 0 {
		t.Fatal("the losing consumer must not publish")
	}
}

func TestProcessDropsMalformed(t *testing.T) {
	store := message.NewMemStore()
	bus := &scriptBus{counts: []int64{1}}
	w, _ := newTestWorker(store, bus)

	for _, m := range []*model.OutboundMessage{
		{MsgID: "m1", Content: "hello"},  // no room
		{MsgID: "m2", RoomID: "r1"},      // no content
	} {
		if err := w.process(context.Background(), m); err != nil {
			t.Fatalf("malformed entry should be dropped, got %v", err)
		}
	}
	for _, id := range []string{"m1", "m2"} {
		if _, err := store.FindMessage(context.Background(), id); !errs.ErrNotFound.Is(err) {
			t.Fatalf("malformed entry %s reached storage: %v", id, err)
		}
	}
	if len(bus.published) != 0 {
		t.Fatal("nothing should be published")
	}
}

func TestPublishRetryBackoffSchedule(t *testing.T) {
	store := message.NewMemStore()
	bus := &scriptBus{counts: []int64{0}} // never any subscribers
	w, sleeps := newTestWorker(store, bus)

	if err := w.process(context.Background(), entry("m1")); err != nil {
		t.Fatal(err)
	}

	// Initial publish plus three retries.
	if len(bus.published) != 4 {
		t.Fatalf("published %d times, want 4", len(bus.published))
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	for i := range want {
		if (*sleeps)[i] != want[i] {
			t.Fatalf("sleeps = %v, want %v", *sleeps, want)
		}
	}
	// The record stays persisted even though nobody received the publish.
	if _, err := store.FindMessage(context.Background(), "m1"); err != nil {
		t.Fatalf("persisted record lost: %v", err)
	}
}

func TestPublishStopsOnFirstSubscriber(t *testing.T) {
	store := message.NewMemStore()
	bus := &scriptBus{counts: []int64{0, 3}}
	w, sleeps := newTestWorker(store, bus)

	if err := w.process(context.Background(), entry("m1")); err != nil {
		t.Fatal(err)
	}
	if len(bus.published) != 2 {
		t.Fatalf("published %d times, want 2", len(bus.published))
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != 100*time.Millisecond {
		t.Fatalf("sleeps = %v, want one 100ms backoff", *sleeps)
	}
}

func TestRunDrainsQueueAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := message.NewMemStore()
	bus := &scriptBus{counts: []int64{1}}
	q := &sliceQueue{items: []*model.OutboundMessage{entry("m1"), entry("m2")}, cancel: cancel}

	w := New(q, store, bus, Options{PublishRetries: 1, PublishBackoff: time.Millisecond,
		Pause: time.Millisecond, ErrSleep: time.Millisecond})
	var sleeps []time.Duration
	w.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after queue drained and ctx cancelled")
	}

	for _, id := range []string{"m1", "m2"} {
		if _, err := store.FindMessage(context.Background(), id); err != nil {
			t.Fatalf("entry %s not persisted: %v", id, err)
		}
	}
	if len(bus.published) != 2 {
		t.Fatalf("published %d envelopes, want 2", len(bus.published))
	}
	// One inter-entry pause per processed entry.
	for _, d := range sleeps {
		if d != time.Millisecond {
			t.Fatalf("unexpected sleep %v", d)
		}
	}
}
