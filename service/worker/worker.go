package worker

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"RoomRelay/logger"
	"RoomRelay/module/chat/message"
	"RoomRelay/module/chat/model"
	"RoomRelay/tools/errs"
	"RoomRelay/tools/ids"
)

// Queue is the consuming side of the durable queue. Pop blocks; a nil
// message with nil error means the wait timed out and the loop should spin
// again.
type Queue interface {
	Pop(ctx context.Context) (*model.OutboundMessage, error)
}

// Bus publishes envelopes to room channels and reports how many subscribers
// received each publish.
type Bus interface {
	Publish(ctx context.Context, roomID string, env *model.Envelope) (int64, error)
}

type Options struct {
	PublishRetries int           // extra attempts after the first publish
	PublishBackoff time.Duration // first retry delay, doubles per attempt
	Pause          time.Duration // settle delay between queue entries
	ErrSleep       time.Duration // backoff after a loop-level error
}

func (o *Options) norm() {
	if o.PublishRetries <= 0 {
		o.PublishRetries = 3
	}
	if o.PublishBackoff <= 0 {
		o.PublishBackoff = 100 * time.Millisecond
	}
	if o.Pause <= 0 {
		o.Pause = 300 * time.Millisecond
	}
	if o.ErrSleep <= 0 {
		o.ErrSleep = 500 * time.Millisecond
	}
}

// Worker is the single logical consumer: pop, dedup against storage,
// persist, publish. Entries are handled strictly one at a time; the
// inter-message pause keeps publishes for one room effectively serial.
type Worker struct {
	queue Queue
	store message.Store
	bus   Bus
	opts  Options

	sleep func(time.Duration) // swapped out by tests
}

func New(queue Queue, store message.Store, bus Bus, opts Options) *Worker {
	opts.norm()
	return &Worker{
		queue: queue,
		store: store,
		bus:   bus,
		opts:  opts,
		sleep: time.Sleep,
	}
}

// Run loops until ctx is done. Per-entry failures are logged and skipped;
// there is no dead-letter queue, and a popped entry that fails is gone.
func (w *Worker) Run(ctx context.Context) {
	logger.Infof("[worker] running, waiting for messages")
	for {
		select {
		case <-ctx.Done():
			logger.Infof("[worker] stopping: %v", ctx.Err())
			return
		default:
		}

		m, err := w.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("[worker] pop error: %v", err)
			w.sleep(w.opts.ErrSleep)
			continue
		}
		if m == nil {
			continue
		}

		if err := w.processEntry(ctx, m); err != nil {
			logger.Errorf("[worker] process failed msgId=%s room=%s: %v", m.MsgID, m.RoomID, err)
		}

		w.sleep(w.opts.Pause)
	}
}

// processEntry isolates one entry: a panic in processing is recovered so the
// loop keeps going.
func (w *Worker) processEntry(ctx context.Context, m *model.OutboundMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return w.process(ctx, m)
}

func (w *Worker) process(ctx context.Context, m *model.OutboundMessage) error {
	if m.RoomID == "" || m.Content == "" {
		// Malformed entry: drop and move on.
		logger.Warnf("[worker] dropping malformed entry msgId=%q room=%q", m.MsgID, m.RoomID)
		return nil
	}

	// Idempotency: a client-supplied id we have already persisted means this
	// is an at-least-once redelivery. Skipping is success.
	if m.MsgID != "" {
		if _, err := w.store.FindMessage(ctx, m.MsgID); err == nil {
			logger.Infof("[worker] duplicate message ignored: %s", m.MsgID)
			return nil
		} else if !errs.ErrNotFound.Is(err) {
			return err
		}
	}

	id := m.MsgID
	if id == "" {
		id = ids.GenerateString()
	}
	saved := &model.Message{
		ID:        id,
		RoomID:    m.RoomID,
		SenderID:  m.ClientSenderID,
		Body:      m.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := w.store.InsertMessage(ctx, saved); err != nil {
		if errs.ErrDuplicate.Is(err) {
			// Lost the race with a competing consumer; same outcome as the
			// lookup hit.
			logger.Infof("[worker] duplicate message ignored on insert: %s", id)
			return nil
		}
		return err
	}

	w.publishWithRetry(ctx, &model.Envelope{
		ID:        saved.ID,
		RoomID:    saved.RoomID,
		SenderID:  saved.SenderID,
		Content:   saved.Body,
		CreatedAt: saved.CreatedAt,
	})

	logger.Infof("[worker] message processed: %s", saved.ID)
	return nil
}

// publishWithRetry re-publishes while the bus reports zero subscribers,
// backing off 100/200/400ms before giving up. The persisted record is never
// rolled back: under-delivery is a logged risk, not an error the sender
// sees.
func (w *Worker) publishWithRetry(ctx context.Context, env *model.Envelope) {
	var subs int64
	for attempt := 0; attempt <= w.opts.PublishRetries; attempt++ {
		n, err := w.bus.Publish(ctx, env.RoomID, env)
		if err != nil {
			logger.Errorf("[worker] publish error msgId=%s attempt=%d: %v", env.ID, attempt+1, err)
		} else {
			subs = n
			if subs > 0 {
				return
			}
		}
		if attempt < w.opts.PublishRetries {
			delay := w.opts.PublishBackoff << attempt
			logger.Warnf("[worker] no subscribers for %s, retrying in %v", env.RoomID, delay)
			w.sleep(delay)
		}
	}
	logger.Warnf("[worker] delivery risk: no subscribers received msgId=%s room=%s after %d attempts",
		env.ID, env.RoomID, w.opts.PublishRetries+1)
}
