package storage

import (
	"context"
	"encoding/json"
	"time"

	"RoomRelay/module/chat/model"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// MessageQueue is the durable FIFO between gateway ingestion and worker
// processing: LPUSH at the tail, blocking BRPOP at the head. The pop is
// destructive; with several workers each entry is processed by exactly one.
type MessageQueue struct {
	rdb *goredis.Client
	key string
}

func NewMessageQueue(rdb *goredis.Client, key string) *MessageQueue {
	return &MessageQueue{rdb: rdb, key: key}
}

// Enqueue appends one outbound message. Errors surface to the gateway as a
// queue-unavailable reply; the gateway never retries on its own.
func (q *MessageQueue) Enqueue(ctx context.Context, m *model.OutboundMessage) error {
	b, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshal queue entry")
	}
	if err := q.rdb.LPush(ctx, q.key, b).Err(); err != nil {
		return errors.Wrap(err, "lpush queue entry")
	}
	return nil
}

// Pop blocks until an entry is available and removes it from the list.
// A nil entry with nil error means the blocking wait timed out and the
// caller should just loop again.
func (q *MessageQueue) Pop(ctx context.Context) (*model.OutboundMessage, error) {
	// 0 would block forever; a finite timeout keeps the loop responsive to
	// ctx cancellation between waits.
	res, err := q.rdb.BRPop(ctx, 5*time.Second, q.key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "brpop")
	}
	// BRPop returns [key, element].
	if len(res) != 2 {
		return nil, errors.Errorf("brpop: unexpected reply len %d", len(res))
	}
	var m model.OutboundMessage
	if err := json.Unmarshal([]byte(res[1]), &m); err != nil {
		return nil, errors.Wrap(err, "unmarshal queue entry")
	}
	return &m, nil
}
