package message

import (
	"context"
	"time"

	"RoomRelay/module/chat/model"
	"RoomRelay/tools/errs"
	"RoomRelay/tools/ids"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the durable record store consumed by the worker and the history
// endpoint. Implementations must signal an id conflict on InsertMessage with
// errs.ErrDuplicate and a miss on FindMessage with errs.ErrNotFound.
type Store interface {
	InsertMessage(ctx context.Context, m *model.Message) error
	FindMessage(ctx context.Context, id string) (*model.Message, error)
	History(ctx context.Context, roomID string, limit int) ([]*model.Message, error)
	EnsureRoom(ctx context.Context, name string) (*model.Room, error)
}

type mongoStore struct {
	msgColl  *mongo.Collection
	roomColl *mongo.Collection
}

func NewStore(db *mongo.Database) Store {
	return &mongoStore{
		msgColl:  db.Collection(model.CollMessage),
		roomColl: db.Collection(model.CollRoom),
	}
}

func (s *mongoStore) InsertMessage(ctx context.Context, m *model.Message) error {
	if _, err := s.msgColl.InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.ErrDuplicate.WithDetail(m.ID)
		}
		return errors.Wrap(err, "insert message")
	}
	return nil
}

func (s *mongoStore) FindMessage(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message
	err := s.msgColl.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrNotFound.WithDetail(id)
		}
		return nil, errors.Wrap(err, "find message")
	}
	return &m, nil
}

// History returns up to limit messages of a room, oldest first. The query
// walks the created_at index newest-first so the limit picks the most recent
// window, then the slice is reversed for the caller.
func (s *mongoStore) History(ctx context.Context, roomID string, limit int) ([]*model.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.msgColl.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find history")
	}
	defer cur.Close(ctx)

	var out []*model.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode history")
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *mongoStore) EnsureRoom(ctx context.Context, name string) (*model.Room, error) {
	var r model.Room
	err := s.roomColl.FindOne(ctx, bson.M{"name": name}).Decode(&r)
	if err == nil {
		return &r, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrap(err, "find room")
	}

	r = model.Room{
		ID:        ids.GenerateString(),
		Name:      name,
		IsPublic:  true,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.roomColl.InsertOne(ctx, &r); err != nil {
		// Lost a seed race with another gateway; re-read the winner.
		if mongo.IsDuplicateKeyError(err) {
			if ferr := s.roomColl.FindOne(ctx, bson.M{"name": name}).Decode(&r); ferr == nil {
				return &r, nil
			}
		}
		return nil, errors.Wrap(err, "insert room")
	}
	return &r, nil
}
