package mgo

import (
	"context"
	"sync"
	"time"

	"RoomRelay/module/chat/model"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Config struct {
	URI      string
	Database string
}

type MongoManager struct {
	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database
}

var globalMgr MongoManager

// Init connects, pings, and makes sure the indexes the idempotency scheme
// relies on exist. Message ids ride on _id so no extra unique index is
// needed there; rooms are unique by name for the seed race.
func Init(ctx context.Context, cfg Config) error {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return errors.Wrap(err, "mongo connect")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cli.Ping(pingCtx, nil); err != nil {
		return errors.Wrap(err, "mongo ping")
	}

	db := cli.Database(cfg.Database)
	_, err = db.Collection(model.CollRoom).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "ensure room name index")
	}
	_, err = db.Collection(model.CollMessage).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return errors.Wrap(err, "ensure message history index")
	}

	globalMgr.mu.Lock()
	globalMgr.client = cli
	globalMgr.db = db
	globalMgr.mu.Unlock()
	return nil
}

func GetDB() *mongo.Database {
	globalMgr.mu.RLock()
	defer globalMgr.mu.RUnlock()
	if globalMgr.db == nil {
		panic("Mongo not initialized, call Init first")
	}
	return globalMgr.db
}

func Close(ctx context.Context) error {
	globalMgr.mu.Lock()
	defer globalMgr.mu.Unlock()
	if globalMgr.client == nil {
		return nil
	}
	err := globalMgr.client.Disconnect(ctx)
	globalMgr.client, globalMgr.db = nil, nil
	return err
}
