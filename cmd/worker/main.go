package main

import (
	"context"
	"os/signal"
	"syscall"

	"RoomRelay/global"
	"RoomRelay/logger"
	"RoomRelay/module/chat/message"
	"RoomRelay/service/mgo"
	"RoomRelay/service/storage"
	"RoomRelay/service/storage/redis"
	"RoomRelay/service/worker"
)

func main() {
	global.ConfigIds()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rc := global.GetRedisConf()
	if err := redis.InitRedis(redis.Config{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
		PoolSize: rc.PoolSize,
	}); err != nil {
		logger.Fatalf("[worker] redis init failed: %v", err)
	}
	defer func() { _ = redis.CloseRedis() }()

	mc := global.GetMongoConf()
	if err := mgo.Init(ctx, mgo.Config{URI: mc.URI, Database: mc.Database}); err != nil {
		logger.Fatalf("[worker] mongo init failed: %v", err)
	}
	defer func() { _ = mgo.Close(context.Background()) }()

	wc := global.GetWorkerConf()
	w := worker.New(
		storage.NewMessageQueue(redis.GetRedis(), wc.QueueKey),
		message.NewStore(mgo.GetDB()),
		storage.NewRoomBus(redis.GetRedis(), wc.ChannelPrefix),
		worker.Options{
			PublishRetries: wc.PublishRetries,
			PublishBackoff: wc.PublishBackoff,
			Pause:          wc.Pause,
			ErrSleep:       wc.ErrSleep,
		},
	)
	w.Run(ctx)
}
