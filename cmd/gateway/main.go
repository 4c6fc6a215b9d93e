package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"RoomRelay/global"
	"RoomRelay/logger"
	"RoomRelay/module/chat/message"
	"RoomRelay/service/chat"
	"RoomRelay/service/chat/handlers"
	"RoomRelay/service/mgo"
	"RoomRelay/service/storage"
	"RoomRelay/service/storage/redis"
	"RoomRelay/tools/safe"
)

const seedRoom = "general"

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
		logger.Fatalf("[gateway] redis init failed: %v", err)
	}
	defer func() { _ = redis.CloseRedis() }()

	mc := global.GetMongoConf()
	if err := mgo.Init(ctx, mgo.Config{URI: mc.URI, Database: mc.Database}); err != nil {
		logger.Fatalf("[gateway] mongo init failed: %v", err)
	}
	defer func() { _ = mgo.Close(context.Background()) }()

	store := message.NewStore(mgo.GetDB())
	if _, err := store.EnsureRoom(ctx, seedRoom); err != nil {
		logger.Fatalf("[gateway] seed room failed: %v", err)
	}

	wc := global.GetWorkerConf()
	queue := storage.NewMessageQueue(redis.GetRedis(), wc.QueueKey)
	bus := storage.NewRoomBus(redis.GetRedis(), wc.ChannelPrefix)

	gc := global.GetGatewayConf()
	srv := chat.NewServer(chat.Config{
		GatewayID:   gc.GatewayID,
		DedupSize:   gc.DedupSize,
		SendBacklog: gc.SendBacklog,
	}, queue, chat.JWTVerifier{Opts: global.GetJwtOptions()}, store)
	handlers.RegisterAll(srv)

	envs, err := bus.Subscribe(ctx)
	if err != nil {
		logger.Fatalf("[gateway] bus subscribe failed: %v", err)
	}
	safe.SafeGo(func() { srv.RunFanout(ctx, envs) })

	r := gin.New()
	r.Use(gin.Recovery())
	chat.RegisterRoutes(r, srv)

	logger.Infof("[gateway] %s listening on %s", gc.GatewayID, gc.Addr)
	if err := r.Run(gc.Addr); err != nil {
		logger.Fatalf("[gateway] serve failed: %v", err)
	}
}
