package global

import (
	"os"
	"strconv"
	"time"

	"RoomRelay/tools/ids"
	"RoomRelay/tools/security"
)

// Composition-time configuration. Every knob reads from the environment with
// a sensible local-dev default so a bare `go run` against localhost works.

type RedisConf struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type MongoConf struct {
	URI      string
	Database string
}

type GatewayConf struct {
	Addr        string // listen address, e.g. ":8080"
	GatewayID   string
	DedupSize   int // processed-id cache capacity
	SendBacklog int // per-connection outbound queue size
}

type WorkerConf struct {
	QueueKey       string
	ChannelPrefix  string
	PublishRetries int
	PublishBackoff time.Duration
	Pause          time.Duration // settle delay between queue entries
	ErrSleep       time.Duration // backoff after a loop-level error
}

const (
	DefaultQueueKey      = "queue:messages"
	DefaultChannelPrefix = "room:"
)

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func ConfigIds() {
	ids.SetNodeID(int64(envOrDefaultInt("NODE_ID", 1)))
}

func GetRedisConf() RedisConf {
	return RedisConf{
		Addr:     envOrDefault("REDIS_ADDR", "127.0.0.1:6379"),
		Password: envOrDefault("REDIS_PASSWORD", ""),
		DB:       envOrDefaultInt("REDIS_DB", 0),
		PoolSize: envOrDefaultInt("REDIS_POOL_SIZE", 20),
	}
}

func GetMongoConf() MongoConf {
	return MongoConf{
		URI:      envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		Database: envOrDefault("MONGO_DATABASE", "roomrelay"),
	}
}

func GetGatewayConf() GatewayConf {
	return GatewayConf{
		Addr:        envOrDefault("GATEWAY_ADDR", ":8080"),
		GatewayID:   envOrDefault("GATEWAY_ID", "gw-1"),
		DedupSize:   envOrDefaultInt("DEDUP_CACHE_SIZE", 1024),
		SendBacklog: envOrDefaultInt("SEND_BACKLOG", 256),
	}
}

func GetWorkerConf() WorkerConf {
	return WorkerConf{
		QueueKey:       envOrDefault("QUEUE_KEY", DefaultQueueKey),
		ChannelPrefix:  envOrDefault("ROOM_CHANNEL_PREFIX", DefaultChannelPrefix),
		PublishRetries: envOrDefaultInt("PUBLISH_RETRIES", 3),
		PublishBackoff: time.Duration(envOrDefaultInt("PUBLISH_BACKOFF_MS", 100)) * time.Millisecond,
		Pause:          time.Duration(envOrDefaultInt("WORKER_PAUSE_MS", 300)) * time.Millisecond,
		ErrSleep:       time.Duration(envOrDefaultInt("WORKER_ERR_SLEEP_MS", 500)) * time.Millisecond,
	}
}

func GetJwtOptions() security.Options {
	secret := envOrDefault("JWT_SECRET", "defaultsecret")
	return security.DefaultOptions([]byte(secret))
}
