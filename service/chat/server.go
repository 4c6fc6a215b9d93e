package chat

import (
	"context"

	"RoomRelay/module/chat/message"
	"RoomRelay/module/chat/model"
	"RoomRelay/tools/security"
)

// Queue is the gateway's view of the durable queue: push only. The worker
// owns the consuming side.
type Queue interface {
	Enqueue(ctx context.Context, m *model.OutboundMessage) error
}

// TokenVerifier validates a signed credential and yields the user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// JWTVerifier verifies HMAC JWTs issued by the external auth service.
type JWTVerifier struct {
	Opts security.Options
}

func (v JWTVerifier) Verify(token string) (string, error) {
	return security.Verify(v.Opts, token)
}

type Config struct {
	GatewayID   string
	DedupSize   int // processed-id cache capacity
	SendBacklog int // per-connection outbound queue size
}

func (c *Config) norm() {
	if c.GatewayID == "" {
		c.GatewayID = "gw-1"
	}
	if c.DedupSize <= 0 {
		c.DedupSize = defaultDedupSize
	}
	if c.SendBacklog <= 0 {
		c.SendBacklog = 256
	}
}

// Server is one gateway instance: live connections, room membership, the
// dedup cache, and the collaborators everything else flows through.
type Server struct {
	conf     Config
	conns    *ConnManager
	rooms    *RoomIndex
	dedup    *ProcessedSet
	queue    Queue
	verifier TokenVerifier
	store    message.Store
	disp     *Dispatcher
}

func NewServer(conf Config, queue Queue, verifier TokenVerifier, store message.Store) *Server {
	conf.norm()
	return &Server{
		conf:     conf,
		conns:    NewConnManager(conf.GatewayID),
		rooms:    NewRoomIndex(),
		dedup:    NewProcessedSet(conf.DedupSize),
		queue:    queue,
		verifier: verifier,
		store:    store,
		disp:     NewDispatcher(),
	}
}

func (s *Server) Conf() Config            { return s.conf }
func (s *Server) ConnMgr() *ConnManager   { return s.conns }
func (s *Server) Rooms() *RoomIndex       { return s.rooms }
func (s *Server) Dedup() *ProcessedSet    { return s.dedup }
func (s *Server) Queue() Queue            { return s.queue }
func (s *Server) Verifier() TokenVerifier { return s.verifier }
func (s *Server) Store() message.Store    { return s.store }
func (s *Server) Disp() *Dispatcher       { return s.disp }
