package chat

import (
	"errors"
	"net"
	"net/http"

	"RoomRelay/logger"
	"RoomRelay/tools/errs"
	"RoomRelay/tools/ids"
	"RoomRelay/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const maxFrameSize = 1 << 20 // 1MB

// RegisterRoutes mounts the gateway's HTTP surface.
func RegisterRoutes(r *gin.Engine, s *Server) {
	r.GET("/ws", s.HandleWS)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "gateway": s.ConnMgr().GwID()})
	})
	r.GET("/rooms/:roomId/history", s.HandleHistory)
}

// HandleWS upgrades the connection and runs its read loop. Frames from one
// connection are handled strictly in order; many connections run
// concurrently.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade error: %v", err)
		return
	}
	ws.SetReadLimit(maxFrameSize)

	cl := NewClient(ids.GenerateString(), ws, s.conf.SendBacklog)
	safe.SafeGo(cl.WritePump)
	logger.Infof("[ws] connected conn=%s remote=%s", cl.ConnID, ws.RemoteAddr())

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed conn=%s", cl.ConnID)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout conn=%s err=%v", cl.ConnID, rerr)
			} else {
				logger.Infof("[ws] read err conn=%s err=%v", cl.ConnID, rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			// Bad frame: reply and keep the connection.
			cl.Push(BuildError(errMessage(perr)))
			continue
		}

		if derr := s.disp.Dispatch(&ChatContext{S: s, C: cl}, frame); derr != nil {
			logger.Infof("[ws] handler err conn=%s type=%s err=%v", cl.ConnID, frame.FrameType(), derr)
			cl.Push(BuildError(errMessage(derr)))
		}
	}

	s.teardown(cl)
}

// teardown runs the synchronous close cleanup: unbind from the registry and
// drop the user from every room this instance tracks. The registry guard
// keeps an evicted old connection from wiping state its replacement owns.
func (s *Server) teardown(cl *Client) {
	if uid := cl.UserID; uid != "" {
		if cur, ok := s.conns.Get(uid); !ok || cur == cl {
			s.conns.Remove(uid, cl)
			s.rooms.RemoveUser(uid)
		}
	}
	cl.Close()
	logger.Infof("[ws] closed conn=%s user=%s", cl.ConnID, cl.UserID)
}

// errMessage extracts the client-safe message of a coded error; internal
// detail stays in the logs.
func errMessage(err error) string {
	var ce *errs.CodeError
	if errors.As(err, &ce) {
		if ce.Detail != "" {
			return ce.Detail
		}
		return ce.Msg
	}
	return "internal error"
}
