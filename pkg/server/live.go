package server

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Kanrog/kanrog.github.io/pkg/log"
	"github.com/Kanrog/kanrog.github.io/pkg/profile"
	"github.com/Kanrog/kanrog.github.io/pkg/resolve"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = 30 * time.Second
)

// liveSession is one editor connection. Every text message is a JSON
// profile; every reply is a Response for it.
type liveSession struct {
	id     string
	conn   *websocket.Conn
	server *Server
	logger *log.Entry
	sendCh chan Response
	done   chan struct{}
	once   sync.Once
}

// Close closes the connection once.
func (ls *liveSession) Close() {
	ls.once.Do(func() {
		close(ls.done)
		ls.conn.Close()
	})
}

func (s *Server) live(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	id := c.GetString("request_id")
	sess := &liveSession{
		id:     id,
		conn:   conn,
		server: s,
		logger: s.logger.WithField("session", id),
		sendCh: make(chan Response, 8),
		done:   make(chan struct{}),
	}

	s.sessionsMu.Lock()
	s.sessions[sess] = struct{}{}
	s.sessionsMu.Unlock()
	s.metrics.LiveConnections.Inc(nil)
	sess.logger.Info("live session opened")

	go sess.writePump()
	sess.readPump()
}

func (s *Server) removeSession(sess *liveSession) {
	s.sessionsMu.Lock()
	_, ok := s.sessions[sess]
	delete(s.sessions, sess)
	s.sessionsMu.Unlock()
	if ok {
		s.metrics.LiveConnections.Dec(nil)
		sess.logger.Info("live session closed")
	}
}

// readPump handles incoming profiles until the connection drops.
func (ls *liveSession) readPump() {
	defer func() {
		ls.server.removeSession(ls)
		ls.Close()
	}()

	ls.conn.SetReadLimit(maxProfileSize)
	ls.conn.SetReadDeadline(time.Now().Add(livePongWait))
	ls.conn.SetPongHandler(func(string) error {
		ls.conn.SetReadDeadline(time.Now().Add(livePongWait))
		return nil
	})

	for {
		_, message, err := ls.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ls.logger.WithError(err).Warn("live read failed")
			}
			return
		}
		ls.conn.SetReadDeadline(time.Now().Add(livePongWait))
		ls.server.metrics.LiveMessages.Inc(nil)

		select {
		case ls.sendCh <- ls.handle(message):
		case <-ls.done:
			return
		}
	}
}

func (ls *liveSession) handle(message []byte) Response {
	p, err := profile.Parse(message, profile.FormatJSON)
	if err != nil {
		return Response{Violations: []resolve.Violation{}, Error: err.Error()}
	}
	return ls.server.build(p)
}

// writePump sends replies in order and keeps the connection alive.
func (ls *liveSession) writePump() {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		ls.Close()
	}()

	for {
		select {
		case resp := <-ls.sendCh:
			ls.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := ls.conn.WriteJSON(resp); err != nil {
				ls.logger.WithError(err).Warn("live write failed")
				return
			}
		case <-ticker.C:
			ls.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := ls.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ls.done:
			return
		}
	}
}
