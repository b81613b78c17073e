package live

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/binding"
	"github.com/vango-dev/bindkit/pkg/dom"
)

// Message types sent to the client.
const (
	MessageRender = "render"
	MessageError  = "error"
)

// Message is a server to client frame.
type Message struct {
	Type  string `json:"type"`
	HTML  string `json:"html,omitempty"`
	Error string `json:"error,omitempty"`
}

// Session is one websocket connection with its own engine and model.
type Session struct {
	server *Server
	conn   *websocket.Conn
	model  *Model
	engine *binding.Engine
	root   *html.Node
	logger *slog.Logger

	closeOnce sync.Once
}

func newSession(s *Server, conn *websocket.Conn) (*Session, error) {
	model := NewModel(s.config.Model)
	engine, root, err := s.bind(model)
	if err != nil {
		model.Dispose()
		return nil, err
	}
	return &Session{
		server: s,
		conn:   conn,
		model:  model,
		engine: engine,
		root:   root,
		logger: s.logger.With("remote", conn.RemoteAddr().String()),
	}, nil
}

// ReadLoop sends the initial render, then applies client updates until
// the connection closes.
func (s *Session) ReadLoop() {
	defer s.release()
	defer s.Close()

	s.conn.SetReadLimit(s.server.config.MaxMessageSize)
	if err := s.render(); err != nil {
		s.logger.Error("initial render failed", "error", err)
		return
	}

	for {
		if t := s.server.config.ReadTimeout; t > 0 {
			s.conn.SetReadDeadline(time.Now().Add(t))
		}

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		if err := s.handle(msg); err != nil {
			s.logger.Warn("update rejected", "error", err)
			if err := s.send(Message{Type: MessageError, Error: err.Error()}); err != nil {
				return
			}
			continue
		}
		if err := s.render(); err != nil {
			s.logger.Error("render failed", "error", err)
			return
		}
	}
}

func (s *Session) handle(msg []byte) error {
	var u Update
	if err := json.Unmarshal(msg, &u); err != nil {
		return err
	}
	return s.model.Apply(u)
}

func (s *Session) render() error {
	return s.send(Message{Type: MessageRender, HTML: dom.Render(s.root)})
}

func (s *Session) send(m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.server.config.WriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a normal close frame, releases the bindings and closes the
// connection. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.server.remove(s)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(s.server.config.WriteTimeout))
		s.conn.Close()
	})
}

// release runs once the read loop has stopped, so the engine is never
// used from two goroutines.
func (s *Session) release() {
	s.engine.CleanNode(s.root)
	s.model.Dispose()
}
