package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"x-platformer/backend/internal/game"
)

const (
	DefaultPingInterval = 2 * time.Second // Интервал отправки пингов
	DefaultWriteTimeout = 5 * time.Second
	maxMessageSize      = 4096
)

// SessionHost - игровой цикл с точки зрения транспорта
type SessionHost interface {
	AddSession(id string) (*game.Session, error)
	RemoveSession(id string) bool
}

// WSServer принимает браузерные соединения: одна сессия на соединение,
// входящие сообщения кормят ввод сессии, кадры уходят через Broadcaster
type WSServer struct {
	upgrader     websocket.Upgrader
	host         SessionHost
	broadcaster  *Broadcaster
	handlers     map[string]MessageHandler
	pingInterval time.Duration
	logger       *zap.SugaredLogger
	newID        func() string
}

// NewWSServer создает новый экземпляр WebSocket сервера
func NewWSServer(host SessionHost, broadcaster *Broadcaster, logger *zap.SugaredLogger) *WSServer {
	server := &WSServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		host:         host,
		broadcaster:  broadcaster,
		handlers:     make(map[string]MessageHandler),
		pingInterval: DefaultPingInterval,
		logger:       logger,
		newID:        uuid.NewString,
	}

	server.registerDefaultHandlers()
	return server
}

// RegisterHandler регистрирует обработчик для конкретного типа сообщений
func (s *WSServer) RegisterHandler(messageType string, handler MessageHandler) {
	s.handlers[messageType] = handler
}

// SetPingInterval устанавливает интервал отправки пингов. 0 - без пингов.
func (s *WSServer) SetPingInterval(interval time.Duration) {
	s.pingInterval = interval
}

// HandleWS обрабатывает входящие WebSocket соединения
func (s *WSServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("[WSServer] Ошибка апгрейда соединения: %v", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	safeConn := NewSafeWriter(conn)
	safeConn.SetWriteTimeout(DefaultWriteTimeout)

	sessionID := s.newID()
	session, err := s.host.AddSession(sessionID)
	if err != nil {
		s.logger.Errorf("[WSServer] Не удалось создать сессию: %v", err)
		_ = safeConn.WriteJSON(NewErrorMessage(err))
		_ = safeConn.Close()
		return
	}

	done := make(chan struct{})
	defer func() {
		close(done)
		s.broadcaster.Unregister(sessionID)
		s.host.RemoveSession(sessionID)
		_ = safeConn.Close()
		s.logger.Infof("[WSServer] Соединение %s закрыто", sessionID)
	}()

	s.logger.Infof("[WSServer] Новое соединение %s от %s", sessionID, conn.RemoteAddr())

	if err := safeConn.WriteJSON(NewWelcomeMessage(sessionID, session.Player.ID())); err != nil {
		s.logger.Warnf("[WSServer] Ошибка отправки приветствия: %v", err)
		return
	}
	s.broadcaster.Register(sessionID, safeConn)

	if s.pingInterval > 0 {
		go s.pingLoop(safeConn, done)
	}

	s.readLoop(safeConn, session)
}

// readLoop читает сообщения до закрытия соединения.
// Плохое сообщение отклоняется, соединение остается.
func (s *WSServer) readLoop(conn *SafeWriter, session *game.Session) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warnf("[WSServer] Ошибка чтения сессии %s: %v", session.ID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		msg, err := ParseMessage(data)
		if err != nil {
			s.reject(conn, session, err)
			continue
		}

		handler, ok := s.handlers[msg.Type]
		if !ok {
			s.reject(conn, session, ErrInvalidMessage)
			continue
		}
		if err := handler(conn, session, msg); err != nil {
			s.logger.Warnf("[WSServer] Ошибка обработки %s: %v", msg.Type, err)
		}
	}
}

func (s *WSServer) reject(conn *SafeWriter, session *game.Session, err error) {
	s.logger.Debugf("[WSServer] Сессия %s: сообщение отклонено: %v", session.ID, err)
	if werr := conn.WriteJSON(NewErrorMessage(err)); werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
		s.logger.Debugf("[WSServer] Ошибка отправки ответа об ошибке: %v", werr)
	}
}

func (s *WSServer) pingLoop(conn *SafeWriter, done <-chan struct{}) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Routes возвращает HTTP-маршруты: WebSocket и статика клиента
func (s *WSServer) Routes(staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}
