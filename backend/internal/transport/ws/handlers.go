package ws

import (
	"x-platformer/backend/internal/game"
)

// MessageHandler - тип функции обработчика сообщений клиента
type MessageHandler func(conn *SafeWriter, session *game.Session, msg *ClientMessage) error

// registerDefaultHandlers связывает типы сообщений с семплером ввода сессии.
// События только копятся, в состояние кадра они попадут в начале следующего кадра.
func (s *WSServer) registerDefaultHandlers() {
	s.RegisterHandler(MessageTypeKeyDown, handleKeyDown)
	s.RegisterHandler(MessageTypeKeyUp, handleKeyUp)
	s.RegisterHandler(MessageTypeMouseMove, handleMouseMove)
	s.RegisterHandler(MessageTypeWheel, handleWheel)
	s.RegisterHandler(MessageTypePointerLock, handlePointerLock)
	s.RegisterHandler(MessageTypeBlur, handleBlur)
	s.RegisterHandler(MessageTypePing, handlePing)
}

// Неизвестные коды клавиш семплер игнорирует сам
func handleKeyDown(_ *SafeWriter, session *game.Session, msg *ClientMessage) error {
	session.Input.KeyDown(msg.Code)
	return nil
}

func handleKeyUp(_ *SafeWriter, session *game.Session, msg *ClientMessage) error {
	session.Input.KeyUp(msg.Code)
	return nil
}

func handleMouseMove(_ *SafeWriter, session *game.Session, msg *ClientMessage) error {
	session.Input.MouseMove(msg.DX, msg.DY)
	return nil
}

func handleWheel(_ *SafeWriter, session *game.Session, msg *ClientMessage) error {
	session.Input.Wheel(msg.Delta)
	return nil
}

func handlePointerLock(_ *SafeWriter, session *game.Session, msg *ClientMessage) error {
	session.Input.SetPointerLock(msg.Locked)
	return nil
}

// handleBlur отпускает все клавиши: keyup после потери фокуса не придет
func handleBlur(_ *SafeWriter, session *game.Session, _ *ClientMessage) error {
	session.Input.ReleaseAll()
	return nil
}

func handlePing(conn *SafeWriter, _ *game.Session, msg *ClientMessage) error {
	return conn.WriteJSON(NewPongMessage(msg.ClientTime))
}
