package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"x-platformer/backend/internal/game"
	"x-platformer/backend/internal/hud"
)

// ErrInvalidMessage - сообщение не разобрано или не прошло проверку
var ErrInvalidMessage = errors.New("ws: invalid message")

// GetCurrentServerTime возвращает текущее время сервера в миллисекундах
func GetCurrentServerTime() int64 {
	return time.Now().UnixMilli()
}

// ParseMessage разбирает и проверяет входящее сообщение
func ParseMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	switch msg.Type {
	case MessageTypeKeyDown, MessageTypeKeyUp:
		if msg.Code == "" {
			return nil, fmt.Errorf("%w: %s without code", ErrInvalidMessage, msg.Type)
		}
	case MessageTypeMouseMove:
		if !finite(msg.DX) || !finite(msg.DY) {
			return nil, fmt.Errorf("%w: non-finite mouse delta", ErrInvalidMessage)
		}
	case MessageTypeWheel:
		if !finite(msg.Delta) {
			return nil, fmt.Errorf("%w: non-finite wheel delta", ErrInvalidMessage)
		}
	case MessageTypePointerLock, MessageTypeBlur, MessageTypePing:
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, msg.Type)
	}

	return &msg, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NewWelcomeMessage создает приветствие для новой сессии
func NewWelcomeMessage(sessionID string, playerID int) *WelcomeMessage {
	return &WelcomeMessage{
		Type:       MessageTypeWelcome,
		SessionID:  sessionID,
		PlayerID:   playerID,
		ServerTime: GetCurrentServerTime(),
	}
}

// NewFrameMessage оборачивает кадр игрового цикла
func NewFrameMessage(frame game.Frame) *FrameMessage {
	return &FrameMessage{Type: MessageTypeFrame, Frame: frame}
}

// NewHUDMessage создает обновление счетчиков
func NewHUDMessage(stats hud.Stats) *HUDMessage {
	return &HUDMessage{
		Type:       MessageTypeHUD,
		Stats:      stats,
		ServerTime: GetCurrentServerTime(),
	}
}

// NewPongMessage создает ответ на пинг
func NewPongMessage(clientTime int64) *PongMessage {
	return &PongMessage{
		Type:       MessageTypePong,
		ClientTime: clientTime,
		ServerTime: GetCurrentServerTime(),
	}
}

func NewErrorMessage(err error) *ErrorMessage {
	return &ErrorMessage{Type: MessageTypeError, Message: err.Error()}
}
