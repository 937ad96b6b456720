package ws

import (
	"x-platformer/backend/internal/game"
	"x-platformer/backend/internal/hud"
)

// Константы для WebSocket сообщений
const (
	// От клиента
	MessageTypeKeyDown     = "key_down"     // Нажатие клавиши (KeyboardEvent.code)
	MessageTypeKeyUp       = "key_up"       // Отпускание клавиши
	MessageTypeMouseMove   = "mouse_move"   // Смещение мыши за событие
	MessageTypeWheel       = "wheel"        // Прокрутка колеса
	MessageTypePointerLock = "pointer_lock" // Захват или отпускание указателя
	MessageTypeBlur        = "blur"         // Окно потеряло фокус
	MessageTypePing        = "ping"         // Пинг для измерения задержки

	// От сервера
	MessageTypeWelcome = "welcome" // Сессия создана
	MessageTypeFrame   = "frame"   // Состояние сцены и камеры после кадра
	MessageTypeHUD     = "hud"     // Изменились счетчики
	MessageTypePong    = "pong"    // Ответ на пинг
	MessageTypeError   = "error"   // Сообщение не принято
)

// ClientMessage - любое сообщение от браузера. Заполнены только поля,
// относящиеся к его типу.
type ClientMessage struct {
	Type       string  `json:"type"`
	Code       string  `json:"code,omitempty"`
	DX         float64 `json:"dx,omitempty"`
	DY         float64 `json:"dy,omitempty"`
	Delta      float64 `json:"delta,omitempty"`
	Locked     bool    `json:"locked,omitempty"`
	ClientTime int64   `json:"client_time,omitempty"`
}

// WelcomeMessage отправляется сразу после подключения
type WelcomeMessage struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id"`
	PlayerID   int    `json:"player_id"`
	ServerTime int64  `json:"server_time"`
}

// FrameMessage - кадр для отрисовки
type FrameMessage struct {
	Type string `json:"type"`
	game.Frame
}

// HUDMessage представляет обновление счетчиков
type HUDMessage struct {
	Type       string    `json:"type"`
	Stats      hud.Stats `json:"stats"`
	ServerTime int64     `json:"server_time"`
}

// PongMessage представляет ответ на пинг от сервера
type PongMessage struct {
	Type       string `json:"type"`
	ClientTime int64  `json:"client_time"`
	ServerTime int64  `json:"server_time"`
}

// ErrorMessage сообщает клиенту, что его сообщение отброшено
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
