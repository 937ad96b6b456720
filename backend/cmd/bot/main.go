package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"x-platformer/backend/internal/input"
	"x-platformer/backend/internal/transport/ws"
)

// Bot подключается к серверу как браузер и жмет клавиши по паттерну
type Bot struct {
	ID          string
	ServerURL   string
	Pattern     string
	Duration    time.Duration
	CommandRate time.Duration

	conn    *websocket.Conn
	running bool
	mu      sync.RWMutex
	writeMu sync.Mutex // Запись в WebSocket только из одной горутины за раз

	held     string // Текущая удерживаемая клавиша направления
	playerID int
	state    string
	step     int

	Stats  BotStats
	logger *zap.SugaredLogger
}

// BotStats содержит статистику работы бота
type BotStats struct {
	KeysSent       int
	Jumps          int
	FramesReceived int
	Errors         int
	States         map[string]int
	StartTime      time.Time
	mu             sync.RWMutex
}

func NewBot(id, serverURL, pattern string, duration, commandRate time.Duration, logger *zap.SugaredLogger) *Bot {
	return &Bot{
		ID:          id,
		ServerURL:   serverURL,
		Pattern:     pattern,
		Duration:    duration,
		CommandRate: commandRate,
		Stats: BotStats{
			States:    make(map[string]int),
			StartTime: time.Now(),
		},
		logger: logger,
	}
}

// Connect подключается к серверу
func (b *Bot) Connect() error {
	u, err := url.Parse(b.ServerURL)
	if err != nil {
		return fmt.Errorf("неверный URL: %w", err)
	}

	b.logger.Infof("[Bot %s] Подключение к %s", b.ID, u.String())

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("ошибка подключения: %w", err)
	}

	b.mu.Lock()
	b.conn = conn
	b.running = true
	b.mu.Unlock()
	return nil
}

// Disconnect отпускает клавиши и отключается от сервера
func (b *Bot) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil && b.running {
		b.running = false
		_ = b.send(ws.ClientMessage{Type: ws.MessageTypeBlur})
		_ = b.conn.Close()
		b.logger.Infof("[Bot %s] Отключен", b.ID)
	}
}

func (b *Bot) isRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

func (b *Bot) send(msg ws.ClientMessage) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.WriteJSON(msg)
}

// nextDirection выбирает клавишу направления для следующего шага
func (b *Bot) nextDirection() string {
	b.step++
	switch b.Pattern {
	case "square":
		keys := []string{input.KeyW, input.KeyD, input.KeyS, input.KeyA}
		return keys[(b.step/5)%len(keys)]
	case "line":
		if (b.step/8)%2 == 0 {
			return input.KeyW
		}
		return input.KeyS
	default: // "random"
		keys := []string{input.KeyW, input.KeyA, input.KeyS, input.KeyD}
		return keys[rand.IntN(len(keys))]
	}
}

// act меняет удерживаемое направление и иногда прыгает
func (b *Bot) act() error {
	next := b.nextDirection()
	if next != b.held {
		if b.held != "" {
			if err := b.send(ws.ClientMessage{Type: ws.MessageTypeKeyUp, Code: b.held}); err != nil {
				return err
			}
		}
		if err := b.send(ws.ClientMessage{Type: ws.MessageTypeKeyDown, Code: next}); err != nil {
			return err
		}
		b.held = next
		b.Stats.mu.Lock()
		b.Stats.KeysSent += 2
		b.Stats.mu.Unlock()
	}

	// Короткое нажатие пробела: раз в несколько шагов, тройкой для цепочки прыжков
	if b.step%3 == 0 {
		if err := b.send(ws.ClientMessage{Type: ws.MessageTypeKeyDown, Code: input.KeySpace}); err != nil {
			return err
		}
		if err := b.send(ws.ClientMessage{Type: ws.MessageTypeKeyUp, Code: input.KeySpace}); err != nil {
			return err
		}
		b.Stats.mu.Lock()
		b.Stats.Jumps++
		b.Stats.mu.Unlock()
	}
	return nil
}

// handleMessage обрабатывает входящие сообщения
func (b *Bot) handleMessage(messageType int, data []byte) {
	if messageType != websocket.TextMessage {
		return
	}

	var msg map[string]interface{}
	if err := json.Unmarshal(data, &msg); err != nil {
		b.logger.Warnf("[Bot %s] Ошибка разбора сообщения: %v", b.ID, err)
		return
	}

	switch msg["type"] {
	case ws.MessageTypeWelcome:
		if id, ok := msg["player_id"].(float64); ok {
			b.playerID = int(id)
		}
		b.logger.Infof("[Bot %s] Сессия %v, персонаж %d", b.ID, msg["session_id"], b.playerID)

	case ws.MessageTypeFrame:
		state, _ := msg["state"].(string)
		b.Stats.mu.Lock()
		b.Stats.FramesReceived++
		b.Stats.States[state]++
		b.Stats.mu.Unlock()
		if state != b.state {
			b.logger.Debugf("[Bot %s] Состояние: %s -> %s", b.ID, b.state, state)
			b.state = state
		}

	case ws.MessageTypeHUD:
		b.logger.Infof("[Bot %s] HUD: %v", b.ID, msg["stats"])

	case ws.MessageTypePong:
		if ct, ok := msg["client_time"].(float64); ok {
			b.logger.Debugf("[Bot %s] RTT %dms", b.ID, time.Now().UnixMilli()-int64(ct))
		}

	case ws.MessageTypeError:
		b.logger.Warnf("[Bot %s] Сервер отклонил сообщение: %v", b.ID, msg["message"])
	}
}

// Run запускает бота
func (b *Bot) Run() error {
	if err := b.Connect(); err != nil {
		return err
	}
	defer b.Disconnect()

	go func() {
		for b.isRunning() {
			messageType, data, err := b.conn.ReadMessage()
			if err != nil {
				if b.isRunning() {
					b.logger.Warnf("[Bot %s] Ошибка чтения сообщения: %v", b.ID, err)
					b.Stats.mu.Lock()
					b.Stats.Errors++
					b.Stats.mu.Unlock()
				}
				return
			}
			b.handleMessage(messageType, data)
		}
	}()

	go func() {
		pingTicker := time.NewTicker(5 * time.Second)
		defer pingTicker.Stop()
		for range pingTicker.C {
			if !b.isRunning() {
				return
			}
			if err := b.send(ws.ClientMessage{Type: ws.MessageTypePing, ClientTime: time.Now().UnixMilli()}); err != nil {
				b.logger.Warnf("[Bot %s] Ошибка отправки ping: %v", b.ID, err)
			}
		}
	}()

	commandTicker := time.NewTicker(b.CommandRate)
	defer commandTicker.Stop()

	endTime := time.Now().Add(b.Duration)
	for b.isRunning() && time.Now().Before(endTime) {
		<-commandTicker.C
		if err := b.act(); err != nil {
			b.logger.Warnf("[Bot %s] Ошибка отправки ввода: %v", b.ID, err)
			b.Stats.mu.Lock()
			b.Stats.Errors++
			b.Stats.mu.Unlock()
		}
	}

	b.logger.Infof("[Bot %s] Завершение работы", b.ID)
	return nil
}

// PrintStats выводит статистику бота
func (b *Bot) PrintStats() {
	b.Stats.mu.RLock()
	defer b.Stats.mu.RUnlock()

	duration := time.Since(b.Stats.StartTime)
	b.logger.Infof("[Bot %s] Статистика за %v: клавиш %d, прыжков %d, кадров %d, ошибок %d",
		b.ID, duration.Round(time.Millisecond), b.Stats.KeysSent, b.Stats.Jumps, b.Stats.FramesReceived, b.Stats.Errors)
	for state, n := range b.Stats.States {
		b.logger.Infof("  %s: %d кадров", state, n)
	}
	if b.Stats.FramesReceived > 0 {
		b.logger.Infof("  Частота кадров: %.1f/сек", float64(b.Stats.FramesReceived)/duration.Seconds())
	}
}

func main() {
	var (
		serverURL   = flag.String("url", "ws://localhost:8080/ws", "URL WebSocket сервера")
		botID       = flag.String("id", "", "ID бота (пусто = случайный)")
		pattern     = flag.String("pattern", "random", "Паттерн движения (random, square, line)")
		duration    = flag.Duration("duration", 30*time.Second, "Длительность работы бота")
		commandRate = flag.Duration("rate", 250*time.Millisecond, "Частота смены ввода")
	)
	flag.Parse()

	zl, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bot: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()

	id := *botID
	if id == "" {
		id = uuid.NewString()[:8]
	}
	bot := NewBot(id, *serverURL, *pattern, *duration, *commandRate, zl.Sugar())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		zl.Sugar().Infof("[Bot %s] Получен сигнал прерывания, завершение работы...", bot.ID)
		bot.Disconnect()
		bot.PrintStats()
		os.Exit(0)
	}()

	if err := bot.Run(); err != nil {
		zl.Sugar().Errorf("[Bot %s] Ошибка: %v", bot.ID, err)
		os.Exit(1)
	}
	bot.PrintStats()
}
