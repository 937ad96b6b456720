package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoCollector поднимает сервер, который складывает принятые сообщения в канал
func echoCollector(t *testing.T) (*httptest.Server, <-chan []byte) {
	t.Helper()
	received := make(chan []byte, 64)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- msg
		}
	}))
	t.Cleanup(server.Close)
	return server, received
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func TestSafeWriter_WriteJSON_Concurrency(t *testing.T) {
	server, received := echoCollector(t)
	wsConn := dial(t, server, "")
	defer wsConn.Close()

	writer := NewSafeWriter(wsConn)
	writer.SetWriteTimeout(time.Second)

	// 10 горутин пишут одновременно, каждое сообщение должно дойти целым
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			msg := struct {
				ID  int    `json:"id"`
				Msg string `json:"msg"`
			}{ID: id, Msg: "Test message"}
			assert.NoError(t, writer.WriteJSON(msg))
		}(i)
	}
	wg.Wait()

	uniq := make(map[int]struct{})
	for i := 0; i < 10; i++ {
		select {
		case raw := <-received:
			var decoded struct {
				ID int `json:"id"`
			}
			require.NoError(t, json.Unmarshal(raw, &decoded))
			uniq[decoded.ID] = struct{}{}
		case <-time.After(2 * time.Second):
			t.Fatalf("got only %d messages", i)
		}
	}
	assert.Len(t, uniq, 10)
}

func TestSafeWriter_WriteMessage(t *testing.T) {
	server, received := echoCollector(t)
	wsConn := dial(t, server, "")
	defer wsConn.Close()

	writer := NewSafeWriter(wsConn)
	require.NoError(t, writer.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	select {
	case raw := <-received:
		assert.JSONEq(t, `{"type":"ping"}`, string(raw))
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestSafeWriter_Close(t *testing.T) {
	server, _ := echoCollector(t)
	wsConn := dial(t, server, "")

	writer := NewSafeWriter(wsConn)
	require.NoError(t, writer.Close())

	// Запись в закрытое соединение возвращает ошибку
	assert.Error(t, writer.WriteJSON("test"))
}
