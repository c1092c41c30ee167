package websocket

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время, которое разрешено писать сообщение клиенту
	writeWait = 10 * time.Second

	// Время ожидания pong-ответа от клиента
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту
	pingPeriod = (pongWait * 9) / 10

	// Входящие сообщения не используются, но читать их нужно
	// для обработки control-фреймов
	maxMessageSize = 512

	// Размер буфера исходящих сообщений клиента
	clientBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Токен проверяет auth middleware до апгрейда
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client — одно WebSocket-соединение подписчика лидерборда
type Client struct {
	UserID       uint
	ConnectionID string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

// ServeWS апгрейдит HTTP-соединение и регистрирует клиента в хабе
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		UserID:       userID,
		ConnectionID: uuid.New().String(),
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, clientBufferSize),
	}

	hub.register <- client
	go client.writePump()
	go client.readPump()
	return nil
}

// enqueue кладет сообщение в буфер клиента.
// Возвращает false, если буфер полон: медленного клиента отключаем,
// чтобы он не тормозил рассылку остальным.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close закрывает канал отправки ровно один раз
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump читает входящие фреймы ради ping/pong и обнаружения разрыва
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WSClient] Неожиданное закрытие соединения %s: %v", c.ConnectionID, err)
			}
			return
		}
	}
}

// writePump пишет сообщения из буфера и поддерживает соединение ping-ами
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
