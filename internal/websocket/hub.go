package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/yourusername/examprep-api/internal/domain/repository"
)

// LeaderboardSource отдает текущий дневной топ для рассылки подписчикам
type LeaderboardSource interface {
	GetTop() ([]repository.LeaderboardRow, error)
}

// Event — конверт сообщения, уходящего подписчикам
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Минимальный интервал между рассылками лидерборда.
// Начисления XP приходят пачками; коалесцируем их в одну рассылку.
const broadcastDebounce = 2 * time.Second

// Hub держит подписчиков лидерборда и рассылает обновления.
// Регистрация и отключение идут через каналы, как и рассылка:
// единственная горутина Run владеет картой клиентов.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	source LeaderboardSource

	// Дебаунс сигналов об изменении лидерборда
	mu      sync.Mutex
	pending bool

	done chan struct{}
}

// NewHub создает новый хаб рассылки лидерборда
func NewHub(source LeaderboardSource) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		source:     source,
		done:       make(chan struct{}),
	}
}

// Run обрабатывает регистрацию клиентов и рассылку сообщений.
// Запускается одной горутиной из main.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("[WSHub] Клиент %s подключен (всего: %d)", client.ConnectionID, len(h.clients))
			// Новому подписчику сразу отправляем текущее состояние
			if payload, err := h.snapshot(); err == nil {
				client.enqueue(payload)
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				log.Printf("[WSHub] Клиент %s отключен (всего: %d)", client.ConnectionID, len(h.clients))
			}

		case payload := <-h.broadcast:
			for client := range h.clients {
				if !client.enqueue(payload) {
					delete(h.clients, client)
					client.close()
				}
			}

		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			return
		}
	}
}

// Shutdown останавливает хаб и закрывает все соединения
func (h *Hub) Shutdown() {
	close(h.done)
}

// LeaderboardChanged реализует service.Notifier: сигнал о том, что дневной
// топ мог измениться. Сигналы в пределах окна дебаунса схлопываются.
func (h *Hub) LeaderboardChanged(date time.Time) {
	h.mu.Lock()
	if h.pending {
		h.mu.Unlock()
		return
	}
	h.pending = true
	h.mu.Unlock()

	time.AfterFunc(broadcastDebounce, func() {
		h.mu.Lock()
		h.pending = false
		h.mu.Unlock()

		payload, err := h.snapshot()
		if err != nil {
			log.Printf("[WSHub] Ошибка получения лидерборда для рассылки: %v", err)
			return
		}
		select {
		case h.broadcast <- payload:
		default:
			log.Printf("[WSHub] Канал рассылки переполнен, обновление пропущено")
		}
	})
}

// snapshot сериализует текущий топ в конверт события
func (h *Hub) snapshot() ([]byte, error) {
	top, err := h.source.GetTop()
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Type: "leaderboard:update", Data: top})
}
