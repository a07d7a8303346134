// Package connections tracks live chat websockets and keeps them alive.
package connections

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "courier",
	Subsystem: "chat",
	Name:      "websocket_connections",
	Help:      "Open chat websocket connections.",
})

// TimeoutConfig holds the various timeout settings for WebSocket connections
type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// DefaultTimeouts pings at nine tenths of the pong wait.
var DefaultTimeouts = TimeoutConfig{
	PongWait:   30 * time.Second,
	PingPeriod: 27 * time.Second,
	WriteWait:  10 * time.Second,
}

// Session describes one registered connection.
type Session struct {
	ID          string
	ConnectedAt time.Time
}

type Manager struct {
	connections sync.Map
	mu          sync.RWMutex
	timeouts    TimeoutConfig
}

func NewManager(timeouts TimeoutConfig) *Manager {
	return &Manager{timeouts: timeouts}
}

// Add registers conn and returns its session id.
func (m *Manager) Add(conn *websocket.Conn) string {
	s := Session{ID: uuid.New().String(), ConnectedAt: time.Now()}
	if _, loaded := m.connections.LoadOrStore(conn, s); loaded {
		existing, _ := m.connections.Load(conn)
		return existing.(Session).ID
	}
	activeConnections.Inc()
	return s.ID
}

func (m *Manager) Remove(conn *websocket.Conn) {
	if _, loaded := m.connections.LoadAndDelete(conn); loaded {
		activeConnections.Dec()
	}
}

func (m *Manager) Has(conn *websocket.Conn) bool {
	_, ok := m.connections.Load(conn)
	return ok
}

func (m *Manager) Count() int {
	count := 0
	m.connections.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

func (m *Manager) Timeouts() TimeoutConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timeouts
}

func (m *Manager) SetTimeouts(timeouts TimeoutConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts = timeouts
}

// KeepAlive arms the pong handler on conn and pings it every PingPeriod
// until done is closed or a ping cannot be written.
func (m *Manager) KeepAlive(conn *websocket.Conn, done <-chan struct{}) {
	t := m.Timeouts()
	conn.SetReadDeadline(time.Now().Add(t.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(t.PongWait))
	})

	go func() {
		ticker := time.NewTicker(t.PingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(t.WriteWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()
}

// CloseAll sends a going-away close frame to every registered connection.
func (m *Manager) CloseAll() {
	deadline := time.Now().Add(m.Timeouts().WriteWait)
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	m.connections.Range(func(key, value interface{}) bool {
		conn := key.(*websocket.Conn)
		_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
		return true
	})
}
