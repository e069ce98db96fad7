package ws

import (
	"time"

	"github.com/gorilla/websocket"

	"wordstake_backend/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

// Client is one subscribed websocket connection, read and write pumps on
// their own goroutines.
type Client struct {
	Wallet string
	GameID string

	conn *websocket.Conn
	hub  *Hub
	send chan []byte
}

func NewClient(wallet, gameID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		Wallet: wallet,
		GameID: gameID,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, 64),
	}
}

// Run subscribes the client and blocks until the connection drops.
func (c *Client) Run() {
	c.hub.Subscribe(c.GameID, c)
	go c.writePump()
	c.readPump()
}

// readPump discards inbound frames; the socket is observe-only. It exists
// to service pongs and detect the close.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unsubscribe(c.GameID, c)
		close(c.send)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read closed", "wallet", c.Wallet, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
