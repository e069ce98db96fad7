package main

// Manual smoke client: subscribes to one game's live feed and prints every
// update. Usage:
//
//	TOKEN=... GAME_ID=... go run ./cmd/ws_smoke

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
)

func main() {
	token := os.Getenv("TOKEN")
	if token == "" {
		log.Fatal("TOKEN not set")
	}
	gameID := os.Getenv("GAME_ID")
	if gameID == "" {
		log.Fatal("GAME_ID not set")
	}

	host := os.Getenv("APP_HOST")
	if host == "" {
		host = "localhost:8080"
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     host,
		Path:     "/ws",
		RawQuery: url.Values{"token": {token}, "game_id": {gameID}}.Encode(),
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	log.Printf("subscribed to game %s", gameID)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read: %v", err)
				return
			}
			var pretty map[string]interface{}
			if err := json.Unmarshal(msg, &pretty); err == nil {
				out, _ := json.MarshalIndent(pretty, "", "  ")
				fmt.Println(string(out))
			} else {
				fmt.Println(string(msg))
			}
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}
