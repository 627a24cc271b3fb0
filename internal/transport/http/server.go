package http

import (
	"net/http"
	"time"
)

// NewServer exposes /healthz and, when ws is set, the websocket transport at /ws.
func NewServer(addr string, ws *WSHandler) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if ws != nil {
		mux.HandleFunc("/ws", ws.ServeWS)
	}
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}
