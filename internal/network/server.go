package network

import (
	"log"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server accepts connections on two fronts and feeds them into one Hub:
// WebSocket upgrades on an HTTP port, and plain TCP sockets speaking the
// same newline protocol for legacy clients.
type Server struct {
	hub *Hub
}

var upgrader = websocket.Upgrader{
	// Any origin may connect; the protocol has its own handshake.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func NewServer(handler EventHandler) *Server {
	return &Server{hub: NewHub(handler)}
}

func (s *Server) startClient(tr transport) {
	client := &Client{
		id:   uuid.NewString(),
		hub:  s.hub,
		tr:   tr,
		send: make(chan string, 256),
	}
	s.hub.register <- client
	go client.writeLoop()
	go client.readLoop()
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("network: websocket upgrade failed: %v", err)
		return
	}
	s.startClient(newWSTransport(conn))
}

// ListenHTTP starts the Hub and serves WebSocket clients on /ws, plus a
// /health endpoint for load balancers and the service registry. Blocking.
func (s *Server) ListenHTTP(address string) error {
	go s.hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.wsHandler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	log.Printf("network: websocket server listening on ws://%s/ws", address)
	return http.ListenAndServe(address, mux)
}

// ListenTCP accepts raw TCP clients on the given address. Call after
// ListenHTTP has started the Hub. Blocking.
func (s *Server) ListenTCP(address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	log.Printf("network: tcp server listening on %s", address)
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		s.startClient(newTCPTransport(conn))
	}
}
