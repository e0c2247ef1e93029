package network

// clientLine pairs an inbound line with the client that sent it.
type clientLine struct {
	client *Client
	line   string
}

// Hub owns the set of live clients and serializes all connection events
// into the handler. The clients map is touched only by the Run goroutine.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	incoming   chan clientLine

	handler EventHandler
}

func NewHub(handler EventHandler) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan clientLine),
		handler:    handler,
	}
}

// Run is the Hub's event loop. Start it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.handler.OnConnect(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				// Closing send stops the client's write pump.
				close(client.send)
				h.handler.OnDisconnect(client)
			}

		case msg := <-h.incoming:
			h.handler.OnLine(msg.client, msg.line)
		}
	}
}
