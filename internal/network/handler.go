package network

// EventHandler is the seam between the network layer and the session logic.
// The session package implements this interface; the Hub calls it from its
// own goroutine, so implementations never race with each other.
type EventHandler interface {
	// OnConnect is called once a client is registered and pumping.
	OnConnect(c *Client)

	// OnDisconnect is called after a client drops, once.
	OnDisconnect(c *Client)

	// OnLine is called for each newline-terminated line a client sends,
	// with the terminator already stripped.
	OnLine(c *Client, line string)
}
