package network

import (
	"bufio"
	"log"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a line to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next line or pong from the peer.
	pongWait = 60 * time.Second

	// Ping interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Longest line a client may send.
	maxLineSize = 4096
)

// transport hides the difference between a WebSocket and a raw TCP socket.
// Both carry the same newline-terminated text protocol.
type transport interface {
	readLine() (string, error)
	writeLine(line string) error
	ping() error
	close() error
	remoteAddr() net.Addr
}

// Client is one connected peer from the server's point of view. Messages to
// the peer go through the buffered send channel; the write pump drains it,
// so slow peers never block the Hub.
type Client struct {
	id  string
	hub *Hub
	tr  transport

	send chan string
}

// ID is the unique connection ID assigned at accept time.
func (c *Client) ID() string { return c.id }

// RemoteAddr reports the peer's network address.
func (c *Client) RemoteAddr() net.Addr { return c.tr.remoteAddr() }

// Send returns the outbound channel. Write lines here, never to the socket.
func (c *Client) Send() chan<- string { return c.send }

// Close tears the transport down. The read pump sees the error and runs
// the usual unregister path, so disconnect handling stays in one place.
func (c *Client) Close() error { return c.tr.close() }

func (c *Client) readLoop() {
	defer func() {
		c.hub.unregister <- c
		c.tr.close()
	}()

	for {
		line, err := c.tr.readLine()
		if err != nil {
			return
		}
		if len(line) > maxLineSize {
			log.Printf("network: dropping %s: line exceeds %d bytes", c.tr.remoteAddr(), maxLineSize)
			return
		}
		c.hub.incoming <- clientLine{client: c, line: line}
	}
}

// writeLoop pumps lines from the send channel to the socket and keeps the
// connection alive with periodic pings.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.tr.close()
	}()

	for {
		select {
		case line, ok := <-c.send:
			if !ok {
				// The Hub closed the channel: the client was unregistered.
				return
			}
			if err := c.tr.writeLine(line); err != nil {
				log.Printf("network: write to %s failed: %v", c.tr.remoteAddr(), err)
				return
			}
		case <-ticker.C:
			if err := c.tr.ping(); err != nil {
				return
			}
		}
	}
}

// --- WebSocket transport ---

type wsTransport struct {
	conn *websocket.Conn
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	t := &wsTransport{conn: conn}
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return t
}

func (t *wsTransport) readLine() (string, error) {
	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("network: unexpected close from %s: %v", t.conn.RemoteAddr(), err)
			}
			return "", err
		}
		if kind != websocket.TextMessage {
			continue
		}
		t.conn.SetReadDeadline(time.Now().Add(pongWait))
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

func (t *wsTransport) writeLine(line string) error {
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, []byte(line+"\n"))
}

func (t *wsTransport) ping() error {
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.PingMessage, nil)
}

func (t *wsTransport) close() error         { return t.conn.Close() }
func (t *wsTransport) remoteAddr() net.Addr { return t.conn.RemoteAddr() }

// --- raw TCP transport ---

type tcpTransport struct {
	conn net.Conn
	r    *bufio.Reader
}

func newTCPTransport(conn net.Conn) *tcpTransport {
	return &tcpTransport{conn: conn, r: bufio.NewReaderSize(conn, maxLineSize)}
}

func (t *tcpTransport) readLine() (string, error) {
	t.conn.SetReadDeadline(time.Now().Add(pongWait))
	line, err := t.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *tcpTransport) writeLine(line string) error {
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_, err := t.conn.Write([]byte(line + "\n"))
	return err
}

// ping is a no-op for TCP: liveness rides on the application-level PING the
// clients send, and the read deadline advances with each line.
func (t *tcpTransport) ping() error { return nil }

func (t *tcpTransport) close() error         { return t.conn.Close() }
func (t *tcpTransport) remoteAddr() net.Addr { return t.conn.RemoteAddr() }
