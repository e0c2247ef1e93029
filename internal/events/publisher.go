package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/wbreen/CatanFinal-sub001/internal/game"
)

// SubjectGameFinished is the NATS subject finished-game summaries go to.
const SubjectGameFinished = "games.finished"

// Publisher ships finished-game summaries to NATS, where stats collectors
// and matchmaking services pick them up.
type Publisher struct {
	nc *nats.Conn
}

// Connect dials the NATS server. The connection reconnects on its own; a
// summary published during an outage is buffered by the client.
func Connect(url string) (*Publisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url, nats.Name("game-server"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return &Publisher{nc: nc}, nil
}

// PublishSummary sends one finished game's record.
func (p *Publisher) PublishSummary(s game.Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary for %q: %w", s.Name, err)
	}
	if err := p.nc.Publish(SubjectGameFinished, data); err != nil {
		return fmt.Errorf("publish summary for %q: %w", s.Name, err)
	}
	return nil
}

// Close drains the connection so buffered publishes flush first.
func (p *Publisher) Close() {
	p.nc.Drain()
}
