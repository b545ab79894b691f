package bus

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

const (
	SubjectPresetSaved   = "timefilter.presets.saved"
	SubjectPresetDeleted = "timefilter.presets.deleted"
)

// Publisher sends JSON events to subscribers of subject
type Publisher interface {
	Publish(subject string, payload any) error
	Close()
}

type NatsPublisher struct {
	Conn *nats.Conn
}

func NewPublisher(url string) (*NatsPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("timefilter"))
	if err != nil {
		return nil, err
	}
	return &NatsPublisher{Conn: conn}, nil
}

func (p *NatsPublisher) Close() {
	if p.Conn != nil {
		p.Conn.Drain()
		p.Conn.Close()
	}
}

func (p *NatsPublisher) Publish(subject string, payload any) error {
	data, err := encode(subject, payload)
	if err != nil {
		return err
	}
	return p.Conn.Publish(subject, data)
}

func encode(subject string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", subject, err)
	}
	return data, nil
}

// NopPublisher drops every event; used when no NATS URL is configured
type NopPublisher struct{}

func (NopPublisher) Publish(string, any) error { return nil }
func (NopPublisher) Close()                    {}
