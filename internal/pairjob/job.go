// Package pairjob handles bulk pairing requests delivered over RabbitMQ.
package pairjob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/suPer8Hu/pairhub/internal/conversation"
)

// ErrBadMessage marks a delivery that can never succeed.
var ErrBadMessage = errors.New("pairjob: bad message")

// Message asks for one device pair to exist.
type Message struct {
	DeviceA any `json:"device_a"`
	DeviceB any `json:"device_b"`
}

type Creator interface {
	CreatePair(ctx context.Context, deviceA, deviceB any) (*conversation.DevicePair, error)
}

// Decode parses a delivery body. Numbers are kept as json.Number so numeric
// device ids canonicalize the same way they do over HTTP.
func Decode(body []byte) (Message, error) {
	var m Message
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if blank(m.DeviceA) || blank(m.DeviceB) {
		return Message{}, fmt.Errorf("%w: device_a and device_b required", ErrBadMessage)
	}
	return m, nil
}

// Handle decodes body and finds or creates the pair it names.
func Handle(ctx context.Context, c Creator, body []byte) (*conversation.DevicePair, error) {
	m, err := Decode(body)
	if err != nil {
		return nil, err
	}
	return c.CreatePair(ctx, m.DeviceA, m.DeviceB)
}

func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	}
	return false
}
