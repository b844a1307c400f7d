package adapter

import (
	"encoding/json"
	"fmt"
)

// envelope is the line-delimited wire format: a type tag plus an
// opaque value payload shaped by that tag.
type envelope struct {
	Type  MessageType     `json:"type"`
	Value json.RawMessage `json:"value"`
}

// DecodeMessage parses one line of the input stream into a concrete
// *BalanceMessage, *OrderMessage or *TradeMessage. A malformed line or
// an unrecognized type tag is malformed input: it is returned as a
// plain error for the caller to surface and abort on, not a ledger
// disagreement.
func DecodeMessage(line []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("adapter: malformed message envelope: %w", err)
	}

	switch env.Type {
	case MessageTypeBalance:
		var m BalanceMessage
		if err := json.Unmarshal(env.Value, &m); err != nil {
			return nil, fmt.Errorf("adapter: malformed balance message: %w", err)
		}
		return &m, nil
	case MessageTypeOrder:
		var m OrderMessage
		if err := json.Unmarshal(env.Value, &m); err != nil {
			return nil, fmt.Errorf("adapter: malformed order message: %w", err)
		}
		return &m, nil
	case MessageTypeTrade:
		var m TradeMessage
		if err := json.Unmarshal(env.Value, &m); err != nil {
			return nil, fmt.Errorf("adapter: malformed trade message: %w", err)
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("adapter: unrecognized message type %q", env.Type)
	}
}
