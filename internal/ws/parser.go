package ws

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Parse parses a WebSocket message payload.
// The WebSocket returns messages either as JSON arrays or single objects.
// Plain-text frames such as "PONG" yield no messages.
func Parse(data []byte) ([]Message, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case '[':
		var messages []Message
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, errors.Wrapf(err, "parsing websocket message array (data: %s)", truncate(data, 100))
		}
		return messages, nil
	case '{':
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, errors.Wrapf(err, "parsing websocket message (data: %s)", truncate(data, 100))
		}
		return []Message{msg}, nil
	default:
		return nil, nil
	}
}

// truncate truncates a byte slice to a maximum length for error messages.
func truncate(data []byte, maxLen int) string {
	if len(data) <= maxLen {
		return string(data)
	}
	return string(data[:maxLen]) + "..."
}
