package correlator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MessageHandles are the chat messages posted for one (day, kind). Secondary
// is a stale duplicate left by a repeated publish, or empty.
type MessageHandles struct {
	Primary   string
	Secondary string
}

// ParseHandles decodes a stored message id: a bare handle, a JSON string, or a
// JSON array of one or two handles ordered [primary, secondary]. Array entries
// may be strings or numbers.
func ParseHandles(raw string) (MessageHandles, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return MessageHandles{}, fmt.Errorf("empty message id")
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return MessageHandles{}, fmt.Errorf("malformed message id list %q: %w", raw, err)
		}
		if len(items) == 0 || len(items) > 2 {
			return MessageHandles{}, fmt.Errorf("message id list %q must hold one or two handles", raw)
		}
		handles := make([]string, len(items))
		for i, item := range items {
			h, err := decodeHandle(item)
			if err != nil {
				return MessageHandles{}, fmt.Errorf("message id list %q: %w", raw, err)
			}
			handles[i] = h
		}
		out := MessageHandles{Primary: handles[0]}
		if len(handles) == 2 && handles[1] != handles[0] {
			out.Secondary = handles[1]
		}
		return out, nil

	case '"':
		h, err := decodeHandle(json.RawMessage(raw))
		if err != nil {
			return MessageHandles{}, err
		}
		return MessageHandles{Primary: h}, nil

	default:
		return MessageHandles{Primary: raw}, nil
	}
}

func decodeHandle(item json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(item))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("malformed handle: %w", err)
	}
	var h string
	switch t := v.(type) {
	case string:
		h = strings.TrimSpace(t)
	case json.Number:
		h = t.String()
	default:
		return "", fmt.Errorf("handle %s is neither a string nor a number", string(item))
	}
	if h == "" {
		return "", fmt.Errorf("empty handle")
	}
	return h, nil
}

// Encode returns the stored form: the bare primary when there is no
// secondary, otherwise a two-element JSON array.
func (h MessageHandles) Encode() string {
	if h.Secondary == "" {
		return h.Primary
	}
	data, _ := json.Marshal([]string{h.Primary, h.Secondary})
	return string(data)
}

// Handles lists the non-empty handles, primary first.
func (h MessageHandles) Handles() []string {
	if h.Secondary == "" {
		return []string{h.Primary}
	}
	return []string{h.Primary, h.Secondary}
}
