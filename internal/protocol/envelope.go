package protocol

import (
	"encoding/json"

	"hangout-chat/go-client/pkg/models"
)

// Inbound is a decoded envelope from the realtime channel.
type Inbound struct {
	Category Category            `json:"category"`
	Kind     PeerEvent           `json:"type"`
	Username string              `json:"username"`
	Email    string              `json:"email"`
	Message  *models.ChatMessage `json:"message,omitempty"`
}

// Outbound is a command envelope sent over the realtime channel.
type Outbound struct {
	Username string              `json:"username"`
	Email    string              `json:"email"`
	Message  *models.ChatMessage `json:"message,omitempty"`
	Command  Command             `json:"type"`
}

type rawInbound struct {
	Category string              `json:"category"`
	Type     string              `json:"type"`
	Username string              `json:"username"`
	Email    string              `json:"email"`
	Message  *models.ChatMessage `json:"message,omitempty"`
}

// DecodeInbound parses and validates an inbound frame. Envelopes outside the
// closed vocabulary yield a *Error; malformed JSON yields the json error.
func DecodeInbound(data []byte) (Inbound, error) {
	var raw rawInbound
	if err := json.Unmarshal(data, &raw); err != nil {
		return Inbound{}, err
	}
	category, err := ParseCategory(raw.Category)
	if err != nil {
		return Inbound{}, err
	}
	kind, err := ParsePeerEvent(raw.Type)
	if err != nil {
		return Inbound{}, err
	}
	return Inbound{
		Category: category,
		Kind:     kind,
		Username: raw.Username,
		Email:    raw.Email,
		Message:  raw.Message,
	}, nil
}

func EncodeOutbound(out Outbound) ([]byte, error) {
	if _, err := ParseCommand(string(out.Command)); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}
