package room

import "encoding/json"

// Connection teardown codes sent with the websocket close frame.
const (
	CloseInvalidPassword = 4000
	CloseInactivity      = 4001
	CloseKicked          = 4002
	CloseBanned          = 4003 // banned or connection-rate-limited
)

// InboundEnvelope is the generic envelope for all client-to-room messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Room-global client-to-room payloads ---

// ChatInMsg carries a chat line from a player.
type ChatInMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SetNameMsg changes the sender's display name.
type SetNameMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// KickMsg asks to remove a player; admin only.
type KickMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

// VisibilityMsg toggles the room's chat/activity-log feature flags.
type VisibilityMsg struct {
	Type        string `json:"type"`
	ChatEnabled *bool  `json:"chatEnabled,omitempty"`
	LogEnabled  *bool  `json:"logEnabled,omitempty"`
}

// --- Room-to-client views ---

// PlayerView is the roster entry inside the state snapshot.
type PlayerView struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Admin   bool     `json:"admin"`
	Alive   bool     `json:"alive"`
	Lives   int      `json:"lives"`
	Wins    int      `json:"wins"`
	Letters []string `json:"letters,omitempty"`
}
