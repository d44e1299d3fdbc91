package game

import "encoding/json"

// --- Inbound payloads shared by the variants ---

// StartMsg asks the variant to start a game. ReuseWord keeps the previous
// target word instead of drawing a new one (cooperative guess game only).
type StartMsg struct {
	Type      string `json:"type"`
	ReuseWord bool   `json:"reuseWord,omitempty"`
}

// WordMsg submits a word for the current turn.
type WordMsg struct {
	Type string `json:"type"`
	Word string `json:"word"`
}

// TypingMsg carries the player's live typing preview text.
type TypingMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SettingsMsg updates variant settings. Fields are validated one by one;
// unknown or out-of-bounds fields are dropped, never rejected wholesale.
type SettingsMsg struct {
	Type     string                     `json:"type"`
	Settings map[string]json.RawMessage `json:"settings"`
}

// --- Outbound notifications ---

// ErrorMsg is a transient, non-fatal rejection. Hide asks the client to
// suppress its own logging while still blocking the action.
type ErrorMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
	Hide   bool   `json:"hide,omitempty"`
}

// NewError builds an ErrorMsg.
func NewError(reason string, hide bool) ErrorMsg {
	return ErrorMsg{Type: "error", Reason: reason, Hide: hide}
}

// SystemMsg is a room-wide informational line (joins, kicks, promotions).
type SystemMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewSystem builds a SystemMsg.
func NewSystem(text string) SystemMsg {
	return SystemMsg{Type: "system", Text: text}
}

// ChatMsg relays a chat line.
type ChatMsg struct {
	Type string `json:"type"`
	From string `json:"from"`
	Text string `json:"text"`
}

// TypingRelayMsg relays a player's typing preview to the other players.
type TypingRelayMsg struct {
	Type string `json:"type"`
	From string `json:"from"`
	Text string `json:"text"`
}

// WordAcceptedMsg announces a valid submission.
type WordAcceptedMsg struct {
	Type   string `json:"type"`
	Player string `json:"player"`
	Word   string `json:"word"`
}

// ExplosionMsg announces a turn timeout and its life cost.
type ExplosionMsg struct {
	Type       string `json:"type"`
	Player     string `json:"player"`
	LivesLeft  int    `json:"livesLeft"`
	Eliminated bool   `json:"eliminated"`
}

// BonusMsg announces a granted bonus letter or extra life.
type BonusMsg struct {
	Type      string `json:"type"`
	Player    string `json:"player"`
	Letter    string `json:"letter,omitempty"`
	ExtraLife bool   `json:"extraLife,omitempty"`
}

// GameOverMsg ends a game run. Winner is empty when nobody won.
type GameOverMsg struct {
	Type   string `json:"type"`
	Winner string `json:"winner,omitempty"`
}
