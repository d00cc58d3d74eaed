package socket

import "encoding/json"

// Envelope is the WS wire frame: {"type":"...","payload":{...}}
type Envelope struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"room_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Server message types.
const (
	MsgStateUpdate        = "STATE_UPDATE"
	MsgPlayerDisconnected = "PLAYER_DISCONNECTED"
	MsgPlayerReconnected  = "PLAYER_RECONNECTED"
	MsgPing               = "PING"
	MsgPong               = "PONG"
	MsgError              = "ERROR"
)

// PresencePayload accompanies PLAYER_DISCONNECTED / PLAYER_RECONNECTED.
type PresencePayload struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
}

// ErrorPayload accompanies a server-pushed ERROR.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NoticeLevel classifies a transient user-visible notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is surfaced to the user and never fatal to the stream.
type Notice struct {
	Level NoticeLevel
	Text  string
}
