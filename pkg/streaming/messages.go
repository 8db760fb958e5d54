// Package streaming defines the wire messages of the run streaming protocol.
// Every frame is a JSON Envelope; start_run and end_run are acknowledged by
// the server, samples and resets are fire-and-forget.
package streaming

import (
	"encoding/json"

	"github.com/airace/carcontrol/pkg/core"
)

// Message type constants of the run streaming protocol.
const (
	TypeStartRun = "start_run"
	TypeEndRun   = "end_run"
	TypeTick     = "tick"
	TypeReset    = "reset"
	TypeAck      = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response. RunID is set on the
// ack of start_run when the server assigns its own run identifier.
type AckMessage struct {
	Type  string `json:"type"` // always "ack"
	For   string `json:"for"`  // the message type being acknowledged
	RunID uint   `json:"runId,omitempty"`
}

// StartRunPayload announces a run before any samples.
type StartRunPayload struct {
	Run *core.Run `json:"run"`
}

// EndRunPayload closes a run.
type EndRunPayload struct {
	RunID  uint `json:"runId"`
	Ticks  int  `json:"ticks"`
	Resets int  `json:"resets"`
}
