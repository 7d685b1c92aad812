package proto

import "encoding/json"

// Command is one outbound QRC request or notification, before framing.
// A nil ID marks a notification: the device will not answer it.
type Command struct {
	Method string
	ID     *int64
	Params any
}

type envelope struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      *int64 `json:"id,omitempty"`
	Params  any    `json:"params,omitempty"`
}

// Encode renders the JSON-RPC envelope. The frame delimiter is appended by
// the session layer, not here.
func (c Command) Encode() ([]byte, error) {
	return json.Marshal(envelope{JSONRPC: "2.0", Method: c.Method, ID: c.ID, Params: c.Params})
}

func ref(id int64) *int64 { return &id }
