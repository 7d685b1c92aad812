package proto

import (
	"encoding/json"
	"fmt"
)

// MethodChangeGroupPoll is the only notification method the core acts on.
const MethodChangeGroupPoll = "ChangeGroup.Poll"

// Response is one parsed inbound frame. Exactly one of *Error, *Result or
// *Notification is produced per frame, classified by key presence.
type Response interface{ isResponse() }

// Error is a device-reported JSON-RPC error frame.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Result is a reply frame correlated to an earlier request by convention.
type Result struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
}

// Notification is an unsolicited frame carrying params and no result.
type Notification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func (*Error) isResponse()        {}
func (*Result) isResponse()       {}
func (*Notification) isResponse() {}

type inboundFrame struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Error  *Error          `json:"error"`
	Result json.RawMessage `json:"result"`
	Params json.RawMessage `json:"params"`
}

// Parse classifies one delimiter-stripped frame. Precedence mirrors the wire
// contract: an error key wins, then result, then params.
func Parse(data []byte) (Response, error) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	switch {
	case f.Error != nil:
		return f.Error, nil
	case f.Result != nil:
		return &Result{ID: f.ID, Method: f.Method, Result: f.Result}, nil
	case f.Params != nil:
		return &Notification{Method: f.Method, Params: f.Params}, nil
	}
	return nil, fmt.Errorf("frame has no error, result or params key")
}

// Change is one control change reported inside a ChangeGroup.Poll.
type Change struct {
	Component string  `json:"Component"`
	Name      string  `json:"Name"`
	Value     float64 `json:"Value"`
	String    string  `json:"String,omitempty"`
	Disabled  bool    `json:"Disabled,omitempty"`
}

// Poll is the params payload of a ChangeGroup.Poll notification.
type Poll struct {
	ID      string   `json:"Id"`
	Changes []Change `json:"Changes"`
}

// DecodePoll unpacks the params of a ChangeGroup.Poll notification.
func DecodePoll(params json.RawMessage) (Poll, error) {
	var p Poll
	if err := json.Unmarshal(params, &p); err != nil {
		return Poll{}, fmt.Errorf("decoding poll params: %w", err)
	}
	return p, nil
}
