package qsys

import (
	"encoding/json"
	"sort"
	"strings"
)

// Payload validators return the typed, fully-populated value or a list of
// human-readable errors. They never touch the device.

type inputsPayload struct {
	Value string `json:"value"`
}

var inputIndexes = map[string]int{
	"input.1": 1,
	"input.2": 2,
	"input.3": 3,
}

func parseInputsPayload(raw json.RawMessage) (inputsPayload, []string) {
	var p inputsPayload
	if err := unmarshalPayload(raw, &p); err != nil {
		return p, []string{"invalid payload"}
	}
	if _, ok := inputIndexes[p.Value]; !ok {
		return p, []string{"value must be one of " + keyList(inputIndexes)}
	}
	return p, nil
}

func (p inputsPayload) inputIndex() int {
	return inputIndexes[p.Value]
}

type lightsPayload struct {
	Value string `json:"value"`
}

var lightsIndexes = map[string]int{
	"lights.100": 0,
	"lights.75":  1,
	"lights.50":  2,
	"lights.00":  3,
}

func parseLightsPayload(raw json.RawMessage) (lightsPayload, []string) {
	var p lightsPayload
	if err := unmarshalPayload(raw, &p); err != nil {
		return p, []string{"invalid payload"}
	}
	if _, ok := lightsIndexes[p.Value]; !ok {
		return p, []string{"value must be one of " + keyList(lightsIndexes)}
	}
	return p, nil
}

func (p lightsPayload) selectorIndex() int {
	return lightsIndexes[p.Value]
}

type snapshotPayload struct {
	Action string  `json:"action"`
	Bank   *int    `json:"bank"`
	Name   string  `json:"name"`
	Ramp   float64 `json:"ramp"`
}

func parseSnapshotPayload(raw json.RawMessage) (snapshotPayload, []string) {
	var p snapshotPayload
	if err := unmarshalPayload(raw, &p); err != nil {
		return p, []string{"invalid payload"}
	}
	var errs []string
	if p.Action != "load" && p.Action != "save" {
		errs = append(errs, "action must be one of load, save")
	}
	if p.Bank == nil {
		errs = append(errs, "bank is required")
	}
	if p.Name == "" {
		p.Name = systemSelector
	}
	return p, errs
}

type dialerPayload struct {
	Action string `json:"action"`
	Digit  string `json:"digit"`
	State  string `json:"state"`
}

var pinpadControls = map[string]string{
	"0": "call.pinpad.0", "1": "call.pinpad.1", "2": "call.pinpad.2",
	"3": "call.pinpad.3", "4": "call.pinpad.4", "5": "call.pinpad.5",
	"6": "call.pinpad.6", "7": "call.pinpad.7", "8": "call.pinpad.8",
	"9": "call.pinpad.9", "*": "call.pinpad.*", "#": "call.pinpad.#",
}

func parseDialerPayload(raw json.RawMessage) (dialerPayload, []string) {
	var p dialerPayload
	if err := unmarshalPayload(raw, &p); err != nil {
		return p, []string{"invalid payload"}
	}
	var errs []string
	switch p.Action {
	case "dial":
		if p.Digit == "" {
			errs = append(errs, "digit is required when action='dial'")
		} else if _, ok := pinpadControls[p.Digit]; !ok {
			errs = append(errs, "digit must be 0-9, * or #")
		}
	case "dnd":
		switch p.State {
		case "enable", "disable":
		case "":
			errs = append(errs, "state is required when action='dnd'")
		default:
			errs = append(errs, "state must be one of enable, disable")
		}
	case "answer", "disconnect":
	default:
		errs = append(errs, "action must be one of dial, answer, disconnect, dnd")
	}
	return p, errs
}

func unmarshalPayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	return json.Unmarshal(raw, dst)
}

func keyList(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
