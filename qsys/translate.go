package qsys

import (
	"strconv"
	"strings"

	"github.com/roomctl/qrcbridge/proto"
)

// Status is the nested client-facing document: frontend component name to
// frontend control name to semantic value.
type Status map[string]map[string]any

// Translate maps a batch of device changes to a status document. It is a pure
// function of its inputs: unknown components are dropped, unmapped control
// names pass through untranslated, and an empty batch yields an empty (and
// therefore unbroadcast) document.
func Translate(changes []proto.Change, tables map[string]Mapping) Status {
	result := make(Status)
	for _, change := range changes {
		mapping, ok := tables[change.Component]
		if !ok {
			continue
		}
		name := mapping.Controls[change.Name]
		if name == "" {
			name = change.Name
		}
		if result[mapping.Frontend] == nil {
			result[mapping.Frontend] = make(map[string]any)
		}
		result[mapping.Frontend][name] = resolve(mapping.Resolver, change)
	}
	return result
}

func resolve(r Resolver, change proto.Change) any {
	switch r {
	case ResolveOnOff:
		if change.Value != 0 {
			return "on"
		}
		return "off"
	case ResolveActive:
		if change.Value != 0 {
			return "active"
		}
		return "inactive"
	case ResolveBool:
		return change.Value != 0
	case ResolveDialer:
		return resolveDialer(change)
	default:
		return change.Value
	}
}

// resolveDialer applies the dialer's per-control rules, keyed by the device
// control name so unmapped dialer controls still resolve sensibly.
func resolveDialer(change proto.Change) any {
	str := strings.ToLower(strings.TrimSpace(change.String))
	switch change.Name {
	case "call.dnd":
		if str == "on" || change.Value != 0 {
			return "on"
		}
		return "off"
	case "call.ringing":
		if str == "true" || change.Value != 0 {
			return "ringing"
		}
		return "idle"
	case "call.status":
		if change.String == "" {
			return "unknown"
		}
		return change.String
	case "call.connect", "call.disconnect":
		if change.Disabled {
			return "disabled"
		}
		return "enabled"
	}
	return strconv.FormatFloat(change.Value, 'g', -1, 64)
}
