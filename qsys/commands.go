package qsys

import (
	"fmt"
	"strings"

	"github.com/roomctl/qrcbridge/proto"
	"github.com/roomctl/qrcbridge/qrc"
)

// Command handlers shape one device request per verb and answer with a
// human-readable outcome. Validation failures never generate device traffic.

func (f *Feature) handleInputs(raw []byte, c *qrc.Client) (bool, string) {
	payload, errs := parseInputsPayload(raw)
	if len(errs) > 0 {
		return false, strings.Join(errs, "; ")
	}

	target := fmt.Sprintf("hdmi.out.1.select.hdmi.%d", payload.inputIndex())
	cmd := proto.ComponentSet(c.NextID(), inputSelector,
		[]proto.ControlValue{{Name: target, Value: 1, Ramp: 0}}, true)

	if err := c.Send(cmd); err != nil {
		return false, "failed to queue device command"
	}
	return true, fmt.Sprintf("successfully switched HDMI to %s", payload.Value)
}

func (f *Feature) handleLights(raw []byte, c *qrc.Client) (bool, string) {
	payload, errs := parseLightsPayload(raw)
	if len(errs) > 0 {
		return false, strings.Join(errs, "; ")
	}

	target := fmt.Sprintf("selector.%d", payload.selectorIndex())
	cmd := proto.ComponentSet(c.NextID(), lightsSelector,
		[]proto.ControlValue{{Name: target, Value: 1, Ramp: 0}}, true)

	if err := c.Send(cmd); err != nil {
		return false, "failed to queue device command"
	}
	return true, fmt.Sprintf("successfully sent lights %s command", payload.Value)
}

func (f *Feature) handleSystem(raw []byte, c *qrc.Client) (bool, string) {
	payload, errs := parseSnapshotPayload(raw)
	if len(errs) > 0 {
		return false, strings.Join(errs, "; ")
	}

	var cmd proto.Command
	if payload.Action == "load" {
		cmd = proto.SnapshotLoad(c.NextID(), payload.Name, *payload.Bank, payload.Ramp)
	} else {
		cmd = proto.SnapshotSave(c.NextID(), payload.Name, *payload.Bank)
	}

	if err := c.Send(cmd); err != nil {
		return false, "failed to queue device command"
	}
	return true, fmt.Sprintf("successfully sent snapshot %s command", payload.Action)
}

func (f *Feature) handleDialer(raw []byte, c *qrc.Client) (bool, string) {
	payload, errs := parseDialerPayload(raw)
	if len(errs) > 0 {
		return false, strings.Join(errs, "; ")
	}

	var control string
	var value float64 = 1
	var description string

	switch payload.Action {
	case "dial":
		control = pinpadControls[payload.Digit]
		description = fmt.Sprintf("sent dialer digit %s", payload.Digit)
	case "dnd":
		control = "call.dnd"
		if payload.State == "disable" {
			value = 0
		}
		description = fmt.Sprintf("DND %sd", payload.State)
	case "answer":
		control = "call.connect"
		description = "answered call"
	default: // disconnect
		control = "call.disconnect"
		description = "disconnected call"
	}

	cmd := proto.ComponentSet(c.NextID(), dialerSelector,
		[]proto.ControlValue{{Name: control, Value: value, Ramp: 0}}, true)

	if err := c.Send(cmd); err != nil {
		return false, "failed to queue device command"
	}
	return true, "successfully " + description
}
