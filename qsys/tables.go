// Package qsys bridges the conference-room Q-SYS design to the downstream
// vocabulary: it validates client commands, shapes device requests, maintains
// the change group, and translates poll notifications into status documents.
package qsys

// Resolver selects how a component's raw change values map to client-facing
// semantic values.
type Resolver string

const (
	// ResolveOnOff maps a nonzero value to "on", zero to "off".
	ResolveOnOff Resolver = "on_off"
	// ResolveActive maps a nonzero value to "active", zero to "inactive".
	ResolveActive Resolver = "active"
	// ResolveBool maps a nonzero value to true, zero to false.
	ResolveBool Resolver = "bool"
	// ResolveDialer applies the dialer's per-control rules.
	ResolveDialer Resolver = "dialer"
	// ResolveRaw passes the numeric value through unchanged.
	ResolveRaw Resolver = "raw"
)

// Mapping translates one device component to its frontend name, control
// vocabulary and value-resolution rule.
type Mapping struct {
	Frontend string
	Controls map[string]string
	Resolver Resolver
}

// Device component names in the running design.
const (
	inputSelector  = "Input_Controller"
	shadesSelector = "Shades_Controller"
	lightsSelector = "Lighting_Controller"
	systemSelector = "System_Controller"
	dialerSelector = "Dialer_Controller"
)

// DefaultComponentMap returns the translation tables for the conference-room
// design. Components absent from the map are dropped silently, which keeps
// the gateway forward-compatible with design changes on the device.
func DefaultComponentMap() map[string]Mapping {
	return map[string]Mapping{
		inputSelector: {
			Frontend: "inputs",
			Resolver: ResolveActive,
			Controls: map[string]string{
				"hdmi.out.1.select.hdmi.1": "input.1",
				"hdmi.out.1.select.hdmi.2": "input.2",
				"hdmi.out.1.select.hdmi.3": "input.3",
			},
		},
		shadesSelector: {
			Frontend: "shades",
			Resolver: ResolveBool,
			Controls: map[string]string{
				"selector.0": "open",
				"selector.1": "close",
			},
		},
		lightsSelector: {
			Frontend: "lights",
			Resolver: ResolveOnOff,
			Controls: map[string]string{
				"selector.0": "lights.100",
				"selector.1": "lights.75",
				"selector.2": "lights.50",
				"selector.3": "lights.00",
			},
		},
		systemSelector: {
			Frontend: "system",
			Resolver: ResolveOnOff,
			Controls: map[string]string{
				"load.1": "preset.1",
				"load.2": "preset.2",
				"load.3": "preset.3",
				"load.4": "preset.4",
			},
		},
		dialerSelector: {
			Frontend: "dialer",
			Resolver: ResolveDialer,
			Controls: map[string]string{
				"call.dnd":        "dnd",
				"call.connect":    "connect",
				"call.disconnect": "disconnect",
				"call.ringing":    "ringing",
				"call.status":     "status",
			},
		},
	}
}

// ChangeGroupID is the stable server-side subscription id on the device.
const ChangeGroupID = "Conference_Change_Group"

// DefaultPollRate is the device-side poll interval in seconds.
const DefaultPollRate = 3

// GroupComponent is one component membership block of the change group.
type GroupComponent struct {
	Name     string
	Controls []string
}

// DefaultGroupComponents returns the static change-group membership.
func DefaultGroupComponents() []GroupComponent {
	return []GroupComponent{
		{
			Name: inputSelector,
			Controls: []string{
				"hdmi.out.1.select.hdmi.1",
				"hdmi.out.1.select.hdmi.2",
				"hdmi.out.1.select.hdmi.3",
			},
		},
		{
			Name:     shadesSelector,
			Controls: []string{"selector.0", "selector.1"},
		},
		{
			Name:     lightsSelector,
			Controls: []string{"selector.0", "selector.1", "selector.2", "selector.3"},
		},
		{
			Name:     systemSelector,
			Controls: []string{"load.1", "load.2", "load.3", "load.4"},
		},
		{
			Name: dialerSelector,
			Controls: []string{
				"call.dnd",
				"call.connect",
				"call.disconnect",
				"call.ringing",
				"call.status",
			},
		},
	}
}
