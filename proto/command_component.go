package proto

// ControlValue is one control write in a Component.Set request.
type ControlValue struct {
	Name  string  `json:"Name"`
	Value float64 `json:"Value"`
	Ramp  float64 `json:"Ramp"`
}

type controlName struct {
	Name string `json:"Name"`
}

func controlNames(controls []string) []controlName {
	names := make([]controlName, 0, len(controls))
	for _, c := range controls {
		names = append(names, controlName{Name: c})
	}
	return names
}

type componentGetParams struct {
	Name     string        `json:"Name"`
	Controls []controlName `json:"Controls"`
}

// ComponentGet reads the current values of named controls on a component.
func ComponentGet(id int64, component string, controls ...string) Command {
	return Command{
		Method: "Component.Get",
		ID:     ref(id),
		Params: componentGetParams{Name: component, Controls: controlNames(controls)},
	}
}

// ComponentGetComponents lists all named components in the running design.
func ComponentGetComponents(id int64) Command {
	return Command{Method: "Component.GetComponents", ID: ref(id)}
}

// ComponentGetControls lists every control of one component.
func ComponentGetControls(id int64, component string) Command {
	return Command{
		Method: "Component.GetControls",
		ID:     ref(id),
		Params: struct {
			Name string `json:"Name"`
		}{component},
	}
}

type componentSetParams struct {
	Name           string         `json:"Name"`
	Controls       []ControlValue `json:"Controls"`
	ResponseValues bool           `json:"ResponseValues,omitempty"`
}

// ComponentSet writes control values on a component. With responseValues set
// the device echoes the resulting values in its reply.
func ComponentSet(id int64, component string, controls []ControlValue, responseValues bool) Command {
	return Command{
		Method: "Component.Set",
		ID:     ref(id),
		Params: componentSetParams{Name: component, Controls: controls, ResponseValues: responseValues},
	}
}
