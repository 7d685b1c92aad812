package proto

// ControlGet reads named controls. Params are a bare array of control names.
func ControlGet(id int64, controls ...string) Command {
	return Command{Method: "Control.Get", ID: ref(id), Params: controls}
}

type controlSetParams struct {
	Name  string  `json:"Name"`
	Value any     `json:"Value"`
	Ramp  float64 `json:"Ramp,omitempty"`
}

// ControlSet writes one named control, optionally ramping over ramp seconds.
func ControlSet(id int64, name string, value any, ramp float64) Command {
	return Command{Method: "Control.Set", ID: ref(id), Params: controlSetParams{Name: name, Value: value, Ramp: ramp}}
}
