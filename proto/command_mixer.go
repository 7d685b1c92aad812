package proto

import (
	"sort"
	"strconv"
	"strings"
)

type mixerCrossPointParams struct {
	Name    string  `json:"Name"`
	Inputs  string  `json:"Inputs"`
	Outputs string  `json:"Outputs"`
	Value   float64 `json:"Value"`
	Ramp    float64 `json:"Ramp,omitempty"`
}

// Channels formats a mixer channel selector string: consecutive channels
// collapse to ranges and exclusions follow a "!", e.g. "1-3 5" or "1-8 !4".
// An empty include slice selects every channel ("*").
func Channels(include []int, exclude []int) string {
	inc := "*"
	if len(include) > 0 {
		inc = formatChannelRuns(include)
	}
	if len(exclude) == 0 {
		return inc
	}
	return inc + " !" + formatChannelRuns(exclude)
}

func formatChannelRuns(values []int) string {
	vals := make([]int, 0, len(values))
	seen := make(map[int]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		vals = append(vals, v)
	}
	sort.Ints(vals)

	var parts []string
	for i := 0; i < len(vals); {
		j := i
		for j+1 < len(vals) && vals[j+1] == vals[j]+1 {
			j++
		}
		if i == j {
			parts = append(parts, strconv.Itoa(vals[i]))
		} else {
			parts = append(parts, strconv.Itoa(vals[i])+"-"+strconv.Itoa(vals[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, " ")
}

// MixerSetCrossPointGain sets the gain of the selected crosspoints, in dB.
func MixerSetCrossPointGain(id int64, name, inputs, outputs string, value, ramp float64) Command {
	return Command{
		Method: "Mixer.SetCrossPointGain",
		ID:     ref(id),
		Params: mixerCrossPointParams{Name: name, Inputs: inputs, Outputs: outputs, Value: value, Ramp: ramp},
	}
}

// MixerSetCrossPointMute mutes or unmutes the selected crosspoints.
func MixerSetCrossPointMute(id int64, name, inputs, outputs string, mute bool) Command {
	return Command{
		Method: "Mixer.SetCrossPointMute",
		ID:     ref(id),
		Params: mixerCrossPointParams{Name: name, Inputs: inputs, Outputs: outputs, Value: boolValue(mute)},
	}
}

type mixerInputParams struct {
	Name   string  `json:"Name"`
	Inputs string  `json:"Inputs"`
	Value  float64 `json:"Value"`
	Ramp   float64 `json:"Ramp,omitempty"`
}

type mixerOutputParams struct {
	Name    string  `json:"Name"`
	Outputs string  `json:"Outputs"`
	Value   float64 `json:"Value"`
	Ramp    float64 `json:"Ramp,omitempty"`
}

// MixerSetInputGain sets the gain of the selected input channels, in dB.
func MixerSetInputGain(id int64, name, inputs string, value, ramp float64) Command {
	return Command{
		Method: "Mixer.SetInputGain",
		ID:     ref(id),
		Params: mixerInputParams{Name: name, Inputs: inputs, Value: value, Ramp: ramp},
	}
}

// MixerSetInputMute mutes or unmutes the selected input channels.
func MixerSetInputMute(id int64, name, inputs string, mute bool) Command {
	return Command{
		Method: "Mixer.SetInputMute",
		ID:     ref(id),
		Params: mixerInputParams{Name: name, Inputs: inputs, Value: boolValue(mute)},
	}
}

// MixerSetOutputGain sets the gain of the selected output channels, in dB.
func MixerSetOutputGain(id int64, name, outputs string, value, ramp float64) Command {
	return Command{
		Method: "Mixer.SetOutputGain",
		ID:     ref(id),
		Params: mixerOutputParams{Name: name, Outputs: outputs, Value: value, Ramp: ramp},
	}
}

// MixerSetOutputMute mutes or unmutes the selected output channels.
func MixerSetOutputMute(id int64, name, outputs string, mute bool) Command {
	return Command{
		Method: "Mixer.SetOutputMute",
		ID:     ref(id),
		Params: mixerOutputParams{Name: name, Outputs: outputs, Value: boolValue(mute)},
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
