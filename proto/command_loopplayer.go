package proto

// LoopFile is one audio file entry in a LoopPlayer.Start request.
type LoopFile struct {
	Name   string `json:"Name"`
	Mode   string `json:"Mode,omitempty"`
	Output int    `json:"Output,omitempty"`
}

type loopPlayerStartParams struct {
	Name      string     `json:"Name"`
	StartTime float64    `json:"StartTime"`
	Files     []LoopFile `json:"Files"`
	Loop      bool       `json:"Loop"`
	Log       bool       `json:"Log"`
	RefID     string     `json:"RefID,omitempty"`
	Seek      float64    `json:"Seek,omitempty"`
}

type loopPlayerOutputsParams struct {
	Name    string `json:"Name"`
	Outputs []int  `json:"Outputs"`
	Log     bool   `json:"Log"`
}

// LoopPlayerStart schedules playback of files on a loop player component.
func LoopPlayerStart(id int64, name string, startTime float64, files []LoopFile, loop bool) Command {
	return Command{
		Method: "LoopPlayer.Start",
		ID:     ref(id),
		Params: loopPlayerStartParams{Name: name, StartTime: startTime, Files: files, Loop: loop, Log: true},
	}
}

// LoopPlayerStop stops playback on the given outputs.
func LoopPlayerStop(id int64, name string, outputs []int) Command {
	return Command{
		Method: "LoopPlayer.Stop",
		ID:     ref(id),
		Params: loopPlayerOutputsParams{Name: name, Outputs: outputs, Log: true},
	}
}

// LoopPlayerCancel cancels a pending scheduled start on the given outputs.
func LoopPlayerCancel(id int64, name string, outputs []int) Command {
	return Command{
		Method: "LoopPlayer.Cancel",
		ID:     ref(id),
		Params: loopPlayerOutputsParams{Name: name, Outputs: outputs, Log: true},
	}
}
