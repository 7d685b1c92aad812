package proto

type snapshotParams struct {
	Name string  `json:"Name"`
	Bank int     `json:"Bank"`
	Ramp float64 `json:"Ramp,omitempty"`
}

// SnapshotLoad recalls a snapshot bank, optionally ramping over ramp seconds.
func SnapshotLoad(id int64, name string, bank int, ramp float64) Command {
	return Command{Method: "Snapshot.Load", ID: ref(id), Params: snapshotParams{Name: name, Bank: bank, Ramp: ramp}}
}

// SnapshotSave stores the current state into a snapshot bank.
func SnapshotSave(id int64, name string, bank int) Command {
	return Command{Method: "Snapshot.Save", ID: ref(id), Params: snapshotParams{Name: name, Bank: bank}}
}
