package proto

type changeGroupParams struct {
	ID string `json:"Id"`
}

type changeGroupControlsParams struct {
	ID       string   `json:"Id"`
	Controls []string `json:"Controls"`
}

type changeGroupComponent struct {
	Name     string        `json:"Name"`
	Controls []controlName `json:"Controls"`
}

type changeGroupComponentParams struct {
	ID        string               `json:"Id"`
	Component changeGroupComponent `json:"Component"`
}

type changeGroupAutoPollParams struct {
	ID   string `json:"Id"`
	Rate int    `json:"Rate"`
}

// ChangeGroupAddControl adds named controls to a change group.
func ChangeGroupAddControl(id int64, groupID string, controls ...string) Command {
	return Command{
		Method: "ChangeGroup.AddControl",
		ID:     ref(id),
		Params: changeGroupControlsParams{ID: groupID, Controls: controls},
	}
}

// ChangeGroupAddComponentControl adds one component's controls to a change group.
func ChangeGroupAddComponentControl(id int64, groupID, component string, controls []string) Command {
	return Command{
		Method: "ChangeGroup.AddComponentControl",
		ID:     ref(id),
		Params: changeGroupComponentParams{
			ID:        groupID,
			Component: changeGroupComponent{Name: component, Controls: controlNames(controls)},
		},
	}
}

// ChangeGroupAutoPoll asks the device to poll the group every rate seconds.
func ChangeGroupAutoPoll(id int64, groupID string, rate int) Command {
	return Command{
		Method: "ChangeGroup.AutoPoll",
		ID:     ref(id),
		Params: changeGroupAutoPollParams{ID: groupID, Rate: rate},
	}
}

// ChangeGroupClear removes all controls from a change group.
func ChangeGroupClear(id int64, groupID string) Command {
	return Command{Method: "ChangeGroup.Clear", ID: ref(id), Params: changeGroupParams{ID: groupID}}
}

// ChangeGroupDestroy deletes a change group on the device.
func ChangeGroupDestroy(id int64, groupID string) Command {
	return Command{Method: "ChangeGroup.Destroy", ID: ref(id), Params: changeGroupParams{ID: groupID}}
}

// ChangeGroupInvalidate forces every control in the group to be reported on
// the next poll, regardless of whether it changed.
func ChangeGroupInvalidate(id int64, groupID string) Command {
	return Command{Method: "ChangeGroup.Invalidate", ID: ref(id), Params: changeGroupParams{ID: groupID}}
}

// ChangeGroupPoll requests an immediate poll of the group.
func ChangeGroupPoll(id int64, groupID string) Command {
	return Command{Method: "ChangeGroup.Poll", ID: ref(id), Params: changeGroupParams{ID: groupID}}
}

// ChangeGroupRemove removes named controls from a change group.
func ChangeGroupRemove(id int64, groupID string, controls ...string) Command {
	return Command{
		Method: "ChangeGroup.Remove",
		ID:     ref(id),
		Params: changeGroupControlsParams{ID: groupID, Controls: controls},
	}
}
