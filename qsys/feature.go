package qsys

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/roomctl/qrcbridge/gateway"
	"github.com/roomctl/qrcbridge/proto"
	"github.com/roomctl/qrcbridge/qrc"
)

// Notifier is the broadcast port the feature publishes device events through.
// *gateway.Gateway satisfies it.
type Notifier interface {
	Notify(topic string, event any)
}

// ChangeEvent is the asynchronous broadcast sent to every viewer of the topic.
type ChangeEvent struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Components Status `json:"components"`
}

// Feature wires the conference-room blueprint into a gateway topic and a
// device session: command dispatch downstream-in, change translation
// device-out, and the change-group lifecycle in between.
type Feature struct {
	topic    string
	notifier Notifier
	tables   map[string]Mapping
	groupID  string
	members  []GroupComponent
	pollRate int

	mu         sync.RWMutex
	lastStatus Status
}

// Option adjusts a Feature at construction time.
type Option func(*Feature)

// WithTopic overrides the downstream route path.
func WithTopic(path string) Option {
	return func(f *Feature) { f.topic = path }
}

// WithPollRate overrides the device-side poll interval in seconds.
func WithPollRate(rate int) Option {
	return func(f *Feature) { f.pollRate = rate }
}

// WithTables overrides the component translation tables.
func WithTables(tables map[string]Mapping) Option {
	return func(f *Feature) { f.tables = tables }
}

// New creates the feature publishing through n.
func New(n Notifier, opts ...Option) *Feature {
	f := &Feature{
		topic:    "/qsys",
		notifier: n,
		tables:   DefaultComponentMap(),
		groupID:  ChangeGroupID,
		members:  DefaultGroupComponents(),
		pollRate: DefaultPollRate,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Topic returns the downstream route path this feature serves.
func (f *Feature) Topic() string { return f.topic }

// Handle dispatches one downstream request to its command handler. It is the
// gateway.Handler for the feature's topic.
func (f *Feature) Handle(ctx context.Context, req gateway.Request, sessions []*qrc.Client) (bool, string) {
	command := strings.ToLower(req.Command)
	if len(sessions) == 0 {
		return false, "no upstream session available"
	}
	session := sessions[0]

	switch command {
	case "inputs":
		return f.handleInputs(req.Payload, session)
	case "lights":
		return f.handleLights(req.Payload, session)
	case "system":
		return f.handleSystem(req.Payload, session)
	case "dialer":
		return f.handleDialer(req.Payload, session)
	default:
		return false, "unknown command: " + command
	}
}

// RegisterChangeGroup (re)builds the device-side subscription: one
// AddComponentControl per membership block, then AutoPoll. Runs as the
// session's on-connect hook so every reconnection re-establishes the group.
func (f *Feature) RegisterChangeGroup(ctx context.Context, c *qrc.Client) error {
	for _, member := range f.members {
		cmd := proto.ChangeGroupAddComponentControl(c.NextID(), f.groupID, member.Name, member.Controls)
		if err := c.Send(cmd); err != nil {
			return fmt.Errorf("registering %s in change group: %w", member.Name, err)
		}
	}
	if err := c.Send(proto.ChangeGroupAutoPoll(c.NextID(), f.groupID, f.pollRate)); err != nil {
		return fmt.Errorf("enabling change group auto poll: %w", err)
	}
	slog.Info("Change group registered", "group", f.groupID, "components", len(f.members), "rate", f.pollRate)
	return nil
}

// InvalidateChangeGroup forces the next poll to report every control, so a
// newly joined viewer sees fresh values instead of a stale cached group. Runs
// as the session's viewer-joined hook.
func (f *Feature) InvalidateChangeGroup(ctx context.Context, c *qrc.Client) error {
	if err := c.Send(proto.ChangeGroupInvalidate(c.NextID(), f.groupID)); err != nil {
		return fmt.Errorf("invalidating change group: %w", err)
	}
	return nil
}

// HandlePoll translates one poll notification and broadcasts the result.
// Batches that map to nothing produce no broadcast.
func (f *Feature) HandlePoll(ctx context.Context, poll proto.Poll) {
	translated := Translate(poll.Changes, f.tables)
	if len(translated) == 0 {
		return
	}

	f.mu.Lock()
	if f.lastStatus == nil {
		f.lastStatus = make(Status)
	}
	for component, controls := range translated {
		if f.lastStatus[component] == nil {
			f.lastStatus[component] = make(map[string]any)
		}
		for name, value := range controls {
			f.lastStatus[component][name] = value
		}
	}
	f.mu.Unlock()

	f.notifier.Notify(f.topic, ChangeEvent{
		Type:       "change_group_update",
		ID:         poll.ID,
		Components: translated,
	})
}

// LastStatus returns a copy of the most recent accumulated status document.
func (f *Feature) LastStatus() Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(Status, len(f.lastStatus))
	for component, controls := range f.lastStatus {
		copied := make(map[string]any, len(controls))
		for name, value := range controls {
			copied[name] = value
		}
		out[component] = copied
	}
	return out
}
