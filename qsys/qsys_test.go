package qsys

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomctl/qrcbridge/conn"
	"github.com/roomctl/qrcbridge/gateway"
	"github.com/roomctl/qrcbridge/proto"
	"github.com/roomctl/qrcbridge/qrc"
)

// deviceStub satisfies qrc.Transport and records outbound frames.
type deviceStub struct {
	mu        sync.Mutex
	frames    [][]byte
	statusFns []conn.StatusFunc
}

func (d *deviceStub) Connect(ctx context.Context) { <-ctx.Done() }
func (d *deviceStub) Disconnect()                 {}
func (d *deviceStub) Delimiter() byte             { return 0x00 }
func (d *deviceStub) OnData(conn.DataFunc)        {}

func (d *deviceStub) OnStatus(fn conn.StatusFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statusFns = append(d.statusFns, fn)
}

func (d *deviceStub) Send(ctx context.Context, payload []byte, waitForResponse bool, timeout time.Duration) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, append([]byte(nil), payload...))
	return nil, nil
}

func (d *deviceStub) emitStatus(connected bool) {
	d.mu.Lock()
	fns := append([]conn.StatusFunc(nil), d.statusFns...)
	d.mu.Unlock()
	for _, fn := range fns {
		fn(connected)
	}
}

func (d *deviceStub) framesContaining(sub string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	for _, frame := range d.frames {
		if bytes.Contains(frame, []byte(sub)) {
			count++
		}
	}
	return count
}

func (d *deviceStub) waitForFrame(t *testing.T, sub string) []byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		d.mu.Lock()
		for _, frame := range d.frames {
			if bytes.Contains(frame, []byte(sub)) {
				d.mu.Unlock()
				return frame
			}
		}
		d.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no outbound frame containing %q", sub)
	return nil
}

// newTestSession returns a connected session whose queue drains into the stub.
func newTestSession(t *testing.T) (*qrc.Client, *deviceStub) {
	t.Helper()
	stub := &deviceStub{}
	session := qrc.New("test", stub, qrc.WithHeartbeatInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	go session.Run(ctx)
	t.Cleanup(cancel)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		stub.mu.Lock()
		registered := len(stub.statusFns) > 0
		stub.mu.Unlock()
		if registered {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	stub.emitStatus(true)
	return session, stub
}

// recordingNotifier captures broadcasts instead of writing to sockets.
type recordingNotifier struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (r *recordingNotifier) Notify(topic string, event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.events = append(r.events, event)
}

func request(command, payload string) gateway.Request {
	return gateway.Request{Command: command, Payload: json.RawMessage(payload)}
}

func TestTranslateDialerStatus(t *testing.T) {
	changes := []proto.Change{
		{Component: "Dialer_Controller", Name: "call.dnd", Value: 1, String: "on"},
		{Component: "Mystery_Component", Name: "whatever", Value: 1},
	}
	status := Translate(changes, DefaultComponentMap())
	assert.Equal(t, Status{"dialer": {"dnd": "on"}}, status, "unknown components must be dropped")
}

func TestTranslateResolvers(t *testing.T) {
	changes := []proto.Change{
		{Component: "Input_Controller", Name: "hdmi.out.1.select.hdmi.1", Value: 1},
		{Component: "Input_Controller", Name: "hdmi.out.1.select.hdmi.2", Value: 0},
		{Component: "Shades_Controller", Name: "selector.0", Value: 1},
		{Component: "Lighting_Controller", Name: "selector.2", Value: 0},
		{Component: "System_Controller", Name: "load.1", Value: 1},
	}
	status := Translate(changes, DefaultComponentMap())
	assert.Equal(t, Status{
		"inputs": {"input.1": "active", "input.2": "inactive"},
		"shades": {"open": true},
		"lights": {"lights.50": "off"},
		"system": {"preset.1": "on"},
	}, status)
}

func TestTranslateUnmappedControlPassesThrough(t *testing.T) {
	changes := []proto.Change{
		{Component: "Dialer_Controller", Name: "call.autoanswer", Value: 1},
	}
	status := Translate(changes, DefaultComponentMap())
	assert.Equal(t, Status{"dialer": {"call.autoanswer": "1"}}, status)
}

func TestTranslateEmptyBatch(t *testing.T) {
	assert.Empty(t, Translate(nil, DefaultComponentMap()))
}

func TestResolveDialerRules(t *testing.T) {
	cases := []struct {
		name   string
		change proto.Change
		want   any
	}{
		{"dnd on by string", proto.Change{Name: "call.dnd", String: "on"}, "on"},
		{"dnd on by value", proto.Change{Name: "call.dnd", Value: 1}, "on"},
		{"dnd off", proto.Change{Name: "call.dnd", Value: 0, String: "off"}, "off"},
		{"ringing", proto.Change{Name: "call.ringing", Value: 1}, "ringing"},
		{"idle", proto.Change{Name: "call.ringing", Value: 0}, "idle"},
		{"status text", proto.Change{Name: "call.status", String: "Dialing 555"}, "Dialing 555"},
		{"status empty", proto.Change{Name: "call.status"}, "unknown"},
		{"connect disabled", proto.Change{Name: "call.connect", Disabled: true}, "disabled"},
		{"disconnect enabled", proto.Change{Name: "call.disconnect"}, "enabled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, resolveDialer(tc.change))
		})
	}
}

func TestHandlePollBroadcastsAndAccumulates(t *testing.T) {
	rn := &recordingNotifier{}
	f := New(rn)
	ctx := context.Background()

	f.HandlePoll(ctx, proto.Poll{
		ID: ChangeGroupID,
		Changes: []proto.Change{
			{Component: "Dialer_Controller", Name: "call.dnd", Value: 1, String: "on"},
		},
	})
	f.HandlePoll(ctx, proto.Poll{
		ID: ChangeGroupID,
		Changes: []proto.Change{
			{Component: "Lighting_Controller", Name: "selector.0", Value: 1},
		},
	})

	rn.mu.Lock()
	require.Len(t, rn.events, 2)
	assert.Equal(t, []string{"/qsys", "/qsys"}, rn.topics)
	first, ok := rn.events[0].(ChangeEvent)
	require.True(t, ok)
	assert.Equal(t, "change_group_update", first.Type)
	assert.Equal(t, ChangeGroupID, first.ID)
	assert.Equal(t, Status{"dialer": {"dnd": "on"}}, first.Components)
	rn.mu.Unlock()

	assert.Equal(t, Status{
		"dialer": {"dnd": "on"},
		"lights": {"lights.100": "on"},
	}, f.LastStatus(), "status must accumulate across polls")
}

func TestHandlePollSuppressesEmptyTranslation(t *testing.T) {
	rn := &recordingNotifier{}
	f := New(rn)

	f.HandlePoll(context.Background(), proto.Poll{
		ID:      ChangeGroupID,
		Changes: []proto.Change{{Component: "Mystery_Component", Name: "x", Value: 1}},
	})

	rn.mu.Lock()
	defer rn.mu.Unlock()
	assert.Empty(t, rn.events, "a batch that maps to nothing must not broadcast")
}

func TestHandleInputsSwitchesHDMI(t *testing.T) {
	session, stub := newTestSession(t)
	f := New(&recordingNotifier{})

	ok, msg := f.Handle(context.Background(),
		request("inputs", `{"value":"input.2"}`), []*qrc.Client{session})
	assert.True(t, ok)
	assert.Equal(t, "successfully switched HDMI to input.2", msg)

	frame := stub.waitForFrame(t, "hdmi.out.1.select.hdmi.2")
	assert.Contains(t, string(frame), `"Component.Set"`)
	assert.Contains(t, string(frame), `"Input_Controller"`)
	assert.Contains(t, string(frame), `"ResponseValues":true`)
}

func TestHandleLights(t *testing.T) {
	session, stub := newTestSession(t)
	f := New(&recordingNotifier{})

	ok, msg := f.Handle(context.Background(),
		request("lights", `{"value":"lights.50"}`), []*qrc.Client{session})
	assert.True(t, ok)
	assert.Equal(t, "successfully sent lights lights.50 command", msg)

	frame := stub.waitForFrame(t, `"selector.2"`)
	assert.Contains(t, string(frame), `"Lighting_Controller"`)
}

func TestHandleSystemSnapshot(t *testing.T) {
	session, stub := newTestSession(t)
	f := New(&recordingNotifier{})
	sessions := []*qrc.Client{session}

	ok, msg := f.Handle(context.Background(),
		request("system", `{"action":"load","bank":2,"ramp":1.5}`), sessions)
	assert.True(t, ok)
	assert.Equal(t, "successfully sent snapshot load command", msg)
	frame := stub.waitForFrame(t, "Snapshot.Load")
	assert.Contains(t, string(frame), `"System_Controller"`)
	assert.Contains(t, string(frame), `"Bank":2`)

	ok, msg = f.Handle(context.Background(),
		request("system", `{"action":"save"}`), sessions)
	assert.False(t, ok)
	assert.Equal(t, "bank is required", msg)
}

func TestHandleDialer(t *testing.T) {
	session, stub := newTestSession(t)
	f := New(&recordingNotifier{})
	sessions := []*qrc.Client{session}
	ctx := context.Background()

	ok, msg := f.Handle(ctx, request("dialer", `{"action":"dial","digit":"5"}`), sessions)
	assert.True(t, ok)
	assert.Equal(t, "successfully sent dialer digit 5", msg)
	stub.waitForFrame(t, "call.pinpad.5")

	ok, msg = f.Handle(ctx, request("dialer", `{"action":"dnd","state":"disable"}`), sessions)
	assert.True(t, ok)
	assert.Equal(t, "successfully DND disabled", msg)
	frame := stub.waitForFrame(t, `"call.dnd"`)
	assert.Contains(t, string(frame), `"Value":0`)

	ok, msg = f.Handle(ctx, request("dialer", `{"action":"answer"}`), sessions)
	assert.True(t, ok)
	assert.Equal(t, "successfully answered call", msg)
	stub.waitForFrame(t, "call.connect")

	ok, msg = f.Handle(ctx, request("dialer", `{"action":"hangup"}`), sessions)
	assert.False(t, ok)
	assert.Equal(t, "action must be one of dial, answer, disconnect, dnd", msg)
}

func TestHandleValidationFailureSendsNoTraffic(t *testing.T) {
	session, stub := newTestSession(t)
	f := New(&recordingNotifier{})

	ok, msg := f.Handle(context.Background(),
		request("inputs", `{"value":"input.9"}`), []*qrc.Client{session})
	assert.False(t, ok)
	assert.Equal(t, "value must be one of input.1, input.2, input.3", msg)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, stub.framesContaining("Component.Set"), "invalid request must not reach the device")
}

func TestHandleUnknownCommand(t *testing.T) {
	session, stub := newTestSession(t)
	f := New(&recordingNotifier{})

	ok, msg := f.Handle(context.Background(),
		request("Reboot", `{}`), []*qrc.Client{session})
	assert.False(t, ok)
	assert.Equal(t, "unknown command: reboot", msg)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, stub.framesContaining("Component.Set"))
}

func TestHandleWithoutSessions(t *testing.T) {
	f := New(&recordingNotifier{})
	ok, msg := f.Handle(context.Background(), request("inputs", `{"value":"input.1"}`), nil)
	assert.False(t, ok)
	assert.Equal(t, "no upstream session available", msg)
}

func TestRegisterChangeGroup(t *testing.T) {
	session, stub := newTestSession(t)
	f := New(&recordingNotifier{})

	require.NoError(t, f.RegisterChangeGroup(context.Background(), session))

	stub.waitForFrame(t, "ChangeGroup.AutoPoll")
	assert.Equal(t, len(DefaultGroupComponents()), stub.framesContaining("ChangeGroup.AddComponentControl"))
	frame := stub.waitForFrame(t, `"Rate":3`)
	assert.Contains(t, string(frame), `"Conference_Change_Group"`)
}

func TestViewerJoinInvalidatesChangeGroup(t *testing.T) {
	session, stub := newTestSession(t)
	f := New(&recordingNotifier{})
	session.OnViewerJoined(f.InvalidateChangeGroup)

	session.ViewerJoined(context.Background())
	stub.waitForFrame(t, "ChangeGroup.Invalidate")
}
