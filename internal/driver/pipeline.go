package driver

// Stage describes a high-level analysis phase.
type Stage string

const (
	// StageLoadDevice is the device database load.
	StageLoadDevice Stage = "load-device"
	// StageLoadNetlist is the physical netlist load.
	StageLoadNetlist Stage = "load-netlist"
	// StageIndex is the cross-index construction.
	StageIndex Stage = "index"
	// StagePatch is the per-net route tree repair pass.
	StagePatch Stage = "patch"
	// StageDelay is the per-net delay propagation pass.
	StageDelay Stage = "delay"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusWorking indicates the stage is in progress.
	StatusWorking Status = "working"
	// StatusDone indicates the stage finished.
	StatusDone Status = "done"
	// StatusError indicates the stage failed.
	StatusError Status = "error"
)

// Event reports progress. For the per-net stages Done and Total carry the net
// counts; Net names the last net that finished.
type Event struct {
	Stage  Stage
	Status Status
	Net    string
	Done   int
	Total  int
	Err    error
}

// ProgressSink consumes progress events. Implementations must tolerate calls
// from several worker goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
