// Package driver orchestrates one analysis run: load both databases, build
// the cross indices, patch every net's route tree, then propagate delays.
// The two per-net passes run in parallel — nets never touch each other's
// trees and the indices are read-only, so workers share everything without
// locks and write only their own result slot.
package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"fpgasta/internal/device"
	"fpgasta/internal/interchange"
	"fpgasta/internal/observ"
	"fpgasta/internal/physnet"
	"fpgasta/internal/sta"
	"fpgasta/internal/xref"
)

// Options configures one analysis run.
type Options struct {
	DevicePath  string
	NetlistPath string
	Process     device.Process
	Corner      device.Corner
	// Jobs caps the per-net worker count; <= 0 uses GOMAXPROCS.
	Jobs     int
	Progress ProgressSink
	Timer    *observ.Timer
	Tracer   sta.Tracer
}

// NetResult is the outcome for one net. Err is set for nets whose route tree
// is malformed; Delay is nil in that case.
type NetResult struct {
	Name  string
	Type  physnet.NetType
	Delay *sta.NetDelay
	Err   error
}

// Result is the full outcome of a run.
type Result struct {
	Device  *device.Resources
	Netlist *physnet.Netlist
	Index   *xref.Index
	Nets    []NetResult
}

// Run executes the analysis. Per-net topology errors are recorded in the
// result and do not stop the run; structural database inconsistencies abort
// it with the offending net named.
func Run(ctx context.Context, opts Options) (*Result, error) {
	timer := opts.Timer
	if timer == nil {
		timer = observ.NewTimer()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = sta.Nop
	}

	phase := timer.Begin(string(StageLoadDevice))
	emit(opts.Progress, Event{Stage: StageLoadDevice, Status: StatusWorking})
	dev, err := interchange.ReadDevice(opts.DevicePath)
	if err != nil {
		emit(opts.Progress, Event{Stage: StageLoadDevice, Status: StatusError, Err: err})
		return nil, err
	}
	timer.End(phase, dev.Name)
	emit(opts.Progress, Event{Stage: StageLoadDevice, Status: StatusDone})

	phase = timer.Begin(string(StageLoadNetlist))
	emit(opts.Progress, Event{Stage: StageLoadNetlist, Status: StatusWorking})
	net, err := interchange.ReadNetlist(opts.NetlistPath)
	if err != nil {
		emit(opts.Progress, Event{Stage: StageLoadNetlist, Status: StatusError, Err: err})
		return nil, err
	}
	timer.End(phase, fmt.Sprintf("%d nets", len(net.Nets)))
	emit(opts.Progress, Event{Stage: StageLoadNetlist, Status: StatusDone})

	phase = timer.Begin(string(StageIndex))
	emit(opts.Progress, Event{Stage: StageIndex, Status: StatusWorking})
	idx, err := xref.Build(dev, net)
	if err != nil {
		emit(opts.Progress, Event{Stage: StageIndex, Status: StatusError, Err: err})
		return nil, err
	}
	timer.End(phase, "")
	emit(opts.Progress, Event{Stage: StageIndex, Status: StatusDone})

	res := &Result{
		Device:  dev,
		Netlist: net,
		Index:   idx,
		Nets:    make([]NetResult, len(net.Nets)),
	}
	for i := range net.Nets {
		res.Nets[i].Name = idx.NetString(net.Nets[i].Name)
		res.Nets[i].Type = net.Nets[i].Type
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if tracer.Enabled() {
		// Verbose tracing narrates the walks; interleaved workers would
		// scramble it.
		jobs = 1
	}

	phase = timer.Begin(string(StagePatch))
	if tracer.Enabled() {
		tracer.Tracef(0, "patching physical netlist")
	}
	err = forEachNet(ctx, StagePatch, jobs, opts.Progress, res, func(i int) error {
		return sta.Patch(idx, &net.Nets[i], tracer)
	})
	if err != nil {
		return nil, err
	}
	timer.End(phase, "")

	phase = timer.Begin(string(StageDelay))
	err = forEachNet(ctx, StageDelay, jobs, opts.Progress, res, func(i int) error {
		delay, err := sta.Propagate(idx, &net.Nets[i], opts.Process, opts.Corner, tracer)
		if err != nil {
			return err
		}
		res.Nets[i].Delay = delay
		return nil
	})
	if err != nil {
		return nil, err
	}
	timer.End(phase, "")
	return res, nil
}

// forEachNet runs fn over every net that is still healthy, in parallel.
// Topology errors land in the net's result slot; anything else cancels the
// group. Result slots are indexed per net, so no locking is needed.
func forEachNet(ctx context.Context, stage Stage, jobs int, sink ProgressSink,
	res *Result, fn func(i int) error) error {
	total := len(res.Nets)
	emit(sink, Event{Stage: stage, Status: StatusWorking, Total: total})
	if total == 0 {
		emit(sink, Event{Stage: stage, Status: StatusDone, Total: total})
		return nil
	}

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, total))
	for i := range res.Nets {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if res.Nets[i].Err == nil {
				if err := fn(i); err != nil {
					var topo *sta.TopologyError
					if errors.As(err, &topo) {
						res.Nets[i].Err = err
					} else {
						return fmt.Errorf("net %s: %w", res.Nets[i].Name, err)
					}
				}
			}
			n := int(done.Add(1))
			emit(sink, Event{Stage: stage, Status: StatusWorking, Net: res.Nets[i].Name, Done: n, Total: total})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		emit(sink, Event{Stage: stage, Status: StatusError, Err: err, Total: total})
		return err
	}
	emit(sink, Event{Stage: stage, Status: StatusDone, Done: total, Total: total})
	return nil
}
