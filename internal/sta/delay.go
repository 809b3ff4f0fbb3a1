package sta

import (
	"fpgasta/internal/device"
	"fpgasta/internal/physnet"
	"fpgasta/internal/strtab"
	"fpgasta/internal/xref"
)

// Sink is one reached net end. Site, Bel and Pin are device-space IDs so they
// key directly into the reporting maps; Bel is NoID when the path ended on a
// site pin. Delay is the full source-to-sink Elmore delay in seconds.
type Sink struct {
	Site  strtab.ID
	Bel   strtab.ID
	Pin   strtab.ID
	Delay float64
}

// SourceDelay lists every sink reached from one top-level source.
type SourceDelay struct {
	Root  physnet.Segment
	Sinks []Sink
}

// NetDelay is the propagation result for one net: the worst source-to-sink
// delay plus the full per-source sink table.
type NetDelay struct {
	Max     float64
	Sources []SourceDelay
}

// delayFrame carries the walk state into one vertex: the accumulated driving
// resistance, the delay accumulated so far, and whether the path is still
// inside a site (the first pip crossing then charges the entry node's RC).
type delayFrame struct {
	id     physnet.NodeID
	r      float64
	d      float64
	inSite bool
	depth  int
}

// Propagate computes the delay from every source of net to every reachable
// sink at the given corner. The tree must already be patched; Propagate never
// mutates it.
func Propagate(x *xref.Index, net *physnet.Net, proc device.Process, corner device.Corner, tr Tracer) (*NetDelay, error) {
	tree := net.Tree
	result := &NetDelay{}
	if tree == nil {
		return result, nil
	}
	netName := x.NetString(net.Name)

	for _, root := range tree.Roots {
		rootNode := tree.Node(root)
		seg := rootNode.Seg
		var launch float64
		var inSite bool
		switch seg.Kind {
		case physnet.SegBelPin:
			// A registered source launches with its clock-to-out arc.
			if arcs, ok := x.CellDelays[xref.SiteBelKey{Site: seg.Site, Bel: seg.Bel}]; ok {
				var err error
				launch, err = largestArcDelay(x, arcs, device.DelayClk2Q, seg, false, proc, corner)
				if err != nil {
					return nil, err
				}
			}
			inSite = true
		case physnet.SegPip:
			inSite = false
		default:
			return nil, topoErrf(netName, "source segment kind %s is not a valid tree root", seg.Kind)
		}

		var sinks []Sink
		// Reverse push keeps sink order matching the branch order.
		stack := make([]delayFrame, 0, len(rootNode.Branches))
		for i := len(rootNode.Branches) - 1; i >= 0; i-- {
			stack = append(stack, delayFrame{id: rootNode.Branches[i], r: 0, d: launch, inSite: inSite, depth: 1})
		}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if err := propagateVertex(x, tree, netName, f, proc, corner, tr, &stack, &sinks); err != nil {
				return nil, err
			}
		}
		for _, s := range sinks {
			result.Max = max(result.Max, s.Delay)
		}
		result.Sources = append(result.Sources, SourceDelay{Root: seg, Sinks: sinks})
	}
	return result, nil
}

// propagateVertex charges one vertex's delay contribution and either records
// a sink or pushes the vertex's branches with the updated state.
func propagateVertex(x *xref.Index, tree *physnet.RouteTree, netName string, f delayFrame,
	proc device.Process, corner device.Corner, tr Tracer, stack *[]delayFrame, sinks *[]Sink) error {
	n := tree.Node(f.id)
	seg := n.Seg
	last := len(n.Branches) == 0
	r, d, inSite := f.r, f.d, f.inSite
	var temp float64

	switch seg.Kind {
	case physnet.SegBelPin:
		if arcs, ok := x.CellDelays[xref.SiteBelKey{Site: seg.Site, Bel: seg.Bel}]; ok {
			class := device.DelayComb
			if last {
				class = device.DelaySetup
			}
			var err error
			temp, err = largestArcDelay(x, arcs, class, seg, true, proc, corner)
			if err != nil {
				return err
			}
		}

	case physnet.SegSitePin:
		stIdx, ok := x.SiteTypeOf[seg.Site]
		if !ok {
			return xref.Errorf("no site type for site instance %s", x.NetString(seg.Site))
		}
		devPin, ok := x.Cross.NetToDev(seg.Pin)
		if !ok {
			return xref.Errorf("site pin %s is unknown to the device", x.NetString(seg.Pin))
		}
		if sp, ok := x.SitePinAt[xref.SitePinKey{SiteType: stIdx, Pin: devPin}]; ok {
			switch sp.Dir {
			case device.DirOutput:
				r += sp.Model.Value(proc, corner)
			case device.DirInput:
				temp = r * sp.Model.Value(proc, corner)
			default:
				return topoErrf(netName, "site pin %s has direction %s",
					x.NetString(seg.Pin), sp.Dir)
			}
			temp += sp.Delay.Value(proc, corner)
		}
		inSite = true

	case physnet.SegPip:
		var err error
		r, temp, inSite, err = crossPip(x, seg, r, inSite, proc, corner)
		if err != nil {
			return err
		}

	case physnet.SegSitePIP:
		stIdx, ok := x.SiteTypeOf[seg.Site]
		if !ok {
			return xref.Errorf("no site type for site instance %s", x.NetString(seg.Site))
		}
		devBel, ok := x.Cross.NetToDev(seg.Bel)
		if !ok {
			return xref.Errorf("bel %s is unknown to the device", x.NetString(seg.Bel))
		}
		devPin, ok := x.Cross.NetToDev(seg.Pin)
		if !ok {
			return xref.Errorf("bel pin %s is unknown to the device", x.NetString(seg.Pin))
		}
		bpIdx, ok := x.BelPinIndex[xref.BelPinKey{SiteType: stIdx, Bel: devBel, Pin: devPin}]
		if !ok {
			return xref.Errorf("no bel pin (%s, %s, %s) in site type %s",
				x.NetString(seg.Site), x.NetString(seg.Bel), x.NetString(seg.Pin),
				x.DevString(x.Dev.SiteTypes[stIdx].Name))
		}
		if m, ok := x.SitePIPDelay[xref.SitePIPKey{SiteType: stIdx, Pin: bpIdx}]; ok {
			temp = m.Value(proc, corner)
		}

	default:
		return topoErrf(netName, "unknown route segment kind %d", seg.Kind)
	}

	if last {
		if seg.Kind == physnet.SegPip {
			return topoErrf(netName, "pip segment cannot terminate a path")
		}
		sink := Sink{Site: devID(x, seg.Site), Bel: strtab.NoID, Pin: devID(x, seg.Pin), Delay: d + temp}
		if seg.Kind != physnet.SegSitePin {
			sink.Bel = devID(x, seg.Bel)
		}
		if tr.Enabled() {
			tr.Tracef(f.depth, "end %s %s %s: %g s",
				x.NetString(seg.Site), x.NetString(seg.Bel), x.NetString(seg.Pin), sink.Delay)
		}
		*sinks = append(*sinks, sink)
		return nil
	}
	for i := len(n.Branches) - 1; i >= 0; i-- {
		*stack = append(*stack, delayFrame{id: n.Branches[i], r: r, d: d + temp, inSite: inSite, depth: f.depth + 1})
	}
	return nil
}

// crossPip charges one pip crossing: the entry node when leaving a site, the
// parasitic loading of every sibling pip on both wires, the pip's own RC
// terms, and the exit node. It returns the updated resistance, the delay
// contribution and the in-site flag.
func crossPip(x *xref.Index, seg physnet.Segment, r float64, inSite bool,
	proc device.Process, corner device.Corner) (float64, float64, bool, error) {
	devTile, ok := x.Cross.NetToDev(seg.Tile)
	if !ok {
		return 0, 0, false, xref.Errorf("tile %s is unknown to the device", x.NetString(seg.Tile))
	}
	ttIdx, ok := x.TileTypeOf[devTile]
	if !ok {
		return 0, 0, false, xref.Errorf("no tile type for tile %s", x.NetString(seg.Tile))
	}
	w0, ok := x.Cross.NetToDev(seg.Wire0)
	if !ok {
		return 0, 0, false, xref.Errorf("wire %s is unknown to the device", x.NetString(seg.Wire0))
	}
	w1, ok := x.Cross.NetToDev(seg.Wire1)
	if !ok {
		return 0, 0, false, xref.Errorf("wire %s is unknown to the device", x.NetString(seg.Wire1))
	}
	pip, ok := x.PipAt[xref.PipKey{TileType: ttIdx, Wire0: w0, Wire1: w1}]
	if !ok {
		// Route segments may name the endpoints in either order.
		pip, ok = x.PipAt[xref.PipKey{TileType: ttIdx, Wire0: w1, Wire1: w0}]
		if !ok {
			return 0, 0, false, xref.Errorf("no pip (%s, %s, %s)",
				x.NetString(seg.Tile), x.NetString(seg.Wire0), x.NetString(seg.Wire1))
		}
	}
	if !pip.Directional && !seg.Forward {
		w0, w1 = w1, w0
	}

	var temp float64
	entryNode, ok := x.NodeOf[xref.TileWireKey{Tile: devTile, Wire: w0}]
	if !ok {
		return 0, 0, false, xref.Errorf("no node for wire (%s, %s)",
			x.DevString(devTile), x.DevString(w0))
	}
	if inSite {
		inSite = false
		var err error
		r, temp, err = chargeNode(x, entryNode, r, temp, proc, corner)
		if err != nil {
			return 0, 0, false, err
		}
	}

	if len(x.Dev.PipTimings) > 0 {
		load, err := sharedWireLoading(x, ttIdx, devTile, w0, r, proc, corner)
		if err != nil {
			return 0, 0, false, err
		}
		temp += load
		if int(pip.Timing) >= len(x.Dev.PipTimings) {
			return 0, 0, false, xref.Errorf("pip timing %d past the timing list", pip.Timing)
		}
		pt := &x.Dev.PipTimings[pip.Timing]
		buffered := (pip.Directional || seg.Forward) && pip.Buffered21 ||
			!seg.Forward && !pip.Directional && pip.Buffered20
		if buffered {
			temp += r * pt.InternalCapacitance.Value(proc, corner)
		}
		temp += pt.InternalDelay.Value(proc, corner)
		if buffered {
			// A buffered pip redrives the net: downstream sees only its
			// output resistance.
			r = pt.OutputResistance.Value(proc, corner)
		} else {
			r += pt.OutputResistance.Value(proc, corner)
		}
		temp += pt.OutputCapacitance.Value(proc, corner) * r * 0.5
		load, err = sharedWireLoading(x, ttIdx, devTile, w1, r, proc, corner)
		if err != nil {
			return 0, 0, false, err
		}
		temp += load
	}

	exitNode, ok := x.NodeOf[xref.TileWireKey{Tile: devTile, Wire: w1}]
	if !ok {
		return 0, 0, false, xref.Errorf("no node for wire (%s, %s)",
			x.DevString(devTile), x.DevString(w1))
	}
	var err error
	r, temp, err = chargeNode(x, exitNode, r, temp, proc, corner)
	if err != nil {
		return 0, 0, false, err
	}
	return r, temp, inSite, nil
}

// sharedWireLoading sums the half-RC charge of every pip presenting its input
// capacitance to the given wire, active or not.
func sharedWireLoading(x *xref.Index, ttIdx uint32, tile, wire strtab.ID, r float64,
	proc device.Process, corner device.Corner) (float64, error) {
	refs, ok := x.WirePips[xref.TypeWireKey{TileType: ttIdx, Wire: wire}]
	if !ok {
		return 0, xref.Errorf("no wire %s in tile %s", x.DevString(wire), x.DevString(tile))
	}
	var d float64
	for _, ref := range refs {
		if !ref.OnWire0 {
			continue
		}
		if int(ref.Pip.Timing) >= len(x.Dev.PipTimings) {
			return 0, xref.Errorf("pip timing %d past the timing list", ref.Pip.Timing)
		}
		pt := &x.Dev.PipTimings[ref.Pip.Timing]
		d += pt.InputCapacitance.Value(proc, corner) * r * 0.5
	}
	return d, nil
}

// chargeNode adds a node's own RC to the walk state: its resistance joins the
// driving resistance and its capacitance is charged through it. Devices
// without node timing models skip the contribution entirely.
func chargeNode(x *xref.Index, nodeIdx uint32, r, d float64,
	proc device.Process, corner device.Corner) (float64, float64, error) {
	if len(x.Dev.NodeTimings) == 0 {
		return r, d, nil
	}
	node := x.Dev.Nodes[nodeIdx]
	if int(node.Timing) >= len(x.Dev.NodeTimings) {
		return 0, 0, xref.Errorf("node timing %d past the timing list", node.Timing)
	}
	nt := x.Dev.NodeTimings[node.Timing]
	r += nt.Resistance.Value(proc, corner)
	d += r * nt.Capacitance.Value(proc, corner) * 0.5
	return r, d, nil
}

// largestArcDelay picks the worst matching arc for one bel pin: the arc's
// declared pin role (first pin for comb and setup, second for clock-to-out)
// must resolve to this segment's bel pin index, and the arc class must match.
func largestArcDelay(x *xref.Index, arcs []device.PinDelay, class device.DelayClass,
	seg physnet.Segment, firstPin bool, proc device.Process, corner device.Corner) (float64, error) {
	if len(arcs) == 0 {
		return 0, nil
	}
	stIdx, ok := x.SiteTypeOf[seg.Site]
	if !ok {
		return 0, xref.Errorf("no site type for site instance %s", x.NetString(seg.Site))
	}
	devBel, ok := x.Cross.NetToDev(seg.Bel)
	if !ok {
		return 0, xref.Errorf("bel %s is unknown to the device", x.NetString(seg.Bel))
	}
	devPin, ok := x.Cross.NetToDev(seg.Pin)
	if !ok {
		return 0, xref.Errorf("bel pin %s is unknown to the device", x.NetString(seg.Pin))
	}
	bpIdx, ok := x.BelPinIndex[xref.BelPinKey{SiteType: stIdx, Bel: devBel, Pin: devPin}]
	if !ok {
		return 0, xref.Errorf("no bel pin (%s, %s, %s) in site type %s",
			x.NetString(seg.Site), x.NetString(seg.Bel), x.NetString(seg.Pin),
			x.DevString(x.Dev.SiteTypes[stIdx].Name))
	}
	var best float64
	for _, arc := range arcs {
		pin := arc.FirstPin
		if !firstPin {
			pin = arc.SecondPin
		}
		if pin == bpIdx && arc.Class == class {
			best = max(best, arc.Model.Value(proc, corner))
		}
	}
	return best, nil
}

func devID(x *xref.Index, id strtab.ID) strtab.ID {
	if id == strtab.NoID {
		return strtab.NoID
	}
	if dev, ok := x.Cross.NetToDev(id); ok {
		return dev
	}
	return strtab.NoID
}
