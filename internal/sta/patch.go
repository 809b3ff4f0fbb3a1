package sta

import (
	"slices"

	"fpgasta/internal/device"
	"fpgasta/internal/physnet"
	"fpgasta/internal/strtab"
	"fpgasta/internal/xref"
)

// belPinName identifies one bel pin in netlist space.
type belPinName struct {
	site strtab.ID
	bel  strtab.ID
	pin  strtab.ID
}

// endRec is a terminal found during patching, together with its tree vertex.
type endRec struct {
	node   physnet.NodeID
	source int
	name   belPinName
}

// srcRec is one top-level source. hasName is set only for bel-pin sources;
// pip sources carry no (site, bel, pin) identity and never take part in the
// pseudo-site-PIP merge.
type srcRec struct {
	root    physnet.NodeID
	hasName bool
	name    belPinName
}

// Patch repairs net's route tree in place. Every bel pin the placement
// declares live on a site wire an output bel pin drives is added as a
// synthetic branch, and nets split into several source trees by a bel acting
// as a pseudo site PIP are merged back into one tree. Patch must run exactly
// once per net, before delay propagation.
func Patch(x *xref.Index, net *physnet.Net, tr Tracer) error {
	tree := net.Tree
	if tree == nil {
		return nil
	}
	netName := x.NetString(net.Name)
	if tr.Enabled() {
		tr.Tracef(0, "%s", netName)
	}

	sources := make([]srcRec, 0, len(tree.Roots))
	var ends []endRec
	for i, root := range tree.Roots {
		seg := tree.Node(root).Seg
		switch seg.Kind {
		case physnet.SegBelPin:
			sources = append(sources, srcRec{
				root:    root,
				hasName: true,
				name:    belPinName{site: seg.Site, bel: seg.Bel, pin: seg.Pin},
			})
			if err := patchWalk(x, net, tree, root, i, true, tr, &ends); err != nil {
				return err
			}
		case physnet.SegPip:
			sources = append(sources, srcRec{root: root})
			if err := patchWalk(x, net, tree, root, i, false, tr, &ends); err != nil {
				return err
			}
		default:
			return topoErrf(netName, "source segment kind %s is not a valid tree root", seg.Kind)
		}
	}

	if len(tree.Roots) > 1 {
		mergePseudoSitePIPs(tree, sources, ends, tr)
	}
	return nil
}

type patchFrame struct {
	id    physnet.NodeID
	start bool
	depth int
}

// patchWalk runs the pre-order repair pass over one source tree. rootIsPin
// marks a bel-pin root: its vertex counts as "first visited" and is never a
// terminal end, matching how pip roots are walked as ordinary vertices.
func patchWalk(x *xref.Index, net *physnet.Net, tree *physnet.RouteTree,
	root physnet.NodeID, source int, rootIsPin bool, tr Tracer, ends *[]endRec) error {
	netName := x.NetString(net.Name)
	stack := []patchFrame{{id: root, start: rootIsPin, depth: 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		seg := tree.Node(f.id).Seg
		switch seg.Kind {
		case physnet.SegBelPin:
			if err := addSyntheticBranches(x, tree, f, tr); err != nil {
				return err
			}
		case physnet.SegSitePin, physnet.SegPip, physnet.SegSitePIP:
		default:
			return topoErrf(netName, "unknown route segment kind %d", seg.Kind)
		}

		branches := tree.Node(f.id).Branches
		if len(branches) == 0 {
			if f.start {
				continue
			}
			switch seg.Kind {
			case physnet.SegBelPin, physnet.SegSitePIP:
				*ends = append(*ends, endRec{
					node:   f.id,
					source: source,
					name:   belPinName{site: seg.Site, bel: seg.Bel, pin: seg.Pin},
				})
			case physnet.SegSitePin:
				// A dangling site pin ends the path; without a bel identity
				// it never takes part in a pseudo-site-PIP merge.
			default:
				return topoErrf(netName, "%s segment cannot terminate a path", seg.Kind)
			}
			continue
		}
		for i := len(branches) - 1; i >= 0; i-- {
			stack = append(stack, patchFrame{id: branches[i], depth: f.depth + 1})
		}
	}
	return nil
}

// addSyntheticBranches appends a branch for every placement-live bel pin
// sharing the vertex's site wire that the route tree does not already list.
// Input-only pins drive nothing and are skipped.
func addSyntheticBranches(x *xref.Index, tree *physnet.RouteTree, f patchFrame, tr Tracer) error {
	seg := tree.Node(f.id).Seg
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
	dir := x.Dev.SiteTypes[stIdx].BelPins[bpIdx].Dir
	if dir == device.DirInput || dir == device.DirInout {
		return nil
	}

	found, err := connectedLiveBels(x, seg.Site, stIdx, bpIdx)
	if err != nil {
		return err
	}
	self := belPinName{site: seg.Site, bel: seg.Bel, pin: seg.Pin}
	found = slices.DeleteFunc(found, func(b belPinName) bool { return b == self })
	for _, branchID := range tree.Node(f.id).Branches {
		bseg := tree.Node(branchID).Seg
		if bseg.Kind != physnet.SegBelPin {
			continue
		}
		present := belPinName{site: bseg.Site, bel: bseg.Bel, pin: bseg.Pin}
		found = slices.DeleteFunc(found, func(b belPinName) bool { return b == present })
	}

	if tr.Enabled() {
		tr.Tracef(f.depth, "exploring %s %s %s",
			x.NetString(seg.Site), x.NetString(seg.Bel), x.NetString(seg.Pin))
		if len(found) > 0 {
			tr.Tracef(f.depth, "found bels:")
		}
		for _, b := range found {
			tr.Tracef(f.depth+1, "%s %s %s",
				x.NetString(b.site), x.NetString(b.bel), x.NetString(b.pin))
		}
	}
	for _, b := range found {
		child := tree.NewNode(physnet.BelPinSeg(b.site, b.bel, b.pin))
		tree.AddBranch(f.id, child)
	}
	return nil
}

// connectedLiveBels lists, in site-wire pin order, every placement-live bel
// pin on the site wire of (stIdx, bpIdx). Results are netlist-space.
func connectedLiveBels(x *xref.Index, site strtab.ID, stIdx, bpIdx uint32) ([]belPinName, error) {
	wireIdx, ok := x.SiteWireOf[xref.BelPinRef{SiteType: stIdx, BelPin: bpIdx}]
	if !ok {
		return nil, xref.Errorf("bel pin %d of site type %s is on no site wire",
			bpIdx, x.DevString(x.Dev.SiteTypes[stIdx].Name))
	}
	st := &x.Dev.SiteTypes[stIdx]
	var found []belPinName
	for _, pin := range st.SiteWires[wireIdx].Pins {
		bp := st.BelPins[pin]
		if _, live := x.PlacementLive[xref.LiveKey{Site: site, Bel: bp.Bel, Pin: bp.Name}]; !live {
			continue
		}
		netBel, ok := x.Cross.DevToNet(bp.Bel)
		if !ok {
			continue
		}
		netPin, ok := x.Cross.DevToNet(bp.Name)
		if !ok {
			continue
		}
		found = append(found, belPinName{site: site, bel: netBel, pin: netPin})
	}
	return found, nil
}

// mergePseudoSitePIPs reparents source trees that a router split across a
// bel-internal pass-through. A sink whose (site, bel) matches another
// source's (site, bel) on a different pin marks such a split: the source tree
// continues electrically from the sink, so its root becomes a branch of the
// sink vertex and leaves the top-level list. Sources with no matching sink
// stay top-level (a net with several true drivers is a constant network).
func mergePseudoSitePIPs(tree *physnet.RouteTree, sources []srcRec, ends []endRec, tr Tracer) {
	if tr.Enabled() {
		tr.Tracef(1, "searching for pseudo sitePIPs")
	}
	consumed := make([]bool, len(sources))
	for _, sink := range ends {
		for i, src := range sources {
			if consumed[i] || i == sink.source || !src.hasName {
				continue
			}
			if src.name.site == sink.name.site && src.name.bel == sink.name.bel &&
				src.name.pin != sink.name.pin {
				tree.AddBranch(sink.node, src.root)
				consumed[i] = true
			}
		}
	}
	roots := tree.Roots[:0]
	for i, src := range sources {
		if !consumed[i] {
			roots = append(roots, src.root)
		}
	}
	tree.Roots = roots
}
