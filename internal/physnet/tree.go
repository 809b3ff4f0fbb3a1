package physnet

import "fpgasta/internal/strtab"

// SegmentKind discriminates the four route segment variants.
type SegmentKind uint8

const (
	// SegInvalid is the zero value; it never appears in a well-formed tree.
	SegInvalid SegmentKind = iota
	SegBelPin
	SegSitePin
	SegPip
	SegSitePIP
)

func (k SegmentKind) String() string {
	switch k {
	case SegBelPin:
		return "belPin"
	case SegSitePin:
		return "sitePin"
	case SegPip:
		return "pip"
	case SegSitePIP:
		return "sitePIP"
	default:
		return "invalid"
	}
}

// Segment is a kind-tagged route segment. Which fields are meaningful depends
// on Kind:
//
//	SegBelPin:  Site, Bel, Pin
//	SegSitePin: Site, Pin
//	SegPip:     Tile, Wire0, Wire1, Forward
//	SegSitePIP: Site, Bel, Pin
//
// All IDs are netlist-space. Build segments with the constructors below so
// unused fields stay at NoID.
type Segment struct {
	Kind    SegmentKind
	Site    strtab.ID
	Bel     strtab.ID
	Pin     strtab.ID
	Tile    strtab.ID
	Wire0   strtab.ID
	Wire1   strtab.ID
	Forward bool
}

// BelPinSeg builds a bel-pin segment.
func BelPinSeg(site, bel, pin strtab.ID) Segment {
	return Segment{Kind: SegBelPin, Site: site, Bel: bel, Pin: pin,
		Tile: strtab.NoID, Wire0: strtab.NoID, Wire1: strtab.NoID}
}

// SitePinSeg builds a site-pin segment.
func SitePinSeg(site, pin strtab.ID) Segment {
	return Segment{Kind: SegSitePin, Site: site, Bel: strtab.NoID, Pin: pin,
		Tile: strtab.NoID, Wire0: strtab.NoID, Wire1: strtab.NoID}
}

// PipSeg builds a pip segment. Forward records the traversal direction the
// router chose; it matters only for non-directional pips.
func PipSeg(tile, wire0, wire1 strtab.ID, forward bool) Segment {
	return Segment{Kind: SegPip, Site: strtab.NoID, Bel: strtab.NoID, Pin: strtab.NoID,
		Tile: tile, Wire0: wire0, Wire1: wire1, Forward: forward}
}

// SitePIPSeg builds a site-PIP segment identified by its input bel pin.
func SitePIPSeg(site, bel, pin strtab.ID) Segment {
	return Segment{Kind: SegSitePIP, Site: site, Bel: bel, Pin: pin,
		Tile: strtab.NoID, Wire0: strtab.NoID, Wire1: strtab.NoID}
}

// NodeID addresses one vertex of a RouteTree arena.
type NodeID uint32

// TreeNode is one route-tree vertex: a segment plus the IDs of its branches.
type TreeNode struct {
	Seg      Segment
	Branches []NodeID
}

// RouteTree is an arena of tree vertices. Branch lists and the root list hold
// arena indices, so reparenting a subtree is an index edit and never moves a
// vertex. Every vertex has at most one parent; the patcher maintains that
// invariant when it merges source trees.
type RouteTree struct {
	Nodes []TreeNode
	Roots []NodeID
}

// NewRouteTree returns an empty tree.
func NewRouteTree() *RouteTree {
	return &RouteTree{}
}

// NewNode appends a vertex carrying seg and returns its ID. The vertex starts
// with no branches and no parent; attach it with AddBranch or AddRoot.
func (t *RouteTree) NewNode(seg Segment) NodeID {
	t.Nodes = append(t.Nodes, TreeNode{Seg: seg})
	return NodeID(len(t.Nodes) - 1)
}

// Node returns the vertex for id. The pointer stays valid until the next
// NewNode call.
func (t *RouteTree) Node(id NodeID) *TreeNode {
	return &t.Nodes[id]
}

// AddBranch attaches child as the last branch of parent.
func (t *RouteTree) AddBranch(parent, child NodeID) {
	n := &t.Nodes[parent]
	n.Branches = append(n.Branches, child)
}

// AddRoot appends id to the top-level source list.
func (t *RouteTree) AddRoot(id NodeID) {
	t.Roots = append(t.Roots, id)
}
