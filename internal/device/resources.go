// Package device holds the immutable device timing database: the wires,
// nodes, pips and site descriptions of a part, plus the sparse corner-indexed
// RC models attached to them. All fields are plain data so the structures can
// be carried through the interchange container unchanged; the analysis never
// mutates a Resources value after load.
package device

import "fpgasta/internal/strtab"

// PinDir is the electrical direction of a bel pin or site pin.
type PinDir uint8

const (
	DirInput PinDir = iota
	DirOutput
	DirInout
	DirInvalid
)

func (d PinDir) String() string {
	switch d {
	case DirInput:
		return "input"
	case DirOutput:
		return "output"
	case DirInout:
		return "inout"
	default:
		return "invalid"
	}
}

// Wire is one (tile, wire) endpoint. Both fields are device-space string IDs.
type Wire struct {
	Tile strtab.ID
	Wire strtab.ID
}

// Node is a maximal set of wires joined by fixed interconnect. Wires indexes
// into Resources.Wires; Timing indexes into Resources.NodeTimings.
type Node struct {
	Wires  []uint32
	Timing uint32
}

// Tile binds a tile name to its tile type index.
type Tile struct {
	Name strtab.ID
	Type uint32
}

// Pip is a programmable connection between two wires of a tile type. Wire0
// and Wire1 index into the owning TileType's Wires list. A non-directional
// pip may be buffered in either direction: Buffered21 drives wire0→wire1,
// Buffered20 drives wire1→wire0. Timing indexes into Resources.PipTimings.
type Pip struct {
	Wire0       uint32
	Wire1       uint32
	Directional bool
	Buffered20  bool
	Buffered21  bool
	Timing      uint32
}

// TileType describes one tile flavor: its local wire names and its pips.
type TileType struct {
	Name  strtab.ID
	Wires []strtab.ID
	Pips  []Pip
}

// BelPin is one pin of a bel inside a site type.
type BelPin struct {
	Bel  strtab.ID
	Name strtab.ID
	Dir  PinDir
}

// SiteWire groups the bel pins a site-internal wire connects. Pins are dense
// bel-pin indices into the owning SiteType's BelPins list.
type SiteWire struct {
	Name strtab.ID
	Pins []uint32
}

// SitePIP is a programmable bel-internal path between two bel pins of a site
// type. InPin and OutPin are bel-pin indices; Delay is charged when the path
// is crossed.
type SitePIP struct {
	InPin  uint32
	OutPin uint32
	Delay  CornerModel
}

// SitePin is one external pin of a site type. Model is the pin's resistance
// (or capacitance, for pins that only load the net); Delay is its fixed
// intrinsic delay.
type SitePin struct {
	Name  strtab.ID
	Dir   PinDir
	Model CornerModel
	Delay CornerModel
}

// SiteType describes a site's internal bel-pin connectivity.
type SiteType struct {
	Name      strtab.ID
	BelPins   []BelPin
	SiteWires []SiteWire
	SitePIPs  []SitePIP
	Pins      []SitePin
}

// PipTiming is the RC model of one pip flavor.
type PipTiming struct {
	InputCapacitance    CornerModel
	InternalCapacitance CornerModel
	InternalDelay       CornerModel
	OutputResistance    CornerModel
	OutputCapacitance   CornerModel
}

// NodeTiming is the RC model of one node flavor.
type NodeTiming struct {
	Resistance  CornerModel
	Capacitance CornerModel
}

// DelayClass labels a cell pin delay arc.
type DelayClass uint8

const (
	DelayComb DelayClass = iota
	DelaySetup
	DelayHold
	DelayClk2Q
)

func (c DelayClass) String() string {
	switch c {
	case DelayComb:
		return "comb"
	case DelaySetup:
		return "setup"
	case DelayHold:
		return "hold"
	case DelayClk2Q:
		return "clk2q"
	default:
		return "delayclass(?)"
	}
}

// PinDelay is one timing arc of a cell type. FirstPin and SecondPin are dense
// bel-pin indices of the arc's two endpoints within the placed site type.
type PinDelay struct {
	FirstPin  uint32
	SecondPin uint32
	Class     DelayClass
	Model     CornerModel
}

// CellBelEntry maps a cell type to its pin delay arcs.
type CellBelEntry struct {
	Cell      strtab.ID
	PinsDelay []PinDelay
}

// Resources is the full device timing database. Strings is the device string
// section in ID order; every strtab.ID in the database indexes into it.
// Empty PipTimings or NodeTimings disable the corresponding RC contribution
// rather than being an error.
type Resources struct {
	Name        string
	Strings     []string
	Wires       []Wire
	Nodes       []Node
	Tiles       []Tile
	TileTypes   []TileType
	SiteTypes   []SiteType
	PipTimings  []PipTiming
	NodeTimings []NodeTiming
	CellBelMap  []CellBelEntry
}
