// Package physnet models the physical netlist side of an analysis run: site
// instances, cell placements and the per-net routing trees. Unlike the device
// database the netlist is mutable — the patcher rewrites route trees in place
// before delays are computed. All string IDs here are netlist-space; use the
// cross map to compare them against device keys.
package physnet

import "fpgasta/internal/strtab"

// NetType classifies a net for reporting. Power and ground networks are
// analyzed like any other net but filtered out of the report.
type NetType uint8

const (
	NetSignal NetType = iota
	NetPower
	NetGround
)

func (t NetType) String() string {
	switch t {
	case NetSignal:
		return "signal"
	case NetPower:
		return "power"
	case NetGround:
		return "ground"
	default:
		return "nettype(?)"
	}
}

// SiteInst binds a placed site to its device site type, both as netlist-space
// string IDs.
type SiteInst struct {
	Site strtab.ID
	Type strtab.ID
}

// PinMapEntry maps one cell pin of a placement onto a physical (bel, belPin).
type PinMapEntry struct {
	CellPin strtab.ID
	Bel     strtab.ID
	BelPin  strtab.ID
}

// Placement binds a cell instance to a (site, bel) pair.
type Placement struct {
	CellName strtab.ID
	Type     strtab.ID
	Site     strtab.ID
	Bel      strtab.ID
	PinMap   []PinMapEntry
}

// Net is one routed net: a name, a type and a routing tree whose roots are
// the net's electrical sources.
type Net struct {
	Name strtab.ID
	Type NetType
	Tree *RouteTree
}

// Netlist is the full physical netlist. Strings is the netlist string section
// in ID order.
type Netlist struct {
	Name       string
	Strings    []string
	SiteInsts  []SiteInst
	Placements []Placement
	Nets       []Net
}
