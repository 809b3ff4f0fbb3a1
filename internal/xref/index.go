// Package xref builds the lookup tables that join the device and netlist
// databases: the bidirectional string cross map plus every structural index
// the patcher and the delay propagator key into. An Index is built once per
// (device, netlist) pair and is read-only afterwards, so analysis workers may
// share it without locking.
package xref

import (
	"fmt"

	"fortio.org/safecast"

	"fpgasta/internal/device"
	"fpgasta/internal/physnet"
	"fpgasta/internal/strtab"
)

// TileWireKey addresses a wire by tile name and wire name, both device-space.
type TileWireKey struct {
	Tile strtab.ID
	Wire strtab.ID
}

// TypeWireKey addresses a wire name within a tile type.
type TypeWireKey struct {
	TileType uint32
	Wire     strtab.ID
}

// PipKey addresses a pip by tile type and its two wire names. Pips are
// referenced by either endpoint order, so callers try the swapped key when
// the forward one misses.
type PipKey struct {
	TileType uint32
	Wire0    strtab.ID
	Wire1    strtab.ID
}

// SitePinKey addresses an external pin of a site type by name.
type SitePinKey struct {
	SiteType uint32
	Pin      strtab.ID
}

// SitePIPKey addresses a site PIP by a bel-pin index of the owning site type.
type SitePIPKey struct {
	SiteType uint32
	Pin      uint32
}

// BelPinKey addresses a bel pin by (site type, bel name, pin name); the names
// are device-space.
type BelPinKey struct {
	SiteType uint32
	Bel      strtab.ID
	Pin      strtab.ID
}

// BelPinRef addresses a bel pin by its dense index within a site type.
type BelPinRef struct {
	SiteType uint32
	BelPin   uint32
}

// SiteBelKey addresses a placed bel by netlist-space site and bel names.
type SiteBelKey struct {
	Site strtab.ID
	Bel  strtab.ID
}

// LiveKey is the placement-membership key: the netlist-space site instance
// name plus the device-space bel and bel-pin names.
type LiveKey struct {
	Site strtab.ID
	Bel  strtab.ID
	Pin  strtab.ID
}

// CellPinKey addresses a bel pin for reporting, all three IDs device-space.
type CellPinKey struct {
	Site strtab.ID
	Bel  strtab.ID
	Pin  strtab.ID
}

// CellPinRef names the cell and cell pin placed on a bel pin, netlist-space.
type CellPinRef struct {
	Cell strtab.ID
	Pin  strtab.ID
}

// PipRef is one pip attached to a wire. OnWire0 reports that the wire is the
// pip's wire0 endpoint; only those pips present their input capacitance to
// the wire in the loading model.
type PipRef struct {
	Pip     *device.Pip
	OnWire0 bool
}

// StructuralError reports a cross-referenced database inconsistency: a key
// one database promises that the other cannot resolve. It is fatal for the
// whole run.
type StructuralError struct {
	msg string
}

func (e *StructuralError) Error() string { return e.msg }

// Errorf builds a StructuralError.
func Errorf(format string, args ...any) *StructuralError {
	return &StructuralError{msg: fmt.Sprintf(format, args...)}
}

// Index is the full set of cross-reference tables. Dev and Net alias the
// databases the index was built from.
type Index struct {
	Dev *device.Resources
	Net *physnet.Netlist

	DevStrings *strtab.Table
	NetStrings *strtab.Table
	Cross      *strtab.CrossMap

	// NodeOf maps a (tile, wire) pair to its node index.
	NodeOf map[TileWireKey]uint32
	// WirePips lists every pip touching a wire of a tile type. Every wire
	// of every tile type has an entry, possibly empty; a missing key means
	// the wire itself is unknown.
	WirePips map[TypeWireKey][]PipRef
	// PipAt resolves a pip from its tile type and wire-name pair.
	PipAt map[PipKey]*device.Pip
	// TileTypeOf maps a tile name to its tile type index.
	TileTypeOf map[strtab.ID]uint32
	// SiteTypeByName maps a device site type name to its index.
	SiteTypeByName map[strtab.ID]uint32
	// SiteTypeOf maps a netlist site instance name to its device site type
	// index, already translated through the cross map.
	SiteTypeOf map[strtab.ID]uint32
	// SitePinAt resolves an external site pin model.
	SitePinAt map[SitePinKey]*device.SitePin
	// SitePIPDelay maps a site PIP's input bel pin to its delay model.
	SitePIPDelay map[SitePIPKey]device.CornerModel
	// SitePIPOut maps either bel pin of a site PIP to its output bel pin.
	SitePIPOut map[SitePIPKey]uint32
	// BelPinIndex maps a named bel pin to its dense site-type index.
	BelPinIndex map[BelPinKey]uint32
	// SiteWireOf maps a bel pin to the site wire connecting it.
	SiteWireOf map[BelPinRef]uint32
	// CellDelays holds the delay arcs of the cell placed on a (site, bel),
	// present only for cell types the device's cell-bel map knows.
	CellDelays map[SiteBelKey][]device.PinDelay
	// PlacementLive is the set of bel pins actually used by a placement.
	PlacementLive map[LiveKey]struct{}
	// CellPinAt maps a used bel pin back to its (cell, cell pin) for
	// reporting.
	CellPinAt map[CellPinKey]CellPinRef
}

// Build constructs every index over the given pair of databases. The returned
// Index holds references into both arguments; neither may be mutated while
// the index is in use, except for the route trees the patcher owns.
func Build(dev *device.Resources, net *physnet.Netlist) (*Index, error) {
	idx := &Index{
		Dev:            dev,
		Net:            net,
		DevStrings:     strtab.NewTable(dev.Strings),
		NetStrings:     strtab.NewTable(net.Strings),
		NodeOf:         make(map[TileWireKey]uint32),
		WirePips:       make(map[TypeWireKey][]PipRef),
		PipAt:          make(map[PipKey]*device.Pip),
		TileTypeOf:     make(map[strtab.ID]uint32, len(dev.Tiles)),
		SiteTypeByName: make(map[strtab.ID]uint32, len(dev.SiteTypes)),
		SiteTypeOf:     make(map[strtab.ID]uint32, len(net.SiteInsts)),
		SitePinAt:      make(map[SitePinKey]*device.SitePin),
		SitePIPDelay:   make(map[SitePIPKey]device.CornerModel),
		SitePIPOut:     make(map[SitePIPKey]uint32),
		BelPinIndex:    make(map[BelPinKey]uint32),
		SiteWireOf:     make(map[BelPinRef]uint32),
		CellDelays:     make(map[SiteBelKey][]device.PinDelay),
		PlacementLive:  make(map[LiveKey]struct{}),
		CellPinAt:      make(map[CellPinKey]CellPinRef),
	}
	idx.Cross = strtab.NewCrossMap(idx.DevStrings, idx.NetStrings)

	if err := idx.buildNodes(); err != nil {
		return nil, err
	}
	if err := idx.buildTileTypes(); err != nil {
		return nil, err
	}
	for _, tile := range dev.Tiles {
		idx.TileTypeOf[tile.Name] = tile.Type
	}
	if err := idx.buildSiteTypes(); err != nil {
		return nil, err
	}
	if err := idx.buildSiteInsts(); err != nil {
		return nil, err
	}
	idx.buildPlacements()
	return idx, nil
}

func (x *Index) buildNodes() error {
	for i, node := range x.Dev.Nodes {
		id, err := safecast.Conv[uint32](i)
		if err != nil {
			return Errorf("node index overflow: %v", err)
		}
		for _, wireIdx := range node.Wires {
			if int(wireIdx) >= len(x.Dev.Wires) {
				return Errorf("node %d references wire %d past the wire list", i, wireIdx)
			}
			w := x.Dev.Wires[wireIdx]
			x.NodeOf[TileWireKey{Tile: w.Tile, Wire: w.Wire}] = id
		}
	}
	return nil
}

func (x *Index) buildTileTypes() error {
	for i := range x.Dev.TileTypes {
		tt := &x.Dev.TileTypes[i]
		ttIdx, err := safecast.Conv[uint32](i)
		if err != nil {
			return Errorf("tile type index overflow: %v", err)
		}
		for _, wire := range tt.Wires {
			x.WirePips[TypeWireKey{TileType: ttIdx, Wire: wire}] = nil
		}
		for j := range tt.Pips {
			pip := &tt.Pips[j]
			if int(pip.Wire0) >= len(tt.Wires) || int(pip.Wire1) >= len(tt.Wires) {
				return Errorf("tile type %d pip %d references wire past the local wire list", i, j)
			}
			w0 := tt.Wires[pip.Wire0]
			w1 := tt.Wires[pip.Wire1]
			k0 := TypeWireKey{TileType: ttIdx, Wire: w0}
			k1 := TypeWireKey{TileType: ttIdx, Wire: w1}
			x.WirePips[k0] = append(x.WirePips[k0], PipRef{Pip: pip, OnWire0: true})
			x.WirePips[k1] = append(x.WirePips[k1], PipRef{Pip: pip, OnWire0: false})
			x.PipAt[PipKey{TileType: ttIdx, Wire0: w0, Wire1: w1}] = pip
		}
	}
	return nil
}

func (x *Index) buildSiteTypes() error {
	for i := range x.Dev.SiteTypes {
		st := &x.Dev.SiteTypes[i]
		stIdx, err := safecast.Conv[uint32](i)
		if err != nil {
			return Errorf("site type index overflow: %v", err)
		}
		x.SiteTypeByName[st.Name] = stIdx

		for j := range st.BelPins {
			bp := &st.BelPins[j]
			pinIdx, err := safecast.Conv[uint32](j)
			if err != nil {
				return Errorf("bel pin index overflow: %v", err)
			}
			x.BelPinIndex[BelPinKey{SiteType: stIdx, Bel: bp.Bel, Pin: bp.Name}] = pinIdx
		}
		for j := range st.SiteWires {
			wireIdx, err := safecast.Conv[uint32](j)
			if err != nil {
				return Errorf("site wire index overflow: %v", err)
			}
			for _, pin := range st.SiteWires[j].Pins {
				if int(pin) >= len(st.BelPins) {
					return Errorf("site type %d site wire %d references bel pin %d past the pin list", i, j, pin)
				}
				x.SiteWireOf[BelPinRef{SiteType: stIdx, BelPin: pin}] = wireIdx
			}
		}
		for _, spp := range st.SitePIPs {
			x.SitePIPOut[SitePIPKey{SiteType: stIdx, Pin: spp.InPin}] = spp.OutPin
			x.SitePIPOut[SitePIPKey{SiteType: stIdx, Pin: spp.OutPin}] = spp.OutPin
			x.SitePIPDelay[SitePIPKey{SiteType: stIdx, Pin: spp.InPin}] = spp.Delay
		}
		for j := range st.Pins {
			pin := &st.Pins[j]
			x.SitePinAt[SitePinKey{SiteType: stIdx, Pin: pin.Name}] = pin
		}
	}
	return nil
}

func (x *Index) buildSiteInsts() error {
	for _, si := range x.Net.SiteInsts {
		devName, ok := x.Cross.NetToDev(si.Type)
		if !ok {
			return Errorf("site instance %s has type %s unknown to the device",
				x.netString(si.Site), x.netString(si.Type))
		}
		stIdx, ok := x.SiteTypeByName[devName]
		if !ok {
			return Errorf("site instance %s has no device site type %s",
				x.netString(si.Site), x.netString(si.Type))
		}
		x.SiteTypeOf[si.Site] = stIdx
	}
	return nil
}

// buildPlacements fills the cell delay, placement-membership and reporting
// maps. Cross-map misses here are not errors: a placement whose cell type or
// pin names the device never interned simply contributes no entries, the
// same way an untranslatable ID can never match a device-space key.
func (x *Index) buildPlacements() {
	arcsByCell := make(map[strtab.ID][]device.PinDelay, len(x.Dev.CellBelMap))
	for _, entry := range x.Dev.CellBelMap {
		arcsByCell[entry.Cell] = entry.PinsDelay
	}
	for pi := range x.Net.Placements {
		p := &x.Net.Placements[pi]
		if devType, ok := x.Cross.NetToDev(p.Type); ok {
			if arcs, ok := arcsByCell[devType]; ok {
				x.CellDelays[SiteBelKey{Site: p.Site, Bel: p.Bel}] = arcs
			}
		}
		devSite, siteOK := x.Cross.NetToDev(p.Site)
		for _, pm := range p.PinMap {
			devBel, ok := x.Cross.NetToDev(pm.Bel)
			if !ok {
				continue
			}
			devPin, ok := x.Cross.NetToDev(pm.BelPin)
			if !ok {
				continue
			}
			x.PlacementLive[LiveKey{Site: p.Site, Bel: devBel, Pin: devPin}] = struct{}{}
			if siteOK {
				x.CellPinAt[CellPinKey{Site: devSite, Bel: devBel, Pin: devPin}] =
					CellPinRef{Cell: p.CellName, Pin: pm.CellPin}
			}
		}
	}
}

func (x *Index) netString(id strtab.ID) string {
	if s, ok := x.NetStrings.Lookup(id); ok {
		return s
	}
	return fmt.Sprintf("str#%d", id)
}

// DevString resolves a device-space ID for messages and reports.
func (x *Index) DevString(id strtab.ID) string {
	if s, ok := x.DevStrings.Lookup(id); ok {
		return s
	}
	return fmt.Sprintf("str#%d", id)
}

// NetString resolves a netlist-space ID for messages and reports.
func (x *Index) NetString(id strtab.ID) string {
	return x.netString(id)
}
