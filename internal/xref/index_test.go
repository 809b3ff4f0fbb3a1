package xref

import (
	"testing"

	"fpgasta/internal/device"
	"fpgasta/internal/physnet"
	"fpgasta/internal/strtab"
)

// tb interns strings on demand while a test assembles its two databases.
type tb struct {
	dev device.Resources
	net physnet.Netlist
	di  map[string]strtab.ID
	ni  map[string]strtab.ID
}

func newTB() *tb {
	return &tb{di: make(map[string]strtab.ID), ni: make(map[string]strtab.ID)}
}

func (b *tb) d(s string) strtab.ID {
	if id, ok := b.di[s]; ok {
		return id
	}
	id := strtab.ID(len(b.dev.Strings))
	b.dev.Strings = append(b.dev.Strings, s)
	b.di[s] = id
	return id
}

func (b *tb) n(s string) strtab.ID {
	if id, ok := b.ni[s]; ok {
		return id
	}
	id := strtab.ID(len(b.net.Strings))
	b.net.Strings = append(b.net.Strings, s)
	b.ni[s] = id
	return id
}

func sampleDatabases() *tb {
	b := newTB()

	// One tile type with three wires and two pips off the first wire. WC
	// carries no pip at all.
	b.dev.TileTypes = []device.TileType{{
		Name:  b.d("INT"),
		Wires: []strtab.ID{b.d("WA"), b.d("WB"), b.d("WC")},
		Pips: []device.Pip{
			{Wire0: 0, Wire1: 1, Directional: true, Timing: 0},
			{Wire0: 1, Wire1: 2, Directional: false, Timing: 1},
		},
	}}
	b.dev.Tiles = []device.Tile{{Name: b.d("INT_X0Y0"), Type: 0}}
	b.dev.Wires = []device.Wire{
		{Tile: b.d("INT_X0Y0"), Wire: b.d("WA")},
		{Tile: b.d("INT_X0Y0"), Wire: b.d("WB")},
		{Tile: b.d("INT_X0Y0"), Wire: b.d("WC")},
	}
	b.dev.Nodes = []device.Node{
		{Wires: []uint32{0, 1}, Timing: 0},
		{Wires: []uint32{2}, Timing: 0},
	}

	// One site type: a LUT output feeding a routing bel over a site wire,
	// a site PIP through the routing bel, and one external pin.
	b.dev.SiteTypes = []device.SiteType{{
		Name: b.d("SLICEL"),
		BelPins: []device.BelPin{
			{Bel: b.d("A6LUT"), Name: b.d("O6"), Dir: device.DirOutput},
			{Bel: b.d("RBEL"), Name: b.d("IN"), Dir: device.DirInput},
			{Bel: b.d("RBEL"), Name: b.d("OUT"), Dir: device.DirOutput},
		},
		SiteWires: []device.SiteWire{
			{Name: b.d("sw0"), Pins: []uint32{0, 1}},
			{Name: b.d("sw1"), Pins: []uint32{2}},
		},
		SitePIPs: []device.SitePIP{
			{InPin: 1, OutPin: 2},
		},
		Pins: []device.SitePin{
			{Name: b.d("COUT"), Dir: device.DirOutput},
		},
	}}
	b.dev.CellBelMap = []device.CellBelEntry{
		{Cell: b.d("LUT6"), PinsDelay: []device.PinDelay{
			{FirstPin: 0, SecondPin: 0, Class: device.DelayComb},
		}},
	}

	b.net.SiteInsts = []physnet.SiteInst{
		{Site: b.n("SLICE_X0Y0"), Type: b.n("SLICEL")},
	}
	b.net.Placements = []physnet.Placement{
		{
			CellName: b.n("lut0"),
			Type:     b.n("LUT6"),
			Site:     b.n("SLICE_X0Y0"),
			Bel:      b.n("A6LUT"),
			PinMap: []physnet.PinMapEntry{
				{CellPin: b.n("O"), Bel: b.n("A6LUT"), BelPin: b.n("O6")},
				// A pin name the device never interned: contributes nothing.
				{CellPin: b.n("GHOST"), Bel: b.n("A6LUT"), BelPin: b.n("NOPE")},
			},
		},
		{
			// A cell type outside the device's cell-bel map: placed, live,
			// but without delay arcs.
			CellName: b.n("odd0"),
			Type:     b.n("ODDCELL"),
			Site:     b.n("SLICE_X0Y0"),
			Bel:      b.n("RBEL"),
			PinMap: []physnet.PinMapEntry{
				{CellPin: b.n("I"), Bel: b.n("RBEL"), BelPin: b.n("IN")},
			},
		},
	}
	b.d("SLICE_X0Y0")
	return b
}

func TestBuildIndexes(t *testing.T) {
	b := sampleDatabases()
	x, err := Build(&b.dev, &b.net)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tile, wa, wb, wc := b.d("INT_X0Y0"), b.d("WA"), b.d("WB"), b.d("WC")
	if got := x.NodeOf[TileWireKey{Tile: tile, Wire: wa}]; got != 0 {
		t.Errorf("NodeOf(WA) = %d, want 0", got)
	}
	if got := x.NodeOf[TileWireKey{Tile: tile, Wire: wb}]; got != 0 {
		t.Errorf("NodeOf(WB) = %d, want 0", got)
	}
	if got := x.NodeOf[TileWireKey{Tile: tile, Wire: wc}]; got != 1 {
		t.Errorf("NodeOf(WC) = %d, want 1", got)
	}

	if got := x.TileTypeOf[tile]; got != 0 {
		t.Errorf("TileTypeOf = %d, want 0", got)
	}
	if _, ok := x.PipAt[PipKey{TileType: 0, Wire0: wa, Wire1: wb}]; !ok {
		t.Error("PipAt misses the WA->WB pip")
	}
	if _, ok := x.PipAt[PipKey{TileType: 0, Wire0: wb, Wire1: wa}]; ok {
		t.Error("PipAt resolves the reversed key; callers swap it themselves")
	}

	// WA: one pip, wire0 side. WB: both pips, opposite sides. WC: present
	// but empty, distinguishing it from an unknown wire.
	refs := x.WirePips[TypeWireKey{TileType: 0, Wire: wa}]
	if len(refs) != 1 || !refs[0].OnWire0 {
		t.Errorf("WirePips(WA) = %+v, want one wire0-side ref", refs)
	}
	refs = x.WirePips[TypeWireKey{TileType: 0, Wire: wb}]
	if len(refs) != 2 || refs[0].OnWire0 || !refs[1].OnWire0 {
		t.Errorf("WirePips(WB) = %+v, want wire1-side then wire0-side", refs)
	}
	if refs, ok := x.WirePips[TypeWireKey{TileType: 0, Wire: wc}]; !ok || len(refs) != 0 {
		t.Errorf("WirePips(WC) = %v, %v; want present and empty", refs, ok)
	}
	if _, ok := x.WirePips[TypeWireKey{TileType: 0, Wire: b.d("WZ")}]; ok {
		t.Error("WirePips resolves a wire the tile type never declared")
	}

	site := b.n("SLICE_X0Y0")
	if got, ok := x.SiteTypeOf[site]; !ok || got != 0 {
		t.Errorf("SiteTypeOf = %d, %v; want 0, true", got, ok)
	}
	if got := x.BelPinIndex[BelPinKey{SiteType: 0, Bel: b.d("RBEL"), Pin: b.d("OUT")}]; got != 2 {
		t.Errorf("BelPinIndex(RBEL/OUT) = %d, want 2", got)
	}
	if got := x.SiteWireOf[BelPinRef{SiteType: 0, BelPin: 1}]; got != 0 {
		t.Errorf("SiteWireOf(pin 1) = %d, want site wire 0", got)
	}
	if got := x.SiteWireOf[BelPinRef{SiteType: 0, BelPin: 2}]; got != 1 {
		t.Errorf("SiteWireOf(pin 2) = %d, want site wire 1", got)
	}
	if _, ok := x.SitePIPDelay[SitePIPKey{SiteType: 0, Pin: 1}]; !ok {
		t.Error("SitePIPDelay misses the input pin of the site PIP")
	}
	if got := x.SitePIPOut[SitePIPKey{SiteType: 0, Pin: 1}]; got != 2 {
		t.Errorf("SitePIPOut(in) = %d, want 2", got)
	}
	if got := x.SitePIPOut[SitePIPKey{SiteType: 0, Pin: 2}]; got != 2 {
		t.Errorf("SitePIPOut(out) = %d, want 2", got)
	}
	if _, ok := x.SitePinAt[SitePinKey{SiteType: 0, Pin: b.d("COUT")}]; !ok {
		t.Error("SitePinAt misses COUT")
	}

	if _, ok := x.CellDelays[SiteBelKey{Site: site, Bel: b.n("A6LUT")}]; !ok {
		t.Error("CellDelays misses the placed LUT6")
	}
	if _, ok := x.CellDelays[SiteBelKey{Site: site, Bel: b.n("RBEL")}]; ok {
		t.Error("CellDelays holds arcs for a cell type outside the cell-bel map")
	}

	if _, ok := x.PlacementLive[LiveKey{Site: site, Bel: b.d("A6LUT"), Pin: b.d("O6")}]; !ok {
		t.Error("PlacementLive misses the LUT output pin")
	}
	if _, ok := x.PlacementLive[LiveKey{Site: site, Bel: b.d("RBEL"), Pin: b.d("IN")}]; !ok {
		t.Error("PlacementLive misses the routing bel input pin")
	}

	ref, ok := x.CellPinAt[CellPinKey{Site: b.d("SLICE_X0Y0"), Bel: b.d("A6LUT"), Pin: b.d("O6")}]
	if !ok {
		t.Fatal("CellPinAt misses the LUT output pin")
	}
	if ref.Cell != b.n("lut0") || ref.Pin != b.n("O") {
		t.Errorf("CellPinAt = %+v, want cell lut0 pin O", ref)
	}
}

func TestBuildRejectsUnknownSiteInstType(t *testing.T) {
	b := sampleDatabases()
	b.net.SiteInsts = append(b.net.SiteInsts, physnet.SiteInst{
		Site: b.n("SLICE_X0Y1"),
		Type: b.n("UNKNOWN_TYPE"),
	})
	_, err := Build(&b.dev, &b.net)
	if err == nil {
		t.Fatal("Build accepted a site instance with an untranslatable type")
	}
	if _, ok := err.(*StructuralError); !ok {
		t.Fatalf("Build error = %T, want *StructuralError", err)
	}
}

func TestBuildSkipsUntranslatablePinMapEntries(t *testing.T) {
	b := sampleDatabases()
	x, err := Build(&b.dev, &b.net)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// The GHOST/NOPE entry names a bel pin the device never interned; it
	// must neither fail the build nor mark anything live.
	for k := range x.PlacementLive {
		if x.DevString(k.Pin) == "NOPE" {
			t.Error("PlacementLive holds an untranslatable pin map entry")
		}
	}
	if len(x.PlacementLive) != 2 {
		t.Errorf("PlacementLive has %d entries, want 2", len(x.PlacementLive))
	}
}
