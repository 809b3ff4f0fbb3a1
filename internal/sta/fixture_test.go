package sta

import (
	"testing"

	"fpgasta/internal/device"
	"fpgasta/internal/physnet"
	"fpgasta/internal/strtab"
	"fpgasta/internal/xref"
)

// fixture assembles a miniature device/netlist pair by hand. Strings are
// interned on demand into the two independent tables, the same way the real
// databases arrive with their own string sections.
type fixture struct {
	dev    device.Resources
	net    physnet.Netlist
	devIdx map[string]strtab.ID
	netIdx map[string]strtab.ID
}

func newFixture() *fixture {
	return &fixture{
		devIdx: make(map[string]strtab.ID),
		netIdx: make(map[string]strtab.ID),
	}
}

func (f *fixture) dstr(s string) strtab.ID {
	if id, ok := f.devIdx[s]; ok {
		return id
	}
	id := strtab.ID(len(f.dev.Strings))
	f.dev.Strings = append(f.dev.Strings, s)
	f.devIdx[s] = id
	return id
}

func (f *fixture) nstr(s string) strtab.ID {
	if id, ok := f.netIdx[s]; ok {
		return id
	}
	id := strtab.ID(len(f.net.Strings))
	f.net.Strings = append(f.net.Strings, s)
	f.netIdx[s] = id
	return id
}

// typ populates just the (slow, typ) leaf.
func typ(v float64) device.CornerModel {
	return device.CornerModel{
		HasSlow: true,
		Slow:    device.CornerValues{Typ: v, HasTyp: true},
	}
}

// addSiteType registers a site type and a site instance of it, and returns
// the site type index.
func (f *fixture) addSiteType(name, site string, st device.SiteType) uint32 {
	st.Name = f.dstr(name)
	f.dev.SiteTypes = append(f.dev.SiteTypes, st)
	f.net.SiteInsts = append(f.net.SiteInsts, physnet.SiteInst{
		Site: f.nstr(site),
		Type: f.nstr(name),
	})
	// Site names appear in both tables so sinks can be reported.
	f.dstr(site)
	return uint32(len(f.dev.SiteTypes) - 1)
}

// addTile registers a tile of a fresh tile type and returns the type index.
func (f *fixture) addTile(tile, tileType string, wires []string, pips []device.Pip) uint32 {
	wireIDs := make([]strtab.ID, len(wires))
	for i, w := range wires {
		wireIDs[i] = f.dstr(w)
		f.nstr(w)
	}
	f.dev.TileTypes = append(f.dev.TileTypes, device.TileType{
		Name:  f.dstr(tileType),
		Wires: wireIDs,
		Pips:  pips,
	})
	ttIdx := uint32(len(f.dev.TileTypes) - 1)
	f.dev.Tiles = append(f.dev.Tiles, device.Tile{Name: f.dstr(tile), Type: ttIdx})
	f.nstr(tile)
	return ttIdx
}

// addNode makes every listed (tile, wire) pair one node with the given
// timing reference.
func (f *fixture) addNode(timing uint32, tileWires ...[2]string) {
	node := device.Node{Timing: timing}
	for _, tw := range tileWires {
		f.dev.Wires = append(f.dev.Wires, device.Wire{Tile: f.dstr(tw[0]), Wire: f.dstr(tw[1])})
		node.Wires = append(node.Wires, uint32(len(f.dev.Wires)-1))
	}
	f.dev.Nodes = append(f.dev.Nodes, node)
}

// place binds a cell to (site, bel) and marks the listed bel pins live.
func (f *fixture) place(cell, cellType, site, bel string, pins ...string) {
	p := physnet.Placement{
		CellName: f.nstr(cell),
		Type:     f.nstr(cellType),
		Site:     f.nstr(site),
		Bel:      f.nstr(bel),
	}
	for _, pin := range pins {
		p.PinMap = append(p.PinMap, physnet.PinMapEntry{
			CellPin: f.nstr(pin),
			Bel:     f.nstr(bel),
			BelPin:  f.nstr(pin),
		})
		f.dstr(pin)
	}
	f.dstr(bel)
	f.net.Placements = append(f.net.Placements, p)
}

// addNet appends a net built by fn and returns it.
func (f *fixture) addNet(name string, fn func(tree *physnet.RouteTree)) *physnet.Net {
	tree := physnet.NewRouteTree()
	fn(tree)
	f.net.Nets = append(f.net.Nets, physnet.Net{
		Name: f.nstr(name),
		Type: physnet.NetSignal,
		Tree: tree,
	})
	return &f.net.Nets[len(f.net.Nets)-1]
}

func (f *fixture) index(t *testing.T) *xref.Index {
	t.Helper()
	idx, err := xref.Build(&f.dev, &f.net)
	if err != nil {
		t.Fatalf("xref.Build: %v", err)
	}
	return idx
}

// belPin is a convenience for device.BelPin literals.
func belPin(f *fixture, bel, pin string, dir device.PinDir) device.BelPin {
	f.nstr(bel)
	f.nstr(pin)
	return device.BelPin{Bel: f.dstr(bel), Name: f.dstr(pin), Dir: dir}
}
