package strtab

// CrossMap translates string IDs between the device and netlist tables.
// The two databases intern independently, so a name present in one table may
// be missing from the other; such IDs translate to (NoID, false) and must not
// be used as lookup keys on the far side.
type CrossMap struct {
	devToNet []ID
	netToDev []ID
}

// NewCrossMap matches every string of one table against the other by exact
// name. Built once per (device, netlist) pair and read-only afterwards.
func NewCrossMap(dev, net *Table) *CrossMap {
	m := &CrossMap{
		devToNet: make([]ID, dev.Len()),
		netToDev: make([]ID, net.Len()),
	}
	for i, s := range dev.byID {
		if id, ok := net.IDOf(s); ok {
			m.devToNet[i] = id
		} else {
			m.devToNet[i] = NoID
		}
	}
	for i, s := range net.byID {
		if id, ok := dev.IDOf(s); ok {
			m.netToDev[i] = id
		} else {
			m.netToDev[i] = NoID
		}
	}
	return m
}

// DevToNet translates a device-space ID into netlist space.
func (m *CrossMap) DevToNet(id ID) (ID, bool) {
	if id == NoID || int(id) >= len(m.devToNet) {
		return NoID, false
	}
	mapped := m.devToNet[id]
	return mapped, mapped != NoID
}

// NetToDev translates a netlist-space ID into device space.
func (m *CrossMap) NetToDev(id ID) (ID, bool) {
	if id == NoID || int(id) >= len(m.netToDev) {
		return NoID, false
	}
	mapped := m.netToDev[id]
	return mapped, mapped != NoID
}
