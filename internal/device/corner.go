package device

import (
	"fmt"
	"strings"
)

// Process selects one of the two speed models a device ships.
type Process uint8

const (
	ProcessSlow Process = iota
	ProcessFast
)

// Other returns the opposite process, used when the requested speed model is
// not populated.
func (p Process) Other() Process {
	if p == ProcessSlow {
		return ProcessFast
	}
	return ProcessSlow
}

func (p Process) String() string {
	switch p {
	case ProcessSlow:
		return "slow"
	case ProcessFast:
		return "fast"
	default:
		return fmt.Sprintf("process(%d)", uint8(p))
	}
}

// ParseProcess converts a CLI/config value into a Process.
func ParseProcess(s string) (Process, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "slow":
		return ProcessSlow, nil
	case "fast":
		return ProcessFast, nil
	default:
		return ProcessSlow, fmt.Errorf("invalid process %q (expected slow|fast)", s)
	}
}

// Corner selects an analysis corner within a process. The declaration order
// is the fallback scan order used when the requested corner is absent.
type Corner uint8

const (
	CornerMax Corner = iota
	CornerTyp
	CornerMin
)

func (c Corner) String() string {
	switch c {
	case CornerMax:
		return "max"
	case CornerTyp:
		return "typ"
	case CornerMin:
		return "min"
	default:
		return fmt.Sprintf("corner(%d)", uint8(c))
	}
}

// ParseCorner converts a CLI/config value into a Corner.
func ParseCorner(s string) (Corner, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "max":
		return CornerMax, nil
	case "typ":
		return CornerTyp, nil
	case "min":
		return CornerMin, nil
	default:
		return CornerTyp, fmt.Errorf("invalid corner %q (expected max|typ|min)", s)
	}
}

// CornerValues holds the per-corner leaves of one process branch. A leaf is
// meaningful only when its Has flag is set; devices routinely populate just a
// subset.
type CornerValues struct {
	Max    float64
	Typ    float64
	Min    float64
	HasMax bool
	HasTyp bool
	HasMin bool
}

func (v CornerValues) at(c Corner) (float64, bool) {
	switch c {
	case CornerMax:
		return v.Max, v.HasMax
	case CornerTyp:
		return v.Typ, v.HasTyp
	case CornerMin:
		return v.Min, v.HasMin
	default:
		return 0, false
	}
}

// CornerModel is a sparse corner-indexed value: resistance, capacitance or
// delay depending on where it appears. Either process branch may be absent.
// The zero value is a fully unpopulated model and resolves to 0.
type CornerModel struct {
	Slow    CornerValues
	Fast    CornerValues
	HasSlow bool
	HasFast bool
}

func (m CornerModel) process(p Process) (CornerValues, bool) {
	if p == ProcessSlow {
		return m.Slow, m.HasSlow
	}
	return m.Fast, m.HasFast
}

var cornerScan = [3]Corner{CornerMax, CornerTyp, CornerMin}

// Value resolves the model at (p, c). The requested process is tried first,
// then the other one; within a process the requested corner is tried first,
// then max, typ, min in that order. A model with no populated leaf resolves
// to 0 rather than failing: absent timing data means no contribution.
func (m CornerModel) Value(p Process, c Corner) float64 {
	for _, proc := range [2]Process{p, p.Other()} {
		vals, ok := m.process(proc)
		if !ok {
			continue
		}
		if v, ok := vals.at(c); ok {
			return v
		}
		for _, fc := range cornerScan {
			if v, ok := vals.at(fc); ok {
				return v
			}
		}
	}
	return 0
}

// IsZero reports whether no leaf of the model is populated.
func (m CornerModel) IsZero() bool {
	return !m.HasSlow && !m.HasFast
}
