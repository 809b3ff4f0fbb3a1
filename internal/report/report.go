// Package report renders analysis results for human and machine consumers.
// Power and ground networks are analyzed like any other net but filtered out
// here; only signal nets are reported.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"fpgasta/internal/device"
	"fpgasta/internal/driver"
	"fpgasta/internal/physnet"
	"fpgasta/internal/sta"
	"fpgasta/internal/strtab"
	"fpgasta/internal/xref"
)

// Options selects the report contents.
type Options struct {
	Process device.Process
	Corner  device.Corner
	// Verbose adds the per-source sink detail to the text report.
	Verbose bool
}

var (
	netStyle  = color.New(color.FgCyan, color.Bold)
	errStyle  = color.New(color.FgRed)
	dimStyle  = color.New(color.Faint)
	headStyle = color.New(color.Bold)
)

// Text writes the human-readable report: one line per signal net with the
// worst delay in nanoseconds, aligned on the net name column, plus the full
// sink detail when Verbose is set.
func Text(w io.Writer, res *driver.Result, opts Options) error {
	nameWidth := 0
	for i := range res.Nets {
		if res.Nets[i].Type != physnet.NetSignal {
			continue
		}
		nameWidth = max(nameWidth, runewidth.StringWidth(res.Nets[i].Name))
	}

	if _, err := fmt.Fprintf(w, "%s\n", headStyle.Sprintf("timing report (%s, %s)", opts.Process, opts.Corner)); err != nil {
		return err
	}
	for i := range res.Nets {
		nr := &res.Nets[i]
		if nr.Type != physnet.NetSignal {
			continue
		}
		name := runewidth.FillRight(nr.Name, nameWidth)
		if nr.Err != nil {
			if _, err := fmt.Fprintf(w, "Net %s %s\n", netStyle.Sprint(name), errStyle.Sprintf("error: %v", nr.Err)); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "Net %s max time delay: %g ns\n", netStyle.Sprint(name), nr.Delay.Max*1e9); err != nil {
			return err
		}
		if opts.Verbose {
			if err := writeDetail(w, res.Index, nr.Delay); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeDetail(w io.Writer, idx *xref.Index, delay *sta.NetDelay) error {
	if _, err := fmt.Fprintf(w, "\t%s\n", dimStyle.Sprint("detail report:")); err != nil {
		return err
	}
	for _, src := range delay.Sources {
		var driverDesc string
		switch src.Root.Kind {
		case physnet.SegPip:
			driverDesc = fmt.Sprintf("(Source) TilePIP %s, %s -> %s",
				idx.NetString(src.Root.Tile), idx.NetString(src.Root.Wire0), idx.NetString(src.Root.Wire1))
		default:
			driverDesc = fmt.Sprintf("(Source) Site %s, BEL %s, BELpin %s",
				idx.NetString(src.Root.Site), idx.NetString(src.Root.Bel), idx.NetString(src.Root.Pin))
		}
		if _, err := fmt.Fprintf(w, "\t\t%s\n", driverDesc); err != nil {
			return err
		}
		for _, sink := range src.Sinks {
			if _, err := fmt.Fprintf(w, "\t\t\t-> (Sink) Site %s, BEL %s, BELpin %s\n",
				devName(idx, sink.Site), devName(idx, sink.Bel), devName(idx, sink.Pin)); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "\t\t\t\ttime delay %g ns\n", sink.Delay*1e9); err != nil {
				return err
			}
		}
	}
	return nil
}

// Compact writes one line per sink in picoseconds, keyed by the cell pin the
// placement binds to the sink bel pin: "<net>_to_<cell>/<pin> <ps>". Sinks
// with no placed cell pin are omitted.
func Compact(w io.Writer, res *driver.Result) error {
	idx := res.Index
	for i := range res.Nets {
		nr := &res.Nets[i]
		if nr.Type != physnet.NetSignal || nr.Err != nil {
			continue
		}
		for _, src := range nr.Delay.Sources {
			for _, sink := range src.Sinks {
				ref, ok := idx.CellPinAt[xref.CellPinKey{Site: sink.Site, Bel: sink.Bel, Pin: sink.Pin}]
				if !ok {
					continue
				}
				_, err := fmt.Fprintf(w, "%s_to_%s/%s %g\n",
					nr.Name, idx.NetString(ref.Cell), idx.NetString(ref.Pin), sink.Delay*1e12)
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func devName(idx *xref.Index, id strtab.ID) string {
	if id == strtab.NoID {
		return "-"
	}
	return idx.DevString(id)
}
