package report

import (
	"io"

	"gopkg.in/yaml.v2"

	"fpgasta/internal/driver"
	"fpgasta/internal/physnet"
	"fpgasta/internal/strtab"
	"fpgasta/internal/xref"
)

type yamlReport struct {
	Device  string    `yaml:"device"`
	Netlist string    `yaml:"netlist"`
	Process string    `yaml:"process"`
	Corner  string    `yaml:"corner"`
	Nets    []yamlNet `yaml:"nets"`
}

type yamlNet struct {
	Name       string       `yaml:"name"`
	MaxDelayNS float64      `yaml:"max_delay_ns"`
	Error      string       `yaml:"error,omitempty"`
	Sources    []yamlSource `yaml:"sources,omitempty"`
}

type yamlSource struct {
	Driver string     `yaml:"driver"`
	Sinks  []yamlSink `yaml:"sinks,omitempty"`
}

type yamlSink struct {
	Site    string  `yaml:"site"`
	Bel     string  `yaml:"bel,omitempty"`
	Pin     string  `yaml:"pin"`
	DelayNS float64 `yaml:"delay_ns"`
}

// YAML writes the machine-readable report: every signal net with its worst
// delay and full sink table, or its error.
func YAML(w io.Writer, res *driver.Result, opts Options) error {
	idx := res.Index
	out := yamlReport{
		Device:  res.Device.Name,
		Netlist: res.Netlist.Name,
		Process: opts.Process.String(),
		Corner:  opts.Corner.String(),
	}
	for i := range res.Nets {
		nr := &res.Nets[i]
		if nr.Type != physnet.NetSignal {
			continue
		}
		yn := yamlNet{Name: nr.Name}
		if nr.Err != nil {
			yn.Error = nr.Err.Error()
			out.Nets = append(out.Nets, yn)
			continue
		}
		yn.MaxDelayNS = nr.Delay.Max * 1e9
		for _, src := range nr.Delay.Sources {
			ys := yamlSource{Driver: driverName(idx, src.Root)}
			for _, sink := range src.Sinks {
				bel := ""
				if sink.Bel != strtab.NoID {
					bel = idx.DevString(sink.Bel)
				}
				ys.Sinks = append(ys.Sinks, yamlSink{
					Site:    devName(idx, sink.Site),
					Bel:     bel,
					Pin:     devName(idx, sink.Pin),
					DelayNS: sink.Delay * 1e9,
				})
			}
			yn.Sources = append(yn.Sources, ys)
		}
		out.Nets = append(out.Nets, yn)
	}
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

func driverName(idx *xref.Index, root physnet.Segment) string {
	if root.Kind == physnet.SegPip {
		return idx.NetString(root.Tile) + "/" + idx.NetString(root.Wire0) + "->" + idx.NetString(root.Wire1)
	}
	return idx.NetString(root.Site) + "/" + idx.NetString(root.Bel) + "/" + idx.NetString(root.Pin)
}
