package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fpgasta/internal/device"
	"fpgasta/internal/driver"
	"fpgasta/internal/observ"
	"fpgasta/internal/report"
	"fpgasta/internal/sta"
)

var (
	analyzeDevice  string
	analyzeNetlist string
	analyzeProcess string
	analyzeCorner  string
	analyzeFormat  string
	analyzeVerbose bool
	analyzeCompact bool
	analyzeJobs    int
	analyzeUI      string
	analyzeTimeout time.Duration
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDevice, "device", "", "path to the device timing database (.dmp)")
	analyzeCmd.Flags().StringVar(&analyzeNetlist, "netlist", "", "path to the physical netlist (.pmp)")
	analyzeCmd.Flags().StringVar(&analyzeProcess, "process", "", "speed model (slow|fast), default slow")
	analyzeCmd.Flags().StringVar(&analyzeCorner, "corner", "", "analysis corner (max|typ|min), default typ")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "", "report format (text|compact|yaml), default text")
	analyzeCmd.Flags().BoolVar(&analyzeVerbose, "verbose", false, "narrate the patch and delay walks")
	analyzeCmd.Flags().BoolVar(&analyzeCompact, "compact", false, "shorthand for --format compact")
	analyzeCmd.Flags().IntVar(&analyzeJobs, "jobs", 0, "per-net worker count (0 = all CPUs)")
	analyzeCmd.Flags().StringVar(&analyzeUI, "ui", "auto", "interactive progress view (auto|on|off)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 0, "abort the run after this long (0 = no deadline)")
	cobra.CheckErr(analyzeCmd.MarkFlagRequired("device"))
	cobra.CheckErr(analyzeCmd.MarkFlagRequired("netlist"))
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run static timing analysis over a physical netlist",
	RunE: func(cmd *cobra.Command, args []string) error {
		colorMode, err := cmd.Flags().GetString("color")
		if err != nil {
			return err
		}
		if err := applyColorMode(colorMode); err != nil {
			return err
		}
		showTimings, err := cmd.Flags().GetBool("timings")
		if err != nil {
			return err
		}

		cfg, _, err := loadStaConfig(".")
		if err != nil {
			return err
		}
		procStr, cornerStr, format, jobs := resolveAnalyzeDefaults(cmd, cfg)
		if cmd.Flags().Changed("format") {
			if format, err = parseReportFormat(analyzeFormat); err != nil {
				return err
			}
		}

		proc, err := device.ParseProcess(procStr)
		if err != nil {
			return err
		}
		corner, err := device.ParseCorner(cornerStr)
		if err != nil {
			return err
		}
		if analyzeCompact {
			format = formatCompact
		}
		uiMode, err := readUIMode(analyzeUI)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if analyzeTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, analyzeTimeout)
			defer cancel()
		}

		timer := observ.NewTimer()
		opts := driver.Options{
			DevicePath:  analyzeDevice,
			NetlistPath: analyzeNetlist,
			Process:     proc,
			Corner:      corner,
			Jobs:        jobs,
			Timer:       timer,
			Tracer:      sta.Nop,
		}
		if analyzeVerbose {
			opts.Tracer = writerTracer{w: cmd.ErrOrStderr()}
		}

		var res *driver.Result
		if shouldUseTUI(uiMode) && !analyzeVerbose {
			res, err = runAnalysisWithUI(ctx, "analyzing "+analyzeNetlist, opts)
		} else {
			res, err = driver.Run(ctx, opts)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		ropts := report.Options{Process: proc, Corner: corner, Verbose: analyzeVerbose}
		switch format {
		case formatCompact:
			err = report.Compact(out, res)
		case formatYAML:
			err = report.YAML(out, res, ropts)
		default:
			err = report.Text(out, res, ropts)
		}
		if err != nil {
			return err
		}

		if showTimings {
			fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
		}
		return nil
	},
}

// resolveAnalyzeDefaults layers the defaults: explicit flag, then sta.toml,
// then the built-in default.
func resolveAnalyzeDefaults(cmd *cobra.Command, cfg *configFile) (proc, corner string, format reportFormat, jobs int) {
	proc = "slow"
	corner = "typ"
	format = formatText
	jobs = 0
	if cfg != nil {
		if cfg.Meta.IsDefined("analysis", "process") {
			proc = cfg.Config.Analysis.Process
		}
		if cfg.Meta.IsDefined("analysis", "corner") {
			corner = cfg.Config.Analysis.Corner
		}
		if cfg.Meta.IsDefined("analysis", "jobs") {
			jobs = cfg.Config.Analysis.Jobs
		}
		if cfg.Meta.IsDefined("report", "format") {
			// Validated at load time.
			format, _ = parseReportFormat(cfg.Config.Report.Format)
		}
	}
	if cmd.Flags().Changed("process") {
		proc = analyzeProcess
	}
	if cmd.Flags().Changed("corner") {
		corner = analyzeCorner
	}
	if cmd.Flags().Changed("jobs") {
		jobs = analyzeJobs
	}
	return proc, corner, format, jobs
}
