package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/anstrom/portprobe/internal/config"
	"github.com/anstrom/portprobe/internal/errors"
	"github.com/anstrom/portprobe/internal/logging"
	"github.com/anstrom/portprobe/internal/metrics"
	"github.com/anstrom/portprobe/internal/scanning"
)

const (
	defaultPortSpec  = "1-1024"
	defaultEndPort   = 1024
	progressBarWidth = 30
)

var (
	scanPorts       string
	scanStart       int
	scanEnd         int
	scanOutput      string
	scanOpenOnly    bool
	scanNoProgress  bool
	scanStats       bool
	scanTimeout     time.Duration
	scanConcurrency int
)

// scanOptions holds the per-invocation settings that are not configuration.
type scanOptions struct {
	target   string
	ports    string
	start    int
	end      int
	useRange bool
	output   string
	openOnly bool
	progress bool
	stats    bool
}

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan TARGET",
	Short: "Scan a range of TCP ports on one host",
	Long: `Scan attempts one TCP connection to every port in the range on TARGET and
reports each port as open or failed, with the reason (refused, timed out,
unreachable) and the OS error number.

TARGET is a hostname or an IP address. It is resolved once before any port is
probed. Press Ctrl-C to stop early; the ports finished so far are printed.`,
	Example: `  portprobe scan 192.168.1.10
  portprobe scan scanme.example.org --ports 20-25
  portprobe scan 10.0.0.5 --start 1 --end 65535 --concurrency 500 --timeout 300ms
  portprobe scan localhost --ports 1-10000 --open-only --output json`,
	Args: func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.NewConfigFieldError(errors.CodeValidation,
				fmt.Sprintf("expected exactly one target, got %d", len(args)), "target", args)
		}
		return nil
	},
	SilenceUsage: true,
	RunE:         runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanPorts, "ports", "p", defaultPortSpec, "Port or inclusive port range, e.g. 80 or 1-1024")
	scanCmd.Flags().IntVar(&scanStart, "start", scanning.MinPort, "First port of the range (use with --end)")
	scanCmd.Flags().IntVar(&scanEnd, "end", defaultEndPort, "Last port of the range (use with --start)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "table", "Output format: table, json, yaml")
	scanCmd.Flags().BoolVar(&scanOpenOnly, "open-only", false, "Only list open ports")
	scanCmd.Flags().BoolVar(&scanNoProgress, "no-progress", false, "Do not draw the progress bar")
	scanCmd.Flags().BoolVar(&scanStats, "stats", false, "Print probe latency statistics after the results")
	scanCmd.Flags().DurationVarP(&scanTimeout, "timeout", "t", config.DefaultTimeout, "Per-port connect timeout")
	scanCmd.Flags().IntVarP(&scanConcurrency, "concurrency", "c", scanning.DefaultConcurrency,
		"Maximum connection attempts in flight")

	scanCmd.MarkFlagsMutuallyExclusive("ports", "start")
	scanCmd.MarkFlagsMutuallyExclusive("ports", "end")

	bindFlag("scanning.timeout", scanCmd.Flags().Lookup("timeout"))
	bindFlag("scanning.concurrency", scanCmd.Flags().Lookup("concurrency"))
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := scanOptions{
		target:   args[0],
		ports:    scanPorts,
		start:    scanStart,
		end:      scanEnd,
		useRange: cmd.Flags().Changed("start") || cmd.Flags().Changed("end"),
		output:   scanOutput,
		openOnly: scanOpenOnly,
		progress: !scanNoProgress,
		stats:    scanStats,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return executeScan(ctx, cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildRequest turns the options into a scan request. The request is not
// validated here; the engine does that before touching the network.
func buildRequest(cfg *config.Config, opts scanOptions) (scanning.ScanRequest, error) {
	if opts.useRange {
		return scanning.NewScanRequest(opts.target, opts.start, opts.end, cfg.Scanning.Timeout), nil
	}
	r, err := scanning.ParsePortRange(opts.ports)
	if err != nil {
		return scanning.ScanRequest{}, err
	}
	return scanning.NewScanRequest(opts.target, r.Start, r.End, cfg.Scanning.Timeout), nil
}

// executeScan runs one scan and renders the result. A scan stopped by ctx
// still renders what it has and then returns a CodeCanceled error.
func executeScan(ctx context.Context, cfg *config.Config, opts scanOptions, out, errOut io.Writer) error {
	if !isValidFormat(opts.output) {
		return errors.NewConfigFieldError(errors.CodeValidation,
			fmt.Sprintf("unsupported output format %q", opts.output), "output", opts.output)
	}

	req, err := buildRequest(cfg, opts)
	if err != nil {
		return err
	}

	stats := metrics.NewRegistry()
	recorders := metrics.Tee{stats}
	if cfg.IsMetricsEnabled() {
		pm := metrics.NewPrometheusMetrics()
		server := metrics.NewServer(cfg.Metrics.ListenAddr, pm)
		if err := server.Start(); err != nil {
			return errors.WrapConfigError(errors.CodeConfiguration, "failed to start metrics server", err)
		}
		defer func() {
			if err := server.Stop(); err != nil {
				logging.Warn("Failed to stop metrics server", "error", err)
			}
		}()
		recorders = append(recorders, pm)
	}

	engine := scanning.NewEngine(
		scanning.WithConcurrency(cfg.Scanning.Concurrency),
		scanning.WithResolver(cfg.Resolver()),
		scanning.WithMetrics(recorders),
		scanning.WithLogger(logging.Default()),
	)

	var bar *progressbar.ProgressBar
	var progress scanning.ProgressFunc
	if opts.progress && req.Range.Len() > 0 {
		bar = newProgressBar(errOut, req.Range.Len(), req.Target)
		progress = func(p scanning.Progress) {
			_ = bar.Set(p.Completed)
		}
	}

	result, err := engine.Scan(ctx, req, progress)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(errOut)
	}
	if err != nil {
		return err
	}

	if err := renderResult(out, result, opts.output, opts.openOnly); err != nil {
		return errors.WrapScanError(errors.CodeScanFailed, "failed to write results", err)
	}
	if opts.stats {
		if err := renderStats(errOut, stats); err != nil {
			return errors.WrapScanError(errors.CodeScanFailed, "failed to write statistics", err)
		}
	}

	if result.Partial {
		_, _ = color.New(color.FgYellow).Fprintf(errOut, "Scan interrupted: %d of %d ports probed\n",
			len(result.Outcomes), req.Range.Len())
		return errors.NewScanErrorWithTarget(errors.CodeCanceled, "scan interrupted", req.Target)
	}
	return nil
}

func newProgressBar(w io.Writer, total int, target string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(progressBarWidth),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]Scanning %s[reset]", target)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
