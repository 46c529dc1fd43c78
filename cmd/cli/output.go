package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/anstrom/portprobe/internal/metrics"
	"github.com/anstrom/portprobe/internal/scanning"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// scanReport is the document written for json and yaml output.
type scanReport struct {
	scanning.ScanResult `yaml:",inline"`
	Summary             scanning.Summary `json:"summary" yaml:"summary"`
}

func isValidFormat(format string) bool {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return true
	default:
		return false
	}
}

// renderResult writes result in format. With openOnly the listing is limited
// to open ports; the summary still counts every probed port.
func renderResult(w io.Writer, result *scanning.ScanResult, format string, openOnly bool) error {
	report := scanReport{ScanResult: *result, Summary: result.Summary()}
	if openOnly {
		report.Outcomes = result.Open()
	}

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return renderTable(w, report)
	}
}

func renderTable(w io.Writer, report scanReport) error {
	fmt.Fprintf(w, "Target: %s (%s)  Ports: %s\n", report.Target, report.Address, report.Range)

	if len(report.Outcomes) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header("Port", "Status", "RTT")
		for _, o := range report.Outcomes {
			if err := table.Append([]string{
				fmt.Sprintf("%d", o.Port),
				colorStatus(o.Status),
				o.RTT.Round(time.Microsecond).String(),
			}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	s := report.Summary
	fmt.Fprintf(w, "%d ports probed in %s: %s, %d refused, %d timed out, %d unreachable, %d unknown\n",
		s.Total, report.Duration.Round(time.Millisecond),
		color.GreenString("%d open", s.Open), s.Refused, s.TimedOut, s.Unreachable, s.Unknown)
	return nil
}

// renderStats prints probe counts and latencies per state and reason.
func renderStats(w io.Writer, reg *metrics.Registry) error {
	type row struct {
		state, reason string
		count         float64
	}
	var rows []row
	for _, m := range reg.GetMetrics() {
		if m.Name == metrics.MetricProbeTotal {
			rows = append(rows, row{m.Labels[metrics.LabelState], m.Labels[metrics.LabelReason], m.Value})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].state != rows[j].state {
			return rows[i].state > rows[j].state
		}
		return rows[i].reason < rows[j].reason
	})

	table := tablewriter.NewWriter(w)
	table.Header("State", "Reason", "Probes", "Mean RTT", "Max RTT")
	for _, r := range rows {
		mean, peakRTT := "-", "-"
		if h := reg.Get(metrics.MetricProbeDuration, metrics.Labels{metrics.LabelState: r.state}); h != nil {
			mean = seconds(h.Mean()).String()
			peakRTT = seconds(h.Max).String()
		}
		if err := table.Append([]string{r.state, r.reason, fmt.Sprintf("%.0f", r.count), mean, peakRTT}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if peak := reg.Get(metrics.MetricProbeActive, nil); peak != nil {
		fmt.Fprintf(w, "Peak probes in flight: %.0f\n", peak.Max)
	}
	return nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second)).Round(time.Microsecond)
}

func colorStatus(status scanning.Status) string {
	switch {
	case status.Open():
		return color.GreenString("%s", status)
	case status.Reason == scanning.ReasonRefused:
		return status.String()
	case status.Reason == scanning.ReasonTimedOut:
		return color.YellowString("%s", status)
	default:
		return color.RedString("%s", status)
	}
}
