package scanning

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/anstrom/portprobe/internal/errors"
)

const (
	// MinPort and MaxPort bound every PortRange.
	MinPort = 1
	MaxPort = 65535

	// Port validation constants.
	expectedPortRangeParts = 2
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their json names so errors read "range.end", not "End".
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// PortRange is an inclusive range of TCP ports.
type PortRange struct {
	Start int `json:"start" yaml:"start" validate:"min=1,max=65535"`
	End   int `json:"end" yaml:"end" validate:"min=1,max=65535,gtefield=Start"`
}

// NewPortRange returns a validated range.
func NewPortRange(start, end int) (PortRange, error) {
	r := PortRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return PortRange{}, err
	}
	return r, nil
}

// ParsePortRange parses "80" or "1-1024" into a validated range.
func ParsePortRange(spec string) (PortRange, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return PortRange{}, errors.NewConfigFieldError(errors.CodeValidation, "empty port specification", "range", spec)
	}

	if !strings.Contains(spec, "-") {
		port, err := strconv.Atoi(spec)
		if err != nil {
			return PortRange{}, errors.NewConfigFieldError(errors.CodeValidation,
				fmt.Sprintf("invalid port: %s", spec), "range", spec)
		}
		return NewPortRange(port, port)
	}

	parts := strings.Split(spec, "-")
	if len(parts) != expectedPortRangeParts {
		return PortRange{}, errors.NewConfigFieldError(errors.CodeValidation,
			fmt.Sprintf("invalid port range format: %s", spec), "range", spec)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return PortRange{}, errors.NewConfigFieldError(errors.CodeValidation,
			fmt.Sprintf("invalid start port: %s", parts[0]), "range.start", parts[0])
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return PortRange{}, errors.NewConfigFieldError(errors.CodeValidation,
			fmt.Sprintf("invalid end port: %s", parts[1]), "range.end", parts[1])
	}
	return NewPortRange(start, end)
}

// Validate checks 1 <= Start <= End <= 65535.
func (r PortRange) Validate() error {
	return translateValidation(validate.Struct(r))
}

// Len returns the number of ports in the range.
func (r PortRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Contains reports whether port lies inside the range.
func (r PortRange) Contains(port int) bool {
	return port >= r.Start && port <= r.End
}

func (r PortRange) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// State is the coarse outcome of a probe.
type State int

const (
	StateOpen State = iota
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON and YAML output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Reason classifies why a probe did not produce an open connection.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonRefused
	ReasonTimedOut
	ReasonUnreachable
	ReasonUnknown
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonRefused:
		return "refused"
	case ReasonTimedOut:
		return "timed_out"
	case ReasonUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// MarshalText renders the reason by name in JSON and YAML output.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Status is either Open, or Failed with a reason and the raw OS error number
// (0 when the failure carried none).
type Status struct {
	State  State  `json:"state" yaml:"state"`
	Reason Reason `json:"reason" yaml:"reason"`
	Code   int    `json:"code" yaml:"code"`
}

// Open reports whether the probe completed a TCP handshake.
func (s Status) Open() bool {
	return s.State == StateOpen
}

func (s Status) String() string {
	if s.Open() {
		return StateOpen.String()
	}
	if s.Code != 0 {
		return fmt.Sprintf("%s (%d)", s.Reason, s.Code)
	}
	return s.Reason.String()
}

// ProbeOutcome is the classified result of one probe. It is never modified
// after the probe returns it.
type ProbeOutcome struct {
	Port   int           `json:"port" yaml:"port"`
	Status Status        `json:"status" yaml:"status"`
	RTT    time.Duration `json:"rtt" yaml:"rtt"`
	Err    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// ScanRequest describes one scan. It is not modified by the engine.
type ScanRequest struct {
	Target  string        `json:"target" validate:"required,hostname_rfc1123|ip"`
	Range   PortRange     `json:"range"`
	Timeout time.Duration `json:"timeout" validate:"gt=0"`
}

// NewScanRequest builds a request for target over [start, end].
func NewScanRequest(target string, start, end int, timeout time.Duration) ScanRequest {
	return ScanRequest{
		Target:  strings.TrimSpace(target),
		Range:   PortRange{Start: start, End: end},
		Timeout: timeout,
	}
}

// Validate checks the request without touching the network. Failures are
// *errors.ConfigError values.
func (r ScanRequest) Validate() error {
	return translateValidation(validate.Struct(r))
}

// translateValidation turns the first validator failure into a ConfigError.
func translateValidation(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.WrapConfigError(errors.CodeValidation, "validation failed", err)
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	code := errors.CodeValidation
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "min":
		msg = fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gtefield":
		msg = fmt.Sprintf("%s must not be less than %s", field, strings.ToLower(fe.Param()))
	case "gt":
		msg = fmt.Sprintf("%s must be positive", field)
	case "hostname_rfc1123|ip":
		code = errors.CodeTargetInvalid
		msg = fmt.Sprintf("%s is not a valid hostname or IP address", field)
	default:
		msg = fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
	return errors.NewConfigFieldError(code, msg, field, fe.Value())
}

// Progress is emitted after every completed probe.
type Progress struct {
	Completed int
	Total     int
	// Fraction is Completed/Total; it reaches exactly 1.0 only when every
	// probe has completed.
	Fraction float64
}

// ProgressFunc receives progress updates. Calls are serialized and their
// Fraction values never decrease.
type ProgressFunc func(Progress)

// Summary counts outcomes by classification.
type Summary struct {
	Total       int `json:"total" yaml:"total"`
	Open        int `json:"open" yaml:"open"`
	Refused     int `json:"refused" yaml:"refused"`
	TimedOut    int `json:"timed_out" yaml:"timed_out"`
	Unreachable int `json:"unreachable" yaml:"unreachable"`
	Unknown     int `json:"unknown" yaml:"unknown"`
}

// ScanResult contains the outcomes of a scan, ordered by ascending port.
type ScanResult struct {
	ID      string    `json:"id" yaml:"id"`
	Target  string    `json:"target" yaml:"target"`
	Address string    `json:"address" yaml:"address"`
	Range   PortRange `json:"range" yaml:"range"`
	// Outcomes holds one entry per probed port, sorted by port.
	Outcomes []ProbeOutcome `json:"outcomes" yaml:"outcomes"`
	// Partial is set when the scan was canceled before every port was probed.
	Partial   bool          `json:"partial" yaml:"partial"`
	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	EndTime   time.Time     `json:"end_time" yaml:"end_time"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// NewScanResult creates a new scan result with the current time as start time.
func NewScanResult(id string, req ScanRequest) *ScanResult {
	return &ScanResult{
		ID:        id,
		Target:    req.Target,
		Range:     req.Range,
		StartTime: time.Now(),
		Outcomes:  make([]ProbeOutcome, 0),
	}
}

// Complete marks the scan as complete and calculates duration.
func (r *ScanResult) Complete() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// Open returns the outcomes whose handshake succeeded.
func (r *ScanResult) Open() []ProbeOutcome {
	open := make([]ProbeOutcome, 0)
	for _, o := range r.Outcomes {
		if o.Status.Open() {
			open = append(open, o)
		}
	}
	return open
}

// Failed returns the outcomes that did not connect.
func (r *ScanResult) Failed() []ProbeOutcome {
	failed := make([]ProbeOutcome, 0)
	for _, o := range r.Outcomes {
		if !o.Status.Open() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Summary counts the outcomes by classification.
func (r *ScanResult) Summary() Summary {
	s := Summary{Total: len(r.Outcomes)}
	for _, o := range r.Outcomes {
		if o.Status.Open() {
			s.Open++
			continue
		}
		switch o.Status.Reason {
		case ReasonRefused:
			s.Refused++
		case ReasonTimedOut:
			s.TimedOut++
		case ReasonUnreachable:
			s.Unreachable++
		default:
			s.Unknown++
		}
	}
	return s
}
