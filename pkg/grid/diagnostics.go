package grid

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Severity grades a soft diagnostic
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic is a contract violation or low-severity notice that does not
// abort the operation that raised it.
type Diagnostic struct {
	Time     time.Time `json:"time"`
	Severity Severity  `json:"-"`
	Level    string    `json:"level"`
	Source   string    `json:"source"`
	Message  string    `json:"message"`
}

// DiagnosticSink receives soft diagnostics. Implementations must not block.
type DiagnosticSink interface {
	Report(d Diagnostic)
}

// Logf is the function LogSink writes through. Tests may replace it.
var Logf func(format string, v ...interface{}) = log.Printf

// LogSink writes diagnostics to the package logger
type LogSink struct{}

func (LogSink) Report(d Diagnostic) {
	Logf("[%s] %s: %s", d.Level, d.Source, d.Message)
}

// Recorder keeps the most recent diagnostics in memory.
type Recorder struct {
	mu      sync.Mutex
	keep    int
	entries []Diagnostic
}

// NewRecorder returns a recorder retaining at most keep entries (keep <= 0
// means 256).
func NewRecorder(keep int) *Recorder {
	if keep <= 0 {
		keep = 256
	}
	return &Recorder{keep: keep}
}

func (r *Recorder) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, d)
	if over := len(r.entries) - r.keep; over > 0 {
		r.entries = append(r.entries[:0:0], r.entries[over:]...)
	}
}

// Entries returns a copy of the retained diagnostics, oldest first.
func (r *Recorder) Entries() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.entries...)
}

// Len returns the number of retained diagnostics.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// MultiSink fans a diagnostic out to several sinks
type MultiSink []DiagnosticSink

func (m MultiSink) Report(d Diagnostic) {
	for _, s := range m {
		if s != nil {
			s.Report(d)
		}
	}
}

func warn(sink DiagnosticSink, source, format string, args ...interface{}) {
	if sink == nil {
		sink = LogSink{}
	}
	sink.Report(Diagnostic{
		Time:     time.Now(),
		Severity: SeverityWarning,
		Level:    SeverityWarning.String(),
		Source:   source,
		Message:  fmt.Sprintf(format, args...),
	})
}
