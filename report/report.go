// Package report turns channel distances into OK/ANOMALY verdicts and
// renders them as a Markdown document.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/mdobak/go-xerrors"

	"github.com/cwbudde/algo-health/health"
)

// DefaultTitle is the heading used when no title is configured.
const DefaultTitle = "Spectral Health Report"

// Status is the verdict for one channel.
type Status int

const (
	// StatusOK means the distance is within the threshold.
	StatusOK Status = iota
	// StatusAnomaly means the distance exceeds the threshold.
	StatusAnomaly
)

// String returns "OK" or "ANOMALY".
func (s Status) String() string {
	if s == StatusAnomaly {
		return "ANOMALY"
	}
	return "OK"
}

// MarshalText encodes the status as its name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Row is one evaluated channel.
type Row struct {
	Channel   string  `json:"channel"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
	// Defaulted is set when the channel had no threshold of its own.
	Defaulted bool   `json:"defaulted,omitempty"`
	Status    Status `json:"status"`
}

// Report is the evaluated outcome of one scoring run.
type Report struct {
	Title  string    `json:"title"`
	Date   time.Time `json:"date"`
	Metric string    `json:"metric,omitempty"`
	Rows   []Row     `json:"rows"`

	// Missing lists profile channels that had no input. Unknown lists
	// inputs that the profile does not know. Neither trips the verdict.
	Missing []string `json:"missing,omitempty"`
	Unknown []string `json:"unknown,omitempty"`
}

// Option configures Evaluate.
type Option func(*config)

type config struct {
	title     string
	date      time.Time
	metric    string
	threshold float64
}

// WithTitle sets the report heading.
func WithTitle(title string) Option {
	return func(c *config) {
		if title != "" {
			c.title = title
		}
	}
}

// WithDate fixes the report timestamp. The default is the time of the call.
func WithDate(t time.Time) Option {
	return func(c *config) { c.date = t }
}

// WithMetric records which distance produced the scores.
func WithMetric(metric string) Option {
	return func(c *config) { c.metric = metric }
}

// WithDefaultThreshold sets the threshold for channels missing from the
// threshold map. The default is 0, so any deviation is an anomaly.
func WithDefaultThreshold(v float64) Option {
	return func(c *config) { c.threshold = v }
}

// Evaluate compares every distance in s with its threshold. A channel is
// anomalous when its distance is strictly greater than the threshold. Rows
// are sorted by channel name.
func Evaluate(s health.Scores, thresholds map[string]float64, opts ...Option) Report {
	cfg := config{title: DefaultTitle}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.date.IsZero() {
		cfg.date = time.Now()
	}
	r := Report{Title: cfg.title, Date: cfg.date, Metric: cfg.metric}

	names := make([]string, 0, len(s.Distances))
	for name := range s.Distances {
		names = append(names, name)
	}
	sort.Strings(names)

	r.Rows = make([]Row, 0, len(names))
	for _, name := range names {
		row := Row{Channel: name, Distance: s.Distances[name]}
		th, ok := thresholds[name]
		if !ok {
			th = cfg.threshold
			row.Defaulted = true
		}
		row.Threshold = th
		if row.Distance > th {
			row.Status = StatusAnomaly
		}
		r.Rows = append(r.Rows, row)
	}

	r.Missing = append([]string(nil), s.Missing...)
	r.Unknown = append([]string(nil), s.Unknown...)
	return r
}

// Anomalous reports whether any channel exceeded its threshold.
func (r Report) Anomalous() bool {
	for _, row := range r.Rows {
		if row.Status == StatusAnomaly {
			return true
		}
	}
	return false
}

// Anomalies returns the names of the anomalous channels.
func (r Report) Anomalies() []string {
	var out []string
	for _, row := range r.Rows {
		if row.Status == StatusAnomaly {
			out = append(out, row.Channel)
		}
	}
	return out
}

var markdown = template.Must(template.New("report").Funcs(template.FuncMap{
	"f6":     func(v float64) string { return fmt.Sprintf("%.6f", v) },
	"badge":  badge,
	"ticked": ticked,
}).Parse(`# {{.Title}}

**Date:** {{.Date.Format "2006-01-02 15:04:05"}}
{{- if .Metric}}
**Metric:** {{.Metric}}
{{- end}}

## Channel Status

| Channel | Distance | Threshold | Status |
|---------|----------|-----------|--------|
{{- range .Rows}}
| ` + "`{{.Channel}}`" + ` | {{f6 .Distance}} | {{f6 .Threshold}}{{if .Defaulted}}*{{end}} | {{badge .Status}} |
{{- end}}
{{- if .Missing}}

Channels without input: {{ticked .Missing}}
{{- end}}
{{- if .Unknown}}

Inputs not in the profile: {{ticked .Unknown}}
{{- end}}

{{if .Anomalous -}}
> [!WARNING]
> Anomalies detected! Please check the affected channels.
{{- else -}}
> [!NOTE]
> All systems nominal.
{{- end}}
`))

func badge(s Status) string {
	if s == StatusAnomaly {
		return "🔴 **ANOMALY**"
	}
	return "🟢 OK"
}

func ticked(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = "`" + n + "`"
	}
	return strings.Join(q, ", ")
}

// WriteMarkdown renders r as Markdown.
func (r Report) WriteMarkdown(w io.Writer) error {
	if err := markdown.Execute(w, r); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteFile renders r as Markdown into path.
func (r Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.New(err)
	}
	if err := r.WriteMarkdown(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return xerrors.New(err)
	}
	return nil
}
