// Package cli provides CLI output formatting utilities.
package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

// SessionsFormatter handles session directory output.
type SessionsFormatter struct {
	w io.Writer
}

// NewSessionsFormatter creates a new sessions formatter.
func NewSessionsFormatter(w io.Writer) *SessionsFormatter {
	return &SessionsFormatter{w: w}
}

// SessionListOptions configures session list output.
type SessionListOptions struct {
	SortBy     string // "time", "name" or "count"
	Descending bool
	Template   string // Custom Go template
}

// FormatList outputs session keys one per line.
func (f *SessionsFormatter) FormatList(sessions []transcript.SessionSummary) error {
	for _, s := range sessions {
		fmt.Fprintln(f.w, s.Key)
	}
	return nil
}

// SessionSummaryData is the template data for session summary.
type SessionSummaryData struct {
	Key      string
	Title    string
	Project  string
	Count    int
	LastSeen time.Time
	LastSeq  float64
}

const defaultSessionSummaryTemplate = `{{range .}}{{.Key}}{{if .Title}}  {{.Title}}{{end}}
  Events:    {{.Count}}{{if not .LastSeen.IsZero}}
  Last seen: {{.LastSeen.Format "2006-01-02 15:04:05"}}{{end}}{{if .Project}}
  Project:   {{.Project}}{{end}}

{{end}}`

// SessionSummaryTemplateHelp documents the template variables.
const SessionSummaryTemplateHelp = `Template variables:
  {{.Key}}       Session key
  {{.Title}}     First user prompt (if available)
  {{.Project}}   Project tag given at ingest (if any)
  {{.Count}}     Number of events
  {{.LastSeen}}  Timestamp of the newest event (time.Time)
  {{.LastSeq}}   Highest sequence number`

// FormatSummary outputs detailed session information.
func (f *SessionsFormatter) FormatSummary(sessions []transcript.SessionSummary, opts SessionListOptions) error {
	sortSessions(sessions, opts.SortBy, opts.Descending)

	data := make([]SessionSummaryData, len(sessions))
	for i, s := range sessions {
		data[i] = SessionSummaryData{
			Key:     s.Key,
			Title:   s.Title,
			Project: s.Project,
			Count:   s.Count,
			LastSeq: s.LastSeq,
		}
		if s.LastSeenMs > 0 {
			data[i].LastSeen = time.UnixMilli(int64(s.LastSeenMs))
		}
	}

	tmplStr := defaultSessionSummaryTemplate
	if opts.Template != "" {
		tmplStr = opts.Template
	}

	tmpl, err := template.New("sessions").Parse(tmplStr)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	return tmpl.Execute(f.w, data)
}

func sortSessions(sessions []transcript.SessionSummary, sortBy string, descending bool) {
	less := func(i, j int) bool { return false }
	switch sortBy {
	case "name":
		less = func(i, j int) bool {
			return strings.ToLower(sessions[i].Key) < strings.ToLower(sessions[j].Key)
		}
	case "count":
		less = func(i, j int) bool { return sessions[i].Count < sessions[j].Count }
	case "time", "":
		less = func(i, j int) bool { return sessions[i].LastSeenMs < sessions[j].LastSeenMs }
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if descending {
			return less(j, i)
		}
		return less(i, j)
	})
}
