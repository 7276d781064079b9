package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"anistrm/internal/history"
	"anistrm/internal/preflight"
)

// health grades one line of status output.
type health int

const (
	healthNeutral health = iota
	healthGood
	healthDegraded
	healthBroken
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var healthStyles = map[health]struct{ tag, color string }{
	healthNeutral:  {"INFO", ansiBlue},
	healthGood:     {"OK", ansiGreen},
	healthDegraded: {"WARN", ansiYellow},
	healthBroken:   {"FAIL", ansiRed},
}

// runHealth maps a recorded run outcome onto a status grade.
func runHealth(status history.Status) health {
	switch status {
	case history.StatusSucceeded:
		return healthGood
	case history.StatusRunning:
		return healthNeutral
	case history.StatusInterrupted:
		return healthDegraded
	default:
		return healthBroken
	}
}

func checkHealth(result preflight.Result) health {
	if result.Passed {
		return healthGood
	}
	return healthBroken
}

const minLabelWidth = 10

type statusLine struct {
	label  string
	health health
	detail string
}

func (l statusLine) render(width int, colorize bool) string {
	style := healthStyles[l.health]
	line := fmt.Sprintf("  %-*s [%s]", width, l.label+":", style.tag)
	if l.detail != "" {
		line += " " + l.detail
	}
	if colorize {
		return style.color + line + ansiReset
	}
	return line
}

// statusPrinter writes titled blocks of status lines.
type statusPrinter struct {
	out      io.Writer
	colorize bool
	sections int
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, colorize: shouldColorize(out)}
}

func (p *statusPrinter) section(title string, lines ...statusLine) {
	if p.sections > 0 {
		fmt.Fprintln(p.out)
	}
	p.sections++
	heading := title + "\n" + strings.Repeat("-", len(title))
	if p.colorize {
		heading = ansiBlue + heading + ansiReset
	}
	fmt.Fprintln(p.out, heading)

	// Labels within a section share one column.
	width := minLabelWidth
	for _, line := range lines {
		width = max(width, len(line.label)+1)
	}
	for _, line := range lines {
		fmt.Fprintln(p.out, line.render(width, p.colorize))
	}
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// column describes one history or seasons table column.
type column struct {
	title    string
	numeric  bool
	maxWidth int
}

var (
	runColumns = []column{
		{title: "Run"},
		{title: "Started"},
		{title: "Mode"},
		{title: "Trigger"},
		{title: "Status"},
		{title: "Fetched", numeric: true},
		{title: "Created", numeric: true},
		{title: "Existing", numeric: true},
		{title: "Failed", numeric: true},
		{title: "Duration", numeric: true},
	}
	fileColumns = []column{
		{title: "Created"},
		{title: "Run"},
		{title: "Title", maxWidth: 72},
	}
	seasonColumns = []column{
		{title: "Window"},
		{title: "Season"},
		{title: "Listing URL"},
	}
)

func renderTable(columns []column, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if col.numeric {
			configs[i].Align = text.AlignRight
		}
		if col.maxWidth > 0 {
			configs[i].WidthMax = col.maxWidth
			configs[i].WidthMaxEnforcer = text.WrapSoft
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render() + "\n"
}

func emitJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
