package syntax

import (
	"fmt"
	"os"
	"strings"
)

type Location struct {
	Filename string
	Line     int
	Column   int
}

func (l Location) String() string {
	if l.Filename == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.Filename, l.Line, l.Column)
}

// Error is a parse failure with the position it was detected at.
type Error struct {
	Message  string
	Location Location
	Help     string
}

func (e *Error) Error() string {
	if e.Location.Line > 0 {
		return fmt.Sprintf("%s: %s", e.Location, e.Message)
	}
	return e.Message
}

// FormatError renders err with a few lines of surrounding source and a
// marker under the offending column. When src is nil the file named in the
// error location is read from disk instead.
func FormatError(err *Error, src *Source) string {
	var b strings.Builder

	b.WriteString("✗ ")
	b.WriteString(err.Message)
	b.WriteString("\n")

	if err.Location.Line == 0 {
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  ╭─[%s]\n", err.Location))

	lines, first := sourceContext(err.Location, src)
	if len(lines) > 0 {
		b.WriteString("  │\n")
		for i, line := range lines {
			lineNum := first + i
			b.WriteString(fmt.Sprintf("%3d│ %s\n", lineNum, line))
			if lineNum != err.Location.Line {
				continue
			}

			pad := columnPadding(line, err.Location.Column)
			b.WriteString("  │ " + pad + "─┬─ here\n")
			b.WriteString("  │ " + pad + " ╰─ " + err.Message + "\n")
		}
	}

	b.WriteString("  │\n")

	if err.Help != "" {
		b.WriteString("  │ 💡 Help: ")
		b.WriteString(err.Help)
		b.WriteString("\n  │\n")
	}

	return b.String()
}

// columnPadding reproduces tabs from the source line so the marker lines up.
func columnPadding(line string, column int) string {
	var b strings.Builder
	for j := 0; j < column-1; j++ {
		if j < len(line) && line[j] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// sourceContext returns up to two lines either side of the error line along
// with the 1-based number of the first returned line.
func sourceContext(loc Location, src *Source) ([]string, int) {
	var text string
	if src != nil {
		text = src.Text
	} else {
		content, err := os.ReadFile(loc.Filename)
		if err != nil {
			return nil, 0
		}
		text = string(content)
	}

	lines := strings.Split(text, "\n")
	if loc.Line < 1 || loc.Line > len(lines) {
		return nil, 0
	}

	start := loc.Line - 3
	if start < 0 {
		start = 0
	}
	end := loc.Line + 2
	if end > len(lines) {
		end = len(lines)
	}

	return lines[start:end], start + 1
}
