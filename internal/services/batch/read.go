package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	perr "sentimentd/internal/platform/errors"
)

// Input formats
const (
	FormatAuto  = "auto"
	FormatLines = "lines"
	FormatJSONL = "jsonl"
)

// Formats lists the accepted input formats
func Formats() []string { return []string{FormatAuto, FormatLines, FormatJSONL} }

// Item is one input text and the 1 based line it came from
type Item struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

type jsonLine struct {
	Text *string `json:"text"`
}

// maxLine bounds a single input line
const maxLine = 1 << 20

// Read parses r as plain lines or JSONL objects with a text field
// blank lines are skipped in both formats; auto picks jsonl when a line starts with {
func Read(r io.Reader, format string) ([]Item, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var out []Item
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		f := format
		if f == FormatAuto || f == "" {
			f = FormatLines
			if strings.HasPrefix(strings.TrimSpace(raw), "{") {
				f = FormatJSONL
			}
		}
		switch f {
		case FormatLines:
			out = append(out, Item{Line: line, Text: raw})
		case FormatJSONL:
			var jl jsonLine
			if err := json.Unmarshal([]byte(raw), &jl); err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "line %d: bad json", line)
			}
			if jl.Text == nil {
				return nil, perr.Validationf(fmt.Sprintf("line %d", line), "line %d: missing text", line)
			}
			out = append(out, Item{Line: line, Text: *jl.Text})
		default:
			return nil, perr.InvalidArgf("unknown format %q", format)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "read input")
	}
	return out, nil
}
