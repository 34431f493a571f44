package dump

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const headerPrefix = "# file: "

var (
	// headerRegex matches the `# file: <path>` line that opens a file block.
	// The path runs to end of line and may contain any character but newline.
	headerRegex = regexp.MustCompile(`^# file: (.+)$`)

	// entryRegex matches an attribute line: everything before the first '='
	// is the name, everything after is the raw value token.
	entryRegex = regexp.MustCompile(`^([^=]+)=(.+)$`)
)

// MalformedDumpError reports dump text that does not conform to the dump
// grammar, such as an attribute line appearing before any `# file:` header.
type MalformedDumpError struct {
	Line   int // 1-based line number, 0 when no single line is at fault
	Reason string
}

func (e *MalformedDumpError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed dump: line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed dump: %s", e.Reason)
}

// IsMalformed returns a boolean indicating whether the error reports
// malformed dump text.
func IsMalformed(err error) bool {
	var m *MalformedDumpError
	return errors.As(err, &m)
}

// Parse converts dump text into per-file attribute records. Each `# file:`
// header opens a record; each name=value line below it is appended to that
// record in line order. Blank lines and lines matching neither form are
// ignored. An attribute line before any header is a malformed dump.
func Parse(text string) (Dump, error) {
	var d Dump
	for i, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		if m := headerRegex.FindStringSubmatch(line); m != nil {
			d = append(d, Record{Path: m[1]})
			continue
		}
		if m := entryRegex.FindStringSubmatch(line); m != nil {
			if len(d) == 0 {
				return nil, &MalformedDumpError{
					Line:   i + 1,
					Reason: fmt.Sprintf("attribute line %q before any '# file:' header", line),
				}
			}
			cur := &d[len(d)-1]
			cur.Attrs = append(cur.Attrs, Entry{Name: m[1], Value: m[2]})
		}
	}
	return d, nil
}
