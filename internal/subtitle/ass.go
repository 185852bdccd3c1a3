package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	assTagRegex  = regexp.MustCompile(`\{[^}]*\}`)
	assTimeRegex = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})\.(\d{2})$`)
)

// column positions taken from the [Events] Format line
type assLayout struct {
	columns int
	start   int
	end     int
	text    int
}

func parseASS(r io.Reader) ([]Caption, error) {
	var captions []Caption
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	inEvents := false
	var layout *assLayout
	lineNum := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section := strings.ToLower(
				strings.TrimSuffix(strings.TrimPrefix(trimmed, "["), "]"),
			)
			inEvents = section == "events"
			continue
		}

		if !inEvents {
			continue
		}

		if strings.HasPrefix(trimmed, "Format:") {
			l, err := parseASSFormat(strings.TrimPrefix(trimmed, "Format:"))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			layout = l
			continue
		}

		if !strings.HasPrefix(trimmed, "Dialogue:") {
			continue
		}
		if layout == nil {
			return nil, fmt.Errorf(
				"line %d: Dialogue before Format line in [Events] section",
				lineNum,
			)
		}

		caption, err := layout.parseDialogue(strings.TrimPrefix(trimmed, "Dialogue:"))
		if err != nil {
			return nil, fmt.Errorf(
				"failed to parse Dialogue at line %d: %w",
				lineNum,
				err,
			)
		}
		if caption.Text == "" {
			continue
		}
		caption.Index = len(captions) + 1
		captions = append(captions, caption)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASS: %w", err)
	}

	if layout == nil {
		return nil, fmt.Errorf("ASS file missing Format line in [Events] section")
	}

	return captions, nil
}

func parseASSFormat(format string) (*assLayout, error) {
	columns := strings.Split(format, ",")
	l := &assLayout{columns: len(columns), start: -1, end: -1, text: -1}
	for i, col := range columns {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "start":
			l.start = i
		case "end":
			l.end = i
		case "text":
			l.text = i
		}
	}
	if l.start < 0 || l.end < 0 || l.text < 0 {
		return nil, fmt.Errorf("ASS Format line must name Start, End and Text columns")
	}
	return l, nil
}

func (l *assLayout) parseDialogue(content string) (Caption, error) {
	parts := splitASSFields(strings.TrimSpace(content), l.columns)
	if len(parts) < l.columns {
		return Caption{}, fmt.Errorf(
			"expected %d fields, got %d",
			l.columns,
			len(parts),
		)
	}

	start, err := parseASSTimestamp(strings.TrimSpace(parts[l.start]))
	if err != nil {
		return Caption{}, fmt.Errorf("invalid start: %w", err)
	}
	end, err := parseASSTimestamp(strings.TrimSpace(parts[l.end]))
	if err != nil {
		return Caption{}, fmt.Errorf("invalid end: %w", err)
	}

	return Caption{
		Start: start,
		End:   end,
		Text:  plainASSText(parts[l.text]),
	}, nil
}

// splits on commas, leaving any commas inside the last field intact
func splitASSFields(content string, numFields int) []string {
	if numFields <= 0 {
		return nil
	}
	return strings.SplitN(content, ",", numFields)
}

// H:MM:SS.cc
func parseASSTimestamp(ts string) (Timestamp, error) {
	m := assTimeRegex.FindStringSubmatch(ts)
	if m == nil {
		return 0, fmt.Errorf("invalid ASS timestamp %q", ts)
	}
	centis, err := strconv.Atoi(m[4])
	if err != nil {
		return 0, err
	}
	return timestampFromParts(m[1], m[2], m[3], strconv.Itoa(centis*10))
}

// drops override blocks and converts ASS line breaks
func plainASSText(text string) string {
	text = assTagRegex.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, `\N`, "\n")
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.ReplaceAll(text, `\h`, " ")
	return strings.TrimSpace(text)
}
