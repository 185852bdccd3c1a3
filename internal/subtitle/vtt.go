package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	// hours are optional on each side independently
	vttTimingRegex = regexp.MustCompile(
		`(?:(\d{1,2}):)?(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(?:(\d{1,2}):)?(\d{2}):(\d{2})\.(\d{3})`,
	)
	vttTagRegex = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
)

func parseVTT(r io.Reader) ([]Caption, error) {
	var captions []Caption
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current *Caption
	var textLines []string
	lineNum := 0
	headerParsed := false
	index := 0

	flush := func() {
		if current != nil && len(textLines) > 0 {
			current.Text = strings.Join(textLines, "\n")
			captions = append(captions, *current)
		}
		current = nil
		textLines = nil
	}

	skipBlock := func() {
		for scanner.Scan() {
			lineNum++
			if strings.TrimSpace(scanner.Text()) == "" {
				break
			}
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		if !headerParsed && strings.HasPrefix(trimmed, "WEBVTT") {
			headerParsed = true
			skipBlock()
			continue
		}

		if current == nil &&
			(strings.HasPrefix(trimmed, "NOTE") ||
				strings.HasPrefix(trimmed, "STYLE") ||
				strings.HasPrefix(trimmed, "REGION")) {
			skipBlock()
			continue
		}

		if trimmed == "" {
			flush()
			continue
		}

		var parts []string
		if m := vttTimingRegex.FindStringSubmatch(line); len(m) == 9 {
			parts = m[1:]
			for _, i := range []int{0, 4} {
				if parts[i] == "" {
					parts[i] = "0"
				}
			}
		}

		if parts != nil {
			flush()

			start, err := timestampFromParts(parts[0], parts[1], parts[2], parts[3])
			if err != nil {
				return nil, fmt.Errorf(
					"invalid start timestamp at line %d: %w",
					lineNum,
					err,
				)
			}
			end, err := timestampFromParts(parts[4], parts[5], parts[6], parts[7])
			if err != nil {
				return nil, fmt.Errorf(
					"invalid end timestamp at line %d: %w",
					lineNum,
					err,
				)
			}

			index++
			current = &Caption{Index: index, Start: start, End: end}
			continue
		}

		// cue identifiers precede the timing line and are dropped
		if current != nil {
			textLines = append(textLines, vttTagRegex.ReplaceAllString(line, ""))
		}
	}

	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading VTT: %w", err)
	}

	return captions, nil
}
