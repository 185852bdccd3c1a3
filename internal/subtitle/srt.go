package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var srtTimingRegex = regexp.MustCompile(
	`(\d{1,2}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{1,2}):(\d{2}):(\d{2})[,.](\d{3})`,
)

// parseSRT drops cues without text. A timing line always opens a new cue,
// even when the blank separator before it is missing.
func parseSRT(r io.Reader) ([]Caption, error) {
	var captions []Caption
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current *Caption
	timed := false
	var textLines []string
	lineNum := 0

	flush := func() {
		if current != nil && timed && len(textLines) > 0 {
			current.Text = strings.Join(textLines, "\n")
			captions = append(captions, *current)
		}
		current = nil
		timed = false
		textLines = nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if current == nil {
			if index, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
				current = &Caption{Index: index}
				continue
			}
		}

		matches := srtTimingRegex.FindStringSubmatch(line)
		if len(matches) == 9 {
			index := len(captions) + 1
			switch {
			case current != nil && !timed:
				index = current.Index
			case timed:
				// the previous cue ran into this one without a blank line;
				// its last line is this cue's index when it is a number
				if n := len(textLines); n > 0 {
					if i, err := strconv.Atoi(strings.TrimSpace(textLines[n-1])); err == nil {
						index = i
						textLines = textLines[:n-1]
					}
				}
				flush()
			}

			start, err := timestampFromParts(matches[1], matches[2], matches[3], matches[4])
			if err != nil {
				return nil, fmt.Errorf(
					"invalid start timestamp at line %d: %w",
					lineNum,
					err,
				)
			}
			end, err := timestampFromParts(matches[5], matches[6], matches[7], matches[8])
			if err != nil {
				return nil, fmt.Errorf(
					"invalid end timestamp at line %d: %w",
					lineNum,
					err,
				)
			}

			current = &Caption{Index: index, Start: start, End: end}
			timed = true
			continue
		}

		if current != nil && timed {
			textLines = append(textLines, line)
		}
	}

	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading SRT: %w", err)
	}

	return captions, nil
}
