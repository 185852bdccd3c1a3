package analyze

// Window is the half-open scene range [Start, End) of one chunk.
type Window struct {
	Start int
	End   int
}

func (w Window) Len() int {
	return w.End - w.Start
}

// Windows lists the chunks for n scenes. A window starts every
// chunkSize-overlap scenes, beginning at 0, as long as the start is inside
// the input; the last windows may be shorter than chunkSize.
func Windows(n, chunkSize, overlap int) []Window {
	step := chunkSize - overlap
	if n <= 0 || chunkSize <= 0 || step <= 0 {
		return nil
	}

	var windows []Window
	for i := 0; i < n; i += step {
		end := i + chunkSize
		if end > n {
			end = n
		}
		windows = append(windows, Window{Start: i, End: end})
	}
	return windows
}
