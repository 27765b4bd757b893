package ui

import "strings"

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws per-second record counts as a strip of block characters,
// exactly width runes wide. Only the newest width samples are shown; a short
// history is padded on the left with the lowest block. Heights are relative
// to the largest sample in view.
func Sparkline(samples []int64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}

	var peak int64
	for _, v := range samples {
		peak = max(peak, v)
	}

	var b strings.Builder
	b.Grow(width * 3)
	for range width - len(samples) {
		b.WriteRune(sparkBlocks[0])
	}
	top := int64(len(sparkBlocks) - 1)
	for _, v := range samples {
		if peak <= 0 || v <= 0 {
			b.WriteRune(sparkBlocks[0])
			continue
		}
		b.WriteRune(sparkBlocks[v*top/peak])
	}
	return b.String()
}
