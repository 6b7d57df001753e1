package output

import (
	"fmt"
	"strings"
)

// DefaultBarWidth is the number of cells in a completion bar.
const DefaultBarWidth = 20

// Bar renders a percentage as a fixed-width bar, e.g. "[#####-----]  50%".
// Values outside 0..100 are clamped.
func Bar(percent, width int) string {
	if width <= 0 {
		width = DefaultBarWidth
	}
	percent = max(0, min(100, percent))
	filled := width * percent / 100
	return fmt.Sprintf("[%s%s] %3d%%",
		strings.Repeat("#", filled),
		strings.Repeat("-", width-filled),
		percent,
	)
}
