package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintLogo renders the colored shoploom logo to stderr.
func PrintLogo() {
	w := os.Stderr
	frame := color.New(color.FgCyan)
	bars := color.New(color.FgYellow)
	axis := color.New(color.FgCyan, color.Faint)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +--------------------------+")
	bars.Fprintln(w, "   |  ====                    |")
	bars.Fprintln(w, "   |      ========            |")
	bars.Fprintln(w, "   |        ====  ======      |")
	axis.Fprintln(w, "   |--+--+--+--+--+--+--+--+--|")
	brand.Fprintln(w, "   |  S  H  O  P  L  O  O  M  |")
	frame.Fprintln(w, "   +--------------------------+")
	tag.Fprintf(w, "   %s Production scheduling\n", Dim("🏭"))
	fmt.Fprintln(w)
}

// idColors is a palette of distinct bold colors for differentiating
// resources and batches.
var idColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

func colorIndex(id string) int {
	var h uint32
	for _, c := range id {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(idColors)))
}

// Prefix returns a colored [id] prefix string. The same id always gets the
// same color.
func Prefix(id string) string {
	c := idColors[colorIndex(id)]
	return Dim("[") + c(id) + Dim("]")
}

// StatusIcon returns a colored status icon for compact table display.
func StatusIcon(status string) string {
	switch status {
	case "scheduled":
		return Green("✓")
	case "late":
		return Yellow("⏰")
	case "unscheduled":
		return Red("✗")
	case "warning":
		return Yellow("⚠")
	default:
		return Dim("◌")
	}
}

// UtilizationBar renders u (0..1) as a ten-cell bar.
func UtilizationBar(u float64) string {
	if u < 0 {
		u = 0
	}
	if u > 1 {
		u = 1
	}
	filled := int(u*10 + 0.5)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
	switch {
	case u >= 0.9:
		return Red(bar)
	case u >= 0.6:
		return Yellow(bar)
	default:
		return Green(bar)
	}
}
