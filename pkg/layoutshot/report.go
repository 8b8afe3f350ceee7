package layoutshot

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
)

// Print writes the footer check in the console format of the run. A missing
// footer passes with a note.
func (rep *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "\nCopyright footer check:")
	fmt.Fprintln(w, "- Visible:", rep.Footer.Visible)

	if rep.Footer.Visible {
		fmt.Fprintln(w, "- Height:", formatPixels(rep.Footer.Height), "px")
		fmt.Fprintln(w, "- Width:", formatPixels(rep.Footer.Width), "px")
		fmt.Fprintln(w, "- Text:", rep.Footer.Text)
	}

	switch rep.Verdict {
	case VerdictTooTall:
		fmt.Fprintln(w, "⚠️  Footer might be too tall for mobile")
	case VerdictReasonable:
		fmt.Fprintln(w, "✅ Footer height is reasonable")
	default:
		fmt.Fprintln(w, "✅ Footer height is reasonable")
		fmt.Fprintln(w, "- Note: copyright footer not found")
	}
}

// PrintSaved writes the closing line naming both artifacts.
func (rep *Report) PrintSaved(w io.Writer) {
	fmt.Fprintf(w, "\nScreenshots saved! Check %s and %s\n",
		filepath.Base(rep.Desktop.Path), filepath.Base(rep.Mobile.Path))
}

// formatPixels prints whole pixels without a fraction and keeps any
// sub-pixel part as measured.
func formatPixels(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
