package layoutshot

import (
	"encoding/json"
	"fmt"
)

// DefaultFooterSelector matches the copyright footer checked on mobile.
const DefaultFooterSelector = ".copyright-footer"

// FooterMetrics is the rendered geometry and text of the footer element.
type FooterMetrics struct {
	Visible     bool    `json:"visible"`
	Height      float64 `json:"height"`
	Width       float64 `json:"width"`
	Bottom      float64 `json:"bottom"`
	Text        string  `json:"text"`
	FontSize    string  `json:"fontSize"`
	Padding     string  `json:"padding"`
	Overlapping bool    `json:"overlapping"`
}

// footerScript is evaluated in the page with the selector as its only argument.
const footerScript = `(selector) => {
	const footer = document.querySelector(selector);
	if (!footer) {
		return { visible: false };
	}
	const rect = footer.getBoundingClientRect();
	const styles = window.getComputedStyle(footer);
	return {
		visible: true,
		height: rect.height,
		width: rect.width,
		bottom: rect.bottom,
		text: footer.textContent.trim(),
		fontSize: styles.fontSize,
		padding: styles.padding,
		overlapping: rect.bottom > window.innerHeight
	};
}`

// footerExpression returns footerScript applied to selector as a single
// expression, for backends that cannot pass call arguments.
func footerExpression(selector string) (string, error) {
	arg, err := json.Marshal(selector)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s)(%s)", footerScript, arg), nil
}

// Verdict is the outcome of the footer height check.
type Verdict int

const (
	VerdictAbsent Verdict = iota
	VerdictReasonable
	VerdictTooTall
)

func (v Verdict) String() string {
	switch v {
	case VerdictReasonable:
		return "reasonable"
	case VerdictTooTall:
		return "too tall"
	default:
		return "absent"
	}
}

// Classify applies the height threshold. Only heights strictly above
// maxHeight are too tall.
func Classify(m FooterMetrics, maxHeight float64) Verdict {
	if !m.Visible {
		return VerdictAbsent
	}
	if m.Height > maxHeight {
		return VerdictTooTall
	}
	return VerdictReasonable
}
