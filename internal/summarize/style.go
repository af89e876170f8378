package summarize

// Style selects the presentation mode of a summary.
type Style string

// Supported summary styles.
const (
	StyleDetailed     Style = "detailed"
	StyleBrief        Style = "brief"
	StyleBulletPoints Style = "bullet_points"
)

// styleTarget holds the generation length targets for a style.
type styleTarget struct {
	maxLength int
	minLength int
}

// Length targets per style. Max/min pairs keep a margin of at least 20 so
// that min stays strictly below max after derivation clamping.
var styleTargets = map[Style]styleTarget{
	StyleDetailed:     {maxLength: 300, minLength: 150},
	StyleBrief:        {maxLength: 100, minLength: 40},
	StyleBulletPoints: {maxLength: 200, minLength: 80},
}

// ParseStyle converts a user-supplied string into a Style.
// Unrecognized values fall back to StyleDetailed rather than failing:
// the style only shapes output, so a bad value should not reject a request.
func ParseStyle(s string) Style {
	switch Style(s) {
	case StyleDetailed, StyleBrief, StyleBulletPoints:
		return Style(s)
	default:
		return StyleDetailed
	}
}

// target returns the length targets for a style, defaulting to Detailed.
func (s Style) target() styleTarget {
	if t, ok := styleTargets[s]; ok {
		return t
	}
	return styleTargets[StyleDetailed]
}

// MaxLength returns the whole-text maximum summary length for the style.
func (s Style) MaxLength() int {
	return s.target().maxLength
}
