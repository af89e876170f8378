package summarize

import "strings"

// sentenceSep is the literal delimiter used to approximate sentence
// boundaries. It is a heuristic: abbreviations and decimals can fool it,
// which is acceptable for presentation formatting.
const sentenceSep = ". "

// bulletPrefix marks a line as a bullet item.
const bulletPrefix = "• "

// Format shapes a flat summary for presentation in the given style.
// Non-bullet styles return text unchanged. BulletPoints splits on ". ",
// one bullet per sentence, dropping empty candidates and trailing periods.
//
// Existing bullet markers are stripped before re-bulleting, which makes
// the transform idempotent as long as no bullet retains an internal ". "
// sequence, so it is safe to reapply after recombination.
func Format(text string, style Style) string {
	if style != StyleBulletPoints {
		return text
	}

	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimPrefix(strings.TrimSpace(line), bulletPrefix)
		for _, candidate := range strings.Split(line, sentenceSep) {
			candidate = strings.TrimSpace(candidate)
			candidate = strings.TrimSuffix(candidate, ".")
			if candidate == "" {
				continue
			}
			bullets = append(bullets, candidate)
		}
	}
	if len(bullets) == 0 {
		return ""
	}

	return bulletPrefix + strings.Join(bullets, "\n"+bulletPrefix)
}
