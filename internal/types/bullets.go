package types

import "strings"

// BulletMarkers is the fixed set of characters that open a bullet line
const BulletMarkers = "•●○■□▪▫–-*◦‣►➤"

// IsBulletLine reports whether the first non-whitespace character of line is a bullet marker
func IsBulletLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		return strings.ContainsRune(BulletMarkers, r)
	}
	return false
}

// StripBullet removes leading bullet markers and surrounding whitespace
func StripBullet(line string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), BulletMarkers))
}

// DescriptionBullets returns the non-empty bullet texts of a description
func DescriptionBullets(description string) []string {
	var bullets []string
	for _, line := range strings.Split(description, "\n") {
		if !IsBulletLine(line) {
			continue
		}
		if text := StripBullet(line); text != "" {
			bullets = append(bullets, text)
		}
	}
	return bullets
}

// Bullets returns every bullet across all experience descriptions in order
func (r *StructuredResume) Bullets() []string {
	var bullets []string
	for _, exp := range r.Experience {
		bullets = append(bullets, DescriptionBullets(exp.Description)...)
	}
	return bullets
}
