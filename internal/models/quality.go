package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/musicutil/internal/shared"
)

// Quality is an audio encoding tier. Lower values are better.
type Quality int

const (
	QualityUnknown Quality = iota
	Lossless
	M4A500
	MP3320
	MP3128
	M4A32
)

// Preference picks a position in a list of qualities sorted best first.
type Preference int

const (
	PreferBest Preference = iota
	PreferMiddle
	PreferLowest
)

var qualityLabels = map[Quality]string{
	Lossless: "Lossless",
	M4A500:   "500kbps",
	MP3320:   "320kbps",
	MP3128:   "128kbps",
	M4A32:    "32kbps",
}

// m4a32Alias is how some pages spell the lowest tier.
const m4a32Alias = "M4A 32kbps"

// Qualities returns every known quality, best first.
func Qualities() []Quality {
	return []Quality{Lossless, M4A500, MP3320, MP3128, M4A32}
}

// String returns the label the site prints for q.
func (q Quality) String() string {
	return qualityLabels[q]
}

// Valid reports whether q is one of the known tiers.
func (q Quality) Valid() bool {
	_, ok := qualityLabels[q]
	return ok
}

// Better reports whether q ranks above o. Unknown ranks below everything.
func (q Quality) Better(o Quality) bool {
	switch {
	case !q.Valid():
		return false
	case !o.Valid():
		return true
	default:
		return q < o
	}
}

// ParseQuality maps a label such as "320kbps" back to its [Quality]. Labels are case sensitive.
func ParseQuality(label string) (Quality, error) {
	label = strings.TrimSpace(label)
	if label == m4a32Alias {
		return M4A32, nil
	}
	for _, q := range Qualities() {
		if label == q.String() {
			return q, nil
		}
	}
	return QualityUnknown, fmt.Errorf("%w: %q", shared.ErrUnknownQuality, label)
}

// MatchQuality returns the first quality whose label appears inside text.
//
// "32kbps" is only tried after "320kbps" so the two cannot be confused.
func MatchQuality(text string) Quality {
	for _, q := range Qualities() {
		if strings.Contains(text, q.String()) {
			return q
		}
	}
	return QualityUnknown
}

// SelectQuality sorts qs best first, drops duplicates and unknowns, and
// returns the entry pref points at. The middle of n entries is index n/2.
func SelectQuality(pref Preference, qs ...Quality) (Quality, error) {
	sorted := make([]Quality, 0, len(qs))
	for _, q := range Qualities() {
		if slices.Contains(qs, q) {
			sorted = append(sorted, q)
		}
	}

	if len(sorted) == 0 {
		return QualityUnknown, shared.ErrNoQualities
	}

	switch pref {
	case PreferBest:
		return sorted[0], nil
	case PreferMiddle:
		return sorted[len(sorted)/2], nil
	case PreferLowest:
		return sorted[len(sorted)-1], nil
	default:
		return QualityUnknown, fmt.Errorf("%w: preference %d", shared.ErrInvalidArgument, pref)
	}
}

// ParsePreference accepts best, middle or lowest.
func ParsePreference(s string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "best":
		return PreferBest, nil
	case "middle", "mid":
		return PreferMiddle, nil
	case "lowest", "low", "worst":
		return PreferLowest, nil
	default:
		return PreferBest, fmt.Errorf("%w: preference %q", shared.ErrInvalidArgument, s)
	}
}

// MarshalJSON writes the label, or null for an unknown quality.
func (q Quality) MarshalJSON() ([]byte, error) {
	if !q.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(q.String())
}

// UnmarshalJSON reads a label written by [Quality.MarshalJSON].
func (q *Quality) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*q = QualityUnknown
		return nil
	}

	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}

	parsed, err := ParseQuality(label)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
