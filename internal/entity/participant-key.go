package entity

import (
	"slices"
	"strconv"
	"strings"
)

// NormalizeParticipants returns the ids sorted ascending with duplicates removed.
func NormalizeParticipants(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// ParticipantKey is the canonical form of a participant set: the normalized
// ids joined by commas. Rooms are unique by this key.
func ParticipantKey(ids []int64) string {
	normalized := NormalizeParticipants(ids)
	parts := make([]string, len(normalized))
	for i, id := range normalized {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
