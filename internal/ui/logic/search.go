package logic

import (
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"

	"modelsnap/internal/domain"
)

// PerformSearch returns the indices of pictures matching the query.
// Plain queries match on the picture name, "origin:" queries filter by
// where the picture came from. When nothing matches a plain query the
// closest name by edit distance is returned so a typo still lands near
// the intended picture.
func PerformSearch(pictures []domain.Picture, query string) []int {
	if query == "" {
		return nil
	}

	lowerQuery := strings.ToLower(query)

	if strings.HasPrefix(lowerQuery, "origin:") {
		origin := strings.TrimPrefix(lowerQuery, "origin:")
		var results []int
		for i, p := range pictures {
			if strings.ToLower(string(p.Origin)) == origin {
				results = append(results, i)
			}
		}
		return results
	}

	var results []int
	for i, p := range pictures {
		if strings.Contains(strings.ToLower(p.Name), lowerQuery) {
			results = append(results, i)
		}
	}
	if results == nil {
		if nearest := Nearest(pictures, query); nearest >= 0 {
			results = []int{nearest}
		}
	}
	return results
}

// Nearest returns the index of the picture whose name is closest to the
// query by edit distance, or -1 when there are no pictures
func Nearest(pictures []domain.Picture, query string) int {
	if len(pictures) == 0 || query == "" {
		return -1
	}

	lowerQuery := strings.ToLower(query)
	best := -1
	bestDist := 0
	for i, p := range pictures {
		name := strings.ToLower(p.Name)
		dist := levenshtein.ComputeDistance(lowerQuery, name)
		// A query rarely includes the extension, so compare against the
		// bare name too
		bare := strings.TrimSuffix(name, filepath.Ext(name))
		if d := levenshtein.ComputeDistance(lowerQuery, bare); d < dist {
			dist = d
		}
		if best == -1 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}

// NextMatch returns the match to jump to from the current index,
// wrapping around in either direction
func NextMatch(matches []int, current int, direction string) int {
	if len(matches) == 0 {
		return -1
	}

	if direction == "prev" {
		for i := len(matches) - 1; i >= 0; i-- {
			if matches[i] < current {
				return matches[i]
			}
		}
		return matches[len(matches)-1]
	}

	for _, m := range matches {
		if m > current {
			return m
		}
	}
	return matches[0]
}
