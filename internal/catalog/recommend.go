package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/pavelanni/interviewsim/internal/model"
)

// Recommendation weights.
const (
	skillMatchPoints    = 2
	interestMatchPoints = 3
)

// MaxRecommendations is the number of tracks Recommend returns at most.
const MaxRecommendations = 5

// Recommend ranks roles against a career assessment profile. A focus area
// counts as matched when any user skill appears inside it; an interest
// counts when it appears in the role description. Roles with no match are
// omitted. Ties keep catalog order.
func (c *Catalog) Recommend(p model.UserProfile) []model.Recommendation {
	var recs []model.Recommendation
	for _, role := range c.roles {
		score := 0
		var reasons []string

		var matched []string
		for _, area := range role.FocusAreas {
			if anyContained(p.Skills, area) {
				matched = append(matched, area)
			}
		}
		if len(matched) > 0 {
			score += len(matched) * skillMatchPoints
			reasons = append(reasons, "Skills match: "+strings.Join(matched, ", "))
		}

		if anyContained(p.Interests, role.Description) {
			score += interestMatchPoints
			reasons = append(reasons, "Aligns with your stated interests")
		}

		if score == 0 {
			continue
		}
		recs = append(recs, model.Recommendation{
			Role:        role.Name,
			Label:       role.DisplayLabel(),
			Description: role.Description,
			Score:       score,
			Reasons:     reasons,
			FocusAreas:  slices.Clone(role.FocusAreas),
		})
	}

	slices.SortStableFunc(recs, func(a, b model.Recommendation) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}

// anyContained reports whether any non-blank needle occurs in haystack,
// ignoring case.
func anyContained(needles []string, haystack string) bool {
	h := strings.ToLower(haystack)
	for _, n := range needles {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" && strings.Contains(h, n) {
			return true
		}
	}
	return false
}
