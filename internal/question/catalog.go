package question

import (
	"context"
	"fmt"
	"strings"

	"github.com/pavelanni/interviewsim/internal/catalog"
)

// Catalog serves canned questions. It never fails.
type Catalog struct {
	cat *catalog.Catalog
}

// NewCatalog returns a Source backed by cat.
func NewCatalog(cat *catalog.Catalog) *Catalog {
	return &Catalog{cat: cat}
}

// Next returns bank question req.Number, or the generic question when the
// bank is shorter than that.
func (c *Catalog) Next(_ context.Context, req Request) (string, error) {
	return c.cat.Question(req.Role.Name, req.Level, req.Number), nil
}

// FollowUp returns a probe tied to the role's focus areas. The first
// follow-up asks for a concrete example, the second for reflection.
func (c *Catalog) FollowUp(_ context.Context, req FollowUpRequest) (string, error) {
	area := focusAreaFor(req.Role.FocusAreas, req.Question, req.Count)
	if req.Count <= 1 {
		if area == "" {
			return "Can you walk me through a specific example of that, step by step, and tell me what the outcome was?", nil
		}
		return fmt.Sprintf("Can you walk me through a specific example where you applied %s, and what the outcome was?", area), nil
	}
	if area == "" {
		return "Looking back, what would you do differently, and what did you learn from it?", nil
	}
	return fmt.Sprintf("Looking back, what would you do differently, and how would stronger %s skills have changed the result?", area), nil
}

// focusAreaFor prefers a focus area the question already mentions and
// otherwise rotates through the list by follow-up count.
func focusAreaFor(areas []string, question string, count int) string {
	if len(areas) == 0 {
		return ""
	}
	q := strings.ToLower(question)
	for _, a := range areas {
		if strings.Contains(q, strings.ToLower(a)) {
			return a
		}
	}
	return areas[max(count-1, 0)%len(areas)]
}
