package feedback

import (
	"fmt"
	"strings"

	"github.com/pavelanni/interviewsim/internal/model"
)

// Word-count bounds for a well-sized answer.
const (
	briefWords   = 20
	verboseWords = 100
)

var exampleIndicators = []string{"example", "for instance", "project", "experience", "time when", "situation"}

type analysis struct {
	words   int
	skills  []string
	example bool
}

func analyze(answer string, role model.RoleProfile) analysis {
	lower := strings.ToLower(answer)
	a := analysis{words: len(strings.Fields(answer))}
	for _, area := range role.FocusAreas {
		if strings.Contains(lower, strings.ToLower(area)) {
			a.skills = append(a.skills, area)
		}
	}
	for _, ind := range exampleIndicators {
		if strings.Contains(lower, ind) {
			a.example = true
			break
		}
	}
	return a
}

func (a analysis) score() int {
	s := DefaultScore
	switch {
	case a.words < briefWords:
		s--
	case a.words <= verboseWords:
		s++
	}
	if len(a.skills) > 0 {
		s++
	}
	if a.example {
		s++
	}
	return clamp(s)
}

// Heuristic is the feedback used after the model failed mid-session: one
// remark each on length, skills and examples, joined with " | ", and the
// default score.
func Heuristic(req EvalRequest) Evaluation {
	a := analyze(req.Answer, req.Role)
	var points []string

	switch {
	case a.words < briefWords:
		points = append(points, "Consider providing more detailed examples to strengthen your answer.")
	case a.words > verboseWords:
		points = append(points, "Good detail, but try to be more concise in your delivery.")
	default:
		points = append(points, "Good answer length and structure.")
	}

	if len(a.skills) > 0 {
		points = append(points, "Great! You mentioned relevant skills: "+strings.Join(a.skills, ", "))
	} else {
		points = append(points, "Try to highlight specific technical skills relevant to the role.")
	}

	if a.example {
		points = append(points, "Excellent use of specific examples to support your points.")
	} else {
		points = append(points, "Consider adding concrete examples from your experience.")
	}

	return Evaluation{
		Feedback: strings.Join(points, " | "),
		Score:    DefaultScore,
		Origin:   OriginHeuristic,
	}
}

// Template builds structured feedback for a role and level without calling
// a model. The score comes from the answer's length, focus-area overlap and
// use of examples.
func Template(req EvalRequest) Evaluation {
	a := analyze(req.Answer, req.Role)
	score := a.score()
	role := req.Role.DisplayLabel()

	var strengths, improvements []string
	if len(a.skills) > 0 {
		strengths = append(strengths, "You connected your answer to "+strings.Join(a.skills, ", ")+".")
	}
	if a.example {
		strengths = append(strengths, "You backed your points with a concrete example.")
	}
	if a.words >= briefWords && a.words <= verboseWords {
		strengths = append(strengths, "Your answer has a good length and structure.")
	}
	if len(strengths) == 0 {
		strengths = append(strengths, "You addressed the question directly.")
	}

	switch {
	case a.words < briefWords:
		improvements = append(improvements, "Add more detail. A strong answer usually takes a few sentences.")
	case a.words > verboseWords:
		improvements = append(improvements, "Tighten your delivery so the key points stand out.")
	}
	if len(a.skills) == 0 && len(req.Role.FocusAreas) > 0 {
		improvements = append(improvements, "Name the skills this role relies on, such as "+strings.Join(firstN(req.Role.FocusAreas, 2), " or ")+".")
	}
	if !a.example {
		improvements = append(improvements, "Support your points with a concrete example from your experience.")
	}
	if len(improvements) == 0 {
		improvements = append(improvements, "Quantify the results you achieved where you can.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Strengths: %s\n", strings.Join(strengths, " "))
	fmt.Fprintf(&b, "Areas for improvement: %s\n", strings.Join(improvements, " "))
	fmt.Fprintf(&b, "Score: %d/10\n", score)
	fmt.Fprintf(&b, "Suggestions: For a %s %s position, interviewers look for", req.Level, role)
	if len(req.Role.FocusAreas) > 0 {
		fmt.Fprintf(&b, " evidence of %s.", strings.Join(firstN(req.Role.FocusAreas, 3), ", "))
	} else {
		b.WriteString(" clear, specific evidence of your skills.")
	}
	b.WriteString(" Structure your answer as Situation, Task, Action and Result.")

	return Evaluation{
		Feedback:  b.String(),
		Score:     score,
		Confident: true,
		Origin:    OriginTemplate,
	}
}

func firstN(s []string, n int) []string {
	return s[:min(n, len(s))]
}
