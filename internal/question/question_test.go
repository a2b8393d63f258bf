package question

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pavelanni/interviewsim/internal/catalog"
	"github.com/pavelanni/interviewsim/internal/model"
)

type fakeGenerator struct {
	out     string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, _ int, _ float32) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

const testCatalog = `
levels: [Junior]
roles:
  - name: Software Developer
    description: Build applications
    focus_areas: [Programming, Debugging]
    questions:
      Junior: [Q1, Q2]
`

func testRole(t *testing.T) (*catalog.Catalog, model.RoleProfile) {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	role, ok := cat.Role("Software Developer")
	if !ok {
		t.Fatal("role not found")
	}
	return cat, role
}

func TestCatalogNext(t *testing.T) {
	cat, role := testRole(t)
	src := NewCatalog(cat)

	tests := []struct {
		number int
		want   string
	}{
		{1, "Q1"},
		{2, "Q2"},
		{3, catalog.GenericQuestion},
	}
	for _, tt := range tests {
		got, err := src.Next(context.Background(), Request{Role: role, Level: "Junior", Number: tt.number, Total: 3})
		if err != nil {
			t.Fatalf("Next(%d): %v", tt.number, err)
		}
		if got != tt.want {
			t.Errorf("Next(%d) = %q, want %q", tt.number, got, tt.want)
		}
	}
}

func TestCatalogFollowUp(t *testing.T) {
	_, role := testRole(t)
	src := NewCatalog(nil)

	first, err := src.FollowUp(context.Background(), FollowUpRequest{
		Role: role, Level: "Junior", Question: "How do you approach debugging?", Count: 1,
	})
	if err != nil {
		t.Fatalf("FollowUp: %v", err)
	}
	if !strings.Contains(first, "Debugging") {
		t.Errorf("first follow-up should reference the matching focus area, got %q", first)
	}

	second, _ := src.FollowUp(context.Background(), FollowUpRequest{
		Role: role, Level: "Junior", Question: "Tell me about yourself.", Count: 2,
	})
	if !strings.Contains(second, "Debugging") {
		t.Errorf("second follow-up should rotate to the second focus area, got %q", second)
	}
	if first == second {
		t.Error("follow-ups should differ")
	}

	bare, _ := src.FollowUp(context.Background(), FollowUpRequest{Count: 1})
	if bare == "" {
		t.Error("follow-up without focus areas should still produce a question")
	}
}

func TestGenerativeNext(t *testing.T) {
	_, role := testRole(t)
	gen := &fakeGenerator{out: "Question 2: How would you profile a slow HTTP handler?"}
	src := NewGenerative(gen)

	history := []model.Exchange{
		{Question: "old-1", Answer: "a"},
		{Question: "old-2", Answer: "b"},
		{Question: "old-3", Answer: "c"},
		{Question: "old-4", Answer: "d"},
	}
	got, err := src.Next(context.Background(), Request{Role: role, Level: "Junior", Number: 2, Total: 5, History: history})
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != "How would you profile a slow HTTP handler?" {
		t.Errorf("Next = %q", got)
	}

	prompt := gen.prompts[0]
	if strings.Contains(prompt, "old-1") {
		t.Error("prompt should only carry the last three exchanges")
	}
	for _, q := range []string{"old-2", "old-3", "old-4"} {
		if !strings.Contains(prompt, q) {
			t.Errorf("prompt missing history entry %q", q)
		}
	}
}

func TestGenerativeFailures(t *testing.T) {
	_, role := testRole(t)

	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"endpoint error", &fakeGenerator{err: errors.New("connection refused")}},
		{"empty output", &fakeGenerator{out: "   "}},
		{"three words", &fakeGenerator{out: "Tell me more."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewGenerative(tt.gen)
			_, err := src.Next(context.Background(), Request{Role: role, Level: "Junior", Number: 1, Total: 3})
			if !errors.Is(err, ErrGenerationFailed) {
				t.Errorf("Next error = %v, want ErrGenerationFailed", err)
			}
			_, err = src.FollowUp(context.Background(), FollowUpRequest{Role: role, Level: "Junior", Question: "q", Answer: "a"})
			if !errors.Is(err, ErrGenerationFailed) {
				t.Errorf("FollowUp error = %v, want ErrGenerationFailed", err)
			}
		})
	}

	nilGen := NewGenerative(nil)
	if _, err := nilGen.Next(context.Background(), Request{Role: role}); !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("nil generator error = %v", err)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"How do you handle conflicting priorities?"`, "How do you handle conflicting priorities?"},
		{"**Question:** What is a race condition?", "What is a race condition?"},
		{"1. Describe your testing strategy.", "Describe your testing strategy."},
		{"Follow-up question: Why that library?", "Why that library?"},
		{"Quickly summarize your last project.", "Quickly summarize your last project."},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
