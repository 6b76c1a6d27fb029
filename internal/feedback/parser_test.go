package feedback

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestParseStructuredSectionKeys(t *testing.T) {
	got := ParseValue(map[string]any{
		"Resume Score":               float64(87),
		"Strong Parts of the Resume": []any{"Clear formatting"},
	})

	if v, ok := got.Score.Int(); !ok || v != 87 {
		t.Fatalf("expected score 87, got %s", got.Score)
	}
	assertStrings(t, "strongPoints", got.StrongPoints, []string{"Clear formatting"})
	assertStrings(t, "weakPoints", got.WeakPoints, []string{})
}

func TestParseJSONOriginalDashboardShape(t *testing.T) {
	raw := []byte(`[{
  "Resume Score": "78/100",
  "Strong Parts of the Resume": ["Concise summary", "**Quantified** impact"],
  "Weak Parts of the Resume": "No certifications listed",
  "Scope of Improvements": ["1. Add a skills matrix"],
  "Resume is Best Suited for Roles": ["Backend Engineer", "SRE"],
  "Useful Links": ["https://example.com/resume-tips", "see the docs"],
  "Additional Instructions": "Keep it to one page."
}]`)

	got := ParseJSON(raw)

	if got.Score.String() != "78" {
		t.Fatalf("expected score 78, got %s", got.Score)
	}
	assertStrings(t, "strongPoints", got.StrongPoints, []string{"Concise summary", "Quantified impact"})
	assertStrings(t, "weakPoints", got.WeakPoints, []string{"No certifications listed"})
	assertStrings(t, "improvements", got.Improvements, []string{"Add a skills matrix"})
	assertStrings(t, "suitableRoles", got.SuitableRoles, []string{"Backend Engineer", "SRE"})
	assertStrings(t, "usefulLinks", got.UsefulLinks, []string{"https://example.com/resume-tips"})
	if got.AdditionalInstructions != "Keep it to one page." {
		t.Fatalf("unexpected additional instructions %q", got.AdditionalInstructions)
	}
}

func TestParseScoreBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Resume score: 72", want: "72"},
		{name: "clamped high", input: "Resume score: 150", want: "100"},
		{name: "non numeric", input: "Resume score: abc", want: "unknown"},
		{name: "out of hundred", input: "Resume score: 64/100", want: "64"},
		{name: "bold header", input: "**Resume score:** 81", want: "81"},
		{name: "huge", input: "Resume score: 99999999999999999999", want: "100"},
		{name: "next line", input: "Resume score:\n58 out of 100", want: "58"},
		{name: "missing", input: "Strong parts of the resume:\n- ok", want: "unknown"},
		{name: "negative", input: "Resume score: -5", want: "0"},
		{name: "dash separator", input: "Resume score: - 85", want: "85"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Parse(TextPayload(tt.input))
			if got.Score.String() != tt.want {
				t.Fatalf("Parse(%q).Score = %s, want %s", tt.input, got.Score, tt.want)
			}
		})
	}
}

func TestParseSectionExtraction(t *testing.T) {
	input := "Strong parts of the resume:\n" +
		"1. Good use of action verbs\n" +
		"2. Quantified achievements\n" +
		"Weak parts of the resume:\n" +
		"1. No summary section\n"

	got := Parse(TextPayload(input))

	assertStrings(t, "strongPoints", got.StrongPoints, []string{"Good use of action verbs", "Quantified achievements"})
	assertStrings(t, "weakPoints", got.WeakPoints, []string{"No summary section"})
}

func TestParseFullTextReview(t *testing.T) {
	input := strings.Join([]string{
		"**Resume score:** 76",
		"",
		"Strong parts of the resume:",
		"• Clear project descriptions",
		"- Relevant **cloud** experience",
		"--------------------------------------------------",
		"Weak parts of the resume:",
		"* Missing GitHub link",
		"Scope of improvements:",
		"1) Add measurable outcomes",
		"10. Tighten the summary",
		"Resume is best suited for the following roles:",
		"1. Platform Engineer",
		"2. DevOps Engineer",
		"Useful links:",
		"1. not-a-url",
		"2. https://example.com/guide",
		"3. [Action verbs](https://example.com/verbs)",
		"4. Portfolio tips: https://example.com/portfolio.",
		"Additional Instructions:",
		"Tailor the resume to each posting.",
		"Export as PDF.",
	}, "\r\n")

	got := Parse(TextPayload(input))

	if got.Score.String() != "76" {
		t.Fatalf("expected score 76, got %s", got.Score)
	}
	assertStrings(t, "strongPoints", got.StrongPoints, []string{"Clear project descriptions", "Relevant cloud experience"})
	assertStrings(t, "weakPoints", got.WeakPoints, []string{"Missing GitHub link"})
	assertStrings(t, "improvements", got.Improvements, []string{"Add measurable outcomes", "Tighten the summary"})
	assertStrings(t, "suitableRoles", got.SuitableRoles, []string{"Platform Engineer", "DevOps Engineer"})
	assertStrings(t, "usefulLinks", got.UsefulLinks, []string{
		"https://example.com/guide",
		"https://example.com/verbs",
		"https://example.com/portfolio",
	})
	if got.AdditionalInstructions != "Tailor the resume to each posting. Export as PDF." {
		t.Fatalf("unexpected additional instructions %q", got.AdditionalInstructions)
	}
}

func TestParseLinkFiltering(t *testing.T) {
	got := Parse(TextPayload("Useful links:\n1. not-a-url\n2. https://example.com/guide"))
	assertStrings(t, "usefulLinks", got.UsefulLinks, []string{"https://example.com/guide"})
}

func TestParsePipeRows(t *testing.T) {
	input := strings.Join([]string{
		"Strong parts of the resume:",
		"| Category | Feedback |",
		"|---|---|",
		"| Strengths | Clear layout |",
		"| Formatting | Use one font |",
		"Weak parts of the resume:",
		"Weaknesses | Too long",
		"| Strengths | No summary |",
		"Useful links:",
		"Useful Links | https://example.com/a",
	}, "\n")

	got := Parse(TextPayload(input))

	assertStrings(t, "strongPoints", got.StrongPoints, []string{"Clear layout"})
	assertStrings(t, "weakPoints", got.WeakPoints, []string{"Too long", "No summary"})
	assertStrings(t, "usefulLinks", got.UsefulLinks, []string{"https://example.com/a"})
}

func TestParsePipeRowsFollowHeader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		weak  []string
		roles []string
	}{
		{
			name:  "mixed categories under one header",
			input: "Weak parts of the resume:\n| Strengths | Too long |\n| Weaknesses | No summary |\n| Suitable Roles | Dense |",
			weak:  []string{"Too long", "No summary", "Dense"},
			roles: []string{},
		},
		{
			name:  "table split by rule line",
			input: "Resume is best suited for the following roles:\n| Roles | SRE |\n-----\n| Roles | Backend |",
			weak:  []string{},
			roles: []string{"SRE", "Backend"},
		},
		{
			name:  "rows before any header",
			input: "| Weaknesses | Too long |\n| Roles | SRE |",
			weak:  []string{},
			roles: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(TextPayload(tt.input))
			assertStrings(t, "weakPoints", got.WeakPoints, tt.weak)
			assertStrings(t, "suitableRoles", got.SuitableRoles, tt.roles)
			if len(got.StrongPoints) != 0 {
				t.Fatalf("expected no strong points, got %v", got.StrongPoints)
			}
		})
	}
}

func TestParseDelimiterKeepsSection(t *testing.T) {
	got := Parse(TextPayload("Weak parts of the resume:\n- first\n-----\n- second"))
	assertStrings(t, "weakPoints", got.WeakPoints, []string{"first", "second"})
}

func TestParseUnknownHeaderLeavesCursor(t *testing.T) {
	got := Parse(TextPayload("Summary:\n- dropped\nStrong parts of the resume:\n- kept\nEducation:\n- also kept"))
	assertStrings(t, "strongPoints", got.StrongPoints, []string{"kept", "also kept"})
}

func TestParseIgnoresStrayProse(t *testing.T) {
	got := Parse(TextPayload("Here is your review.\nStrong parts of the resume:\nOverall a solid document.\n- Concise"))
	assertStrings(t, "strongPoints", got.StrongPoints, []string{"Concise"})
	if got.AdditionalInstructions != "" {
		t.Fatalf("expected no additional instructions, got %q", got.AdditionalInstructions)
	}
}

func TestParseEmptyInputs(t *testing.T) {
	inputs := map[string]func() Result{
		"empty text":   func() Result { return Parse(TextPayload("")) },
		"empty object": func() Result { return Parse(StructuredPayload{}) },
		"empty json":   func() Result { return ParseJSON([]byte(`{}`)) },
		"null json":    func() Result { return ParseJSON([]byte(`null`)) },
		"blank body":   func() Result { return ParseJSON(nil) },
		"nil value":    func() Result { return ParseValue(nil) },
		"number value": func() Result { return ParseValue(42) },
		"empty array":  func() Result { return ParseJSON([]byte(`[]`)) },
		"nil payload":  func() Result { return Parse(nil) },
	}

	for name, fn := range inputs {
		fn := fn
		t.Run(name, func(t *testing.T) {
			got := fn()
			if got.Score.Known() {
				t.Fatalf("expected unknown score, got %s", got.Score)
			}
			if !got.IsEmpty() {
				t.Fatalf("expected empty result, got %+v", got)
			}
			assertAllFieldsPresent(t, got)
		})
	}
}

func TestParseJSONUnwrapsStringsAndEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "json string", raw: `"Resume score: 64\nStrong parts of the resume:\n- Clean"`, want: "64"},
		{name: "envelope", raw: `{"review": "Resume score: 55"}`, want: "55"},
		{name: "nested envelope", raw: `{"data": [{"Resume Score": 91}]}`, want: "91"},
		{name: "plain text body", raw: "Resume score: 42\n- stray", want: "42"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseJSON([]byte(tt.raw))
			if got.Score.String() != tt.want {
				t.Fatalf("ParseJSON(%s).Score = %s, want %s", tt.raw, got.Score, tt.want)
			}
			assertAllFieldsPresent(t, got)
		})
	}
}

func TestParseStructuredCoercion(t *testing.T) {
	got := Parse(StructuredPayload{
		"score":                    "-5",
		"Strengths":                true,
		"Weak Parts of the Resume": []any{"one", nil, map[string]any{"x": 1}, []any{"two"}},
		"Additional Instructions":  []any{"Line one.", "Line two."},
		"unrelated":                "ignored",
	})

	if got.Score.String() != "0" {
		t.Fatalf("expected negative score clamped to 0, got %s", got.Score)
	}
	assertStrings(t, "strongPoints", got.StrongPoints, []string{"true"})
	assertStrings(t, "weakPoints", got.WeakPoints, []string{"one", "two"})
	if got.AdditionalInstructions != "Line one. Line two." {
		t.Fatalf("unexpected additional instructions %q", got.AdditionalInstructions)
	}
}

func TestParseStructuredObjectSection(t *testing.T) {
	got := Parse(StructuredPayload{
		"Strong Parts of the Resume": map[string]any{"b": "Clear layout", "a": "Strong summary", "c": nil},
		"Useful Links":               map[string]any{"guide": "https://example.com/guide"},
	})

	assertStrings(t, "strongPoints", got.StrongPoints, []string{"Strong summary", "Clear layout"})
	assertStrings(t, "usefulLinks", got.UsefulLinks, []string{"https://example.com/guide"})
}

func TestParseIsDeterministic(t *testing.T) {
	inputs := []string{
		`[{"Resume Score": 87, "Strengths": ["a"], "Strong Parts of the Resume": ["b"]}]`,
		"Resume score: 70\nStrong parts of the resume:\n- a\n| Weaknesses | b |",
		"",
	}
	for _, in := range inputs {
		first := ParseJSON([]byte(in))
		second := ParseJSON([]byte(in))
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("non-deterministic parse for %q: %+v vs %+v", in, first, second)
		}
	}
}

func TestStripEmphasis(t *testing.T) {
	tests := map[string]string{
		"**bold** text":    "bold text",
		"a **b** c **d**":  "a b c d",
		"unpaired ** mark": "unpaired ** mark",
		"no markup":        "no markup",
	}
	for in, want := range tests {
		if got := stripEmphasis(in); got != want {
			t.Fatalf("stripEmphasis(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResultJSONAlwaysHasEveryField(t *testing.T) {
	payload, err := json.Marshal(Empty())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"score", "strongPoints", "weakPoints", "improvements", "suitableRoles", "usefulLinks", "additionalInstructions"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing key %s in %s", key, payload)
		}
	}
	if decoded["score"] != "unknown" {
		t.Fatalf("expected unknown score, got %v", decoded["score"])
	}
	if list, ok := decoded["strongPoints"].([]any); !ok || len(list) != 0 {
		t.Fatalf("expected empty array for strongPoints, got %v", decoded["strongPoints"])
	}
}

func TestResultJSONRestore(t *testing.T) {
	var restored Result
	if err := json.Unmarshal([]byte(`{"score": 93, "strongPoints": ["x"]}`), &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.Score.String() != "93" {
		t.Fatalf("expected score 93, got %s", restored.Score)
	}
	assertAllFieldsPresent(t, restored)

	if err := json.Unmarshal([]byte(`{"score": "unknown"}`), &restored); err != nil {
		t.Fatalf("unmarshal unknown: %v", err)
	}
	if restored.Score.Known() {
		t.Fatalf("expected unknown score after restore")
	}
}

func assertStrings(t *testing.T, field string, got, want []string) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s is nil", field)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("%s = %q, want %q", field, got, want)
	}
}

func assertAllFieldsPresent(t *testing.T, r Result) {
	t.Helper()
	if r.StrongPoints == nil || r.WeakPoints == nil || r.Improvements == nil || r.SuitableRoles == nil || r.UsefulLinks == nil {
		t.Fatalf("expected non-nil sequences, got %+v", r)
	}
}
