package feedback

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const unknownScoreLabel = "unknown"

// Score is an overall resume score in [0,100]. The zero value is unknown.
type Score struct {
	value int
	known bool
}

// NewScore returns a known score clamped to [0,100].
func NewScore(value int) Score {
	return Score{value: clampScore(value), known: true}
}

// Known reports whether the score carries a value.
func (s Score) Known() bool {
	return s.known
}

// Int returns the score and whether it is known.
func (s Score) Int() (int, bool) {
	return s.value, s.known
}

func (s Score) String() string {
	if !s.known {
		return unknownScoreLabel
	}
	return strconv.Itoa(s.value)
}

// MarshalJSON encodes a known score as a number and an unknown one as "unknown".
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.known {
		return []byte(`"` + unknownScoreLabel + `"`), nil
	}
	return []byte(strconv.Itoa(s.value)), nil
}

// UnmarshalJSON accepts a number, a numeric string, "unknown" or null.
func (s *Score) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = Score{}
		return nil
	}
	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	*s = scoreFromValue(raw)
	return nil
}

// Result is the normalized review handed to renderers. Every field is always
// populated: sequences are empty rather than nil.
type Result struct {
	Score                  Score    `json:"score"`
	StrongPoints           []string `json:"strongPoints"`
	WeakPoints             []string `json:"weakPoints"`
	Improvements           []string `json:"improvements"`
	SuitableRoles          []string `json:"suitableRoles"`
	UsefulLinks            []string `json:"usefulLinks"`
	AdditionalInstructions string   `json:"additionalInstructions"`
}

// Empty returns an all-default Result.
func Empty() Result {
	return Result{
		StrongPoints:  []string{},
		WeakPoints:    []string{},
		Improvements:  []string{},
		SuitableRoles: []string{},
		UsefulLinks:   []string{},
	}
}

// IsEmpty reports whether nothing was decoded from the payload.
func (r Result) IsEmpty() bool {
	return !r.Score.Known() &&
		len(r.StrongPoints) == 0 &&
		len(r.WeakPoints) == 0 &&
		len(r.Improvements) == 0 &&
		len(r.SuitableRoles) == 0 &&
		len(r.UsefulLinks) == 0 &&
		strings.TrimSpace(r.AdditionalInstructions) == ""
}

// UnmarshalJSON restores a stored Result and re-applies the non-nil guarantee.
func (r *Result) UnmarshalJSON(data []byte) error {
	type plain Result
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = Result(decoded)
	r.StrongPoints = ensureStringSlice(r.StrongPoints)
	r.WeakPoints = ensureStringSlice(r.WeakPoints)
	r.Improvements = ensureStringSlice(r.Improvements)
	r.SuitableRoles = ensureStringSlice(r.SuitableRoles)
	r.UsefulLinks = ensureStringSlice(r.UsefulLinks)
	return nil
}

func ensureStringSlice(value []string) []string {
	if value == nil {
		return []string{}
	}
	return value
}

func clampScore(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// scoreFromText reads the first run of digits in s. A minus sign directly
// before the digits makes the value negative, which clamps to 0.
func scoreFromText(s string) Score {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return Score{}
	}
	if start > 0 && s[start-1] == '-' {
		return NewScore(0)
	}
	end := start
	for end < len(s) && isDigit(rune(s[end])) {
		end++
	}
	digits := strings.TrimLeft(s[start:end], "0")
	if digits == "" {
		return NewScore(0)
	}
	if len(digits) > 3 {
		return NewScore(100)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return Score{}
	}
	return NewScore(n)
}

func scoreFromValue(value any) Score {
	switch v := value.(type) {
	case nil:
		return Score{}
	case float64:
		return scoreFromFloat(v)
	case float32:
		return scoreFromFloat(float64(v))
	case int:
		return NewScore(v)
	case int64:
		return scoreFromFloat(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return scoreFromText(v.String())
		}
		return scoreFromFloat(f)
	case string:
		return scoreFromText(v)
	case []any:
		for _, item := range v {
			if score := scoreFromValue(item); score.Known() {
				return score
			}
		}
		return Score{}
	case []string:
		for _, item := range v {
			if score := scoreFromText(item); score.Known() {
				return score
			}
		}
		return Score{}
	default:
		return Score{}
	}
}

func scoreFromFloat(f float64) Score {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Score{}
	}
	if f < 0 {
		return NewScore(0)
	}
	if f > 100 {
		return NewScore(100)
	}
	return NewScore(int(math.Round(f)))
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
