package feedback

import "strings"

type section int

const (
	sectionNone section = iota
	sectionScore
	sectionStrong
	sectionWeak
	sectionImprovements
	sectionRoles
	sectionLinks
	sectionAdditional
)

func (s section) String() string {
	switch s {
	case sectionScore:
		return "score"
	case sectionStrong:
		return "strongPoints"
	case sectionWeak:
		return "weakPoints"
	case sectionImprovements:
		return "improvements"
	case sectionRoles:
		return "suitableRoles"
	case sectionLinks:
		return "usefulLinks"
	case sectionAdditional:
		return "additionalInstructions"
	default:
		return "none"
	}
}

type header struct {
	prefix  string
	section section
}

// Header literals emitted by the review service. Matching is case-sensitive;
// both the sentence-case text form and the title-case form used as JSON keys
// have been observed.
var textHeaders = []header{
	{"Resume score:", sectionScore},
	{"Resume Score:", sectionScore},
	{"Strong parts of the resume:", sectionStrong},
	{"Strong Parts of the Resume:", sectionStrong},
	{"Weak parts of the resume:", sectionWeak},
	{"Weak Parts of the Resume:", sectionWeak},
	{"Scope of improvements:", sectionImprovements},
	{"Scope of Improvements:", sectionImprovements},
	{"Resume is best suited for the following roles:", sectionRoles},
	{"Resume is Best Suited for Roles:", sectionRoles},
	{"Useful links:", sectionLinks},
	{"Useful Links:", sectionLinks},
	{"Additional Instructions:", sectionAdditional},
	{"Additional instructions:", sectionAdditional},
}

// sectionNames maps normalized JSON keys and pipe-row categories to sections.
var sectionNames = map[string]section{
	"resume score":  sectionScore,
	"score":         sectionScore,
	"overall score": sectionScore,

	"strong parts of the resume": sectionStrong,
	"strong parts":               sectionStrong,
	"strong points":              sectionStrong,
	"strengths":                  sectionStrong,

	"weak parts of the resume": sectionWeak,
	"weak parts":               sectionWeak,
	"weak points":              sectionWeak,
	"weaknesses":               sectionWeak,

	"scope of improvements": sectionImprovements,
	"scope of improvement":  sectionImprovements,
	"improvements":          sectionImprovements,
	"areas of improvement":  sectionImprovements,

	"resume is best suited for roles":                sectionRoles,
	"resume is best suited for the following roles": sectionRoles,
	"best suited roles":                              sectionRoles,
	"suitable roles":                                 sectionRoles,
	"roles":                                          sectionRoles,

	"useful links": sectionLinks,
	"links":        sectionLinks,
	"resources":    sectionLinks,

	"additional instructions": sectionAdditional,
	"instructions":            sectionAdditional,
}

func matchHeader(line string) (section, string, bool) {
	for _, h := range textHeaders {
		if strings.HasPrefix(line, h.prefix) {
			return h.section, strings.TrimSpace(line[len(h.prefix):]), true
		}
	}
	return sectionNone, "", false
}

func lookupSection(name string) section {
	key := strings.ToLower(strings.Join(strings.Fields(stripEmphasis(name)), " "))
	key = strings.TrimSpace(strings.TrimSuffix(key, ":"))
	return sectionNames[key]
}
