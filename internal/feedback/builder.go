package feedback

import (
	"net/url"
	"regexp"
	"strings"
)

var markdownLink = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)\)`)

// builder accumulates one parse call. It is never shared between calls.
type builder struct {
	score        Score
	strong       []string
	weak         []string
	improvements []string
	roles        []string
	links        []string
	instructions []string
}

func newBuilder() *builder {
	return &builder{
		strong:       []string{},
		weak:         []string{},
		improvements: []string{},
		roles:        []string{},
		links:        []string{},
	}
}

func (b *builder) add(sec section, item string) {
	item = strings.TrimSpace(stripEmphasis(item))
	if item == "" {
		return
	}
	switch sec {
	case sectionScore:
		if score := scoreFromText(item); score.Known() {
			b.score = score
		}
	case sectionStrong:
		b.strong = append(b.strong, item)
	case sectionWeak:
		b.weak = append(b.weak, item)
	case sectionImprovements:
		b.improvements = append(b.improvements, item)
	case sectionRoles:
		b.roles = append(b.roles, item)
	case sectionLinks:
		b.links = append(b.links, item)
	case sectionAdditional:
		b.instructions = append(b.instructions, item)
	}
}

func (b *builder) result() Result {
	return Result{
		Score:                  b.score,
		StrongPoints:           b.strong,
		WeakPoints:             b.weak,
		Improvements:           b.improvements,
		SuitableRoles:          b.roles,
		UsefulLinks:            filterLinks(b.links),
		AdditionalInstructions: strings.Join(b.instructions, " "),
	}
}

func filterLinks(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if link, ok := normalizeLink(item); ok {
			out = append(out, link)
		}
	}
	return out
}

// normalizeLink accepts an absolute URL, a markdown link, or a line with a
// single labelled http(s) URL such as "Guide: https://example.com".
func normalizeLink(item string) (string, bool) {
	candidate := strings.TrimSpace(item)
	if m := markdownLink.FindStringSubmatch(candidate); m != nil {
		candidate = m[1]
	}
	if isAbsoluteURL(candidate) {
		return candidate, true
	}
	for _, field := range strings.Fields(candidate) {
		field = strings.Trim(field, "<>()[]\"'.,;")
		if !strings.HasPrefix(field, "http://") && !strings.HasPrefix(field, "https://") {
			continue
		}
		if isAbsoluteURL(field) {
			return field, true
		}
	}
	return "", false
}

func isAbsoluteURL(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}
