// Package feedback decodes the review payload returned by the upstream
// resume-review service into a normalized Result.
//
// The service has answered in several shapes over time: a JSON object keyed
// by section titles, a free-text block with line headers, and text mixing in
// "category | feedback" table rows. Parse accepts all of them and never
// fails; sections it cannot read are left empty.
package feedback

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// maxDepth bounds how far wrapper arrays and objects are unwrapped.
const maxDepth = 4

// Payload is either a TextPayload or a StructuredPayload.
type Payload interface {
	isPayload()
}

// TextPayload is a line-oriented review body.
type TextPayload string

// StructuredPayload is a decoded JSON object keyed by section title.
type StructuredPayload map[string]any

func (TextPayload) isPayload()       {}
func (StructuredPayload) isPayload() {}

// wrapperKeys hold the review text when the service nests it in an envelope.
var wrapperKeys = []string{"review", "result", "response", "feedback", "content", "text", "data", "message"}

// Parse converts one payload into a Result.
func Parse(p Payload) Result {
	return parsePayload(p, 0)
}

// ParseValue resolves a dynamically typed value into a Payload and parses it.
// Arrays contribute their first element; nil and scalars give an empty Result.
func ParseValue(v any) Result {
	return parseValue(v, 0)
}

// ParseJSON parses a raw response body. Bodies that are not valid JSON are
// treated as text.
func ParseJSON(raw []byte) Result {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Empty()
	}
	if !gjson.ValidBytes(raw) {
		return Parse(TextPayload(raw))
	}
	return parseGJSON(gjson.ParseBytes(raw), 0)
}

func parseGJSON(v gjson.Result, depth int) Result {
	if depth > maxDepth {
		return Empty()
	}
	switch {
	case v.Type == gjson.String:
		return parseText(v.Str)
	case v.IsArray():
		first := v.Get("0")
		if !first.Exists() {
			return Empty()
		}
		return parseGJSON(first, depth+1)
	case v.IsObject():
		obj, ok := v.Value().(map[string]any)
		if !ok {
			return Empty()
		}
		return parsePayload(StructuredPayload(obj), depth)
	default:
		return Empty()
	}
}

func parsePayload(p Payload, depth int) Result {
	switch v := p.(type) {
	case TextPayload:
		return parseText(string(v))
	case StructuredPayload:
		return parseStructured(v, depth)
	default:
		return Empty()
	}
}

func parseValue(v any, depth int) Result {
	if depth > maxDepth {
		return Empty()
	}
	switch val := v.(type) {
	case string:
		return parseText(val)
	case []byte:
		return ParseJSON(val)
	case map[string]any:
		return parseStructured(StructuredPayload(val), depth)
	case StructuredPayload:
		return parseStructured(val, depth)
	case TextPayload:
		return parseText(string(val))
	case []any:
		if len(val) == 0 {
			return Empty()
		}
		return parseValue(val[0], depth+1)
	default:
		return Empty()
	}
}

func parseStructured(p StructuredPayload, depth int) Result {
	b := newBuilder()

	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	recognized := false
	for _, key := range keys {
		sec := lookupSection(key)
		if sec == sectionNone {
			continue
		}
		recognized = true
		if sec == sectionScore {
			b.score = scoreFromValue(p[key])
			continue
		}
		for _, item := range coerceItems(p[key]) {
			if content, ok := stripItemMarker(item); ok {
				item = content
			}
			b.add(sec, item)
		}
	}

	if !recognized {
		for _, wk := range wrapperKeys {
			for _, key := range keys {
				if strings.EqualFold(strings.TrimSpace(key), wk) {
					return parseValue(p[key], depth+1)
				}
			}
		}
	}

	return b.result()
}

// coerceItems flattens a JSON value into strings. Scalars become a
// single-element sequence. Objects contribute their values in key order.
func coerceItems(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}
	case bool:
		return []string{strconv.FormatBool(v)}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, coerceItems(item)...)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			out = append(out, coerceItems(v[k])...)
		}
		return out
	default:
		return nil
	}
}
