package lazyload

import (
	"strings"
)

// Loading attribute values understood by browsers.
const (
	ValueLazy  = "lazy"
	ValueEager = "eager"
)

// SupportedTags lists the tag names the filter knows how to handle. Any
// allowlist returned by a TagsFunc is intersected with this set.
var SupportedTags = []string{"img", "iframe"}

// EnabledFunc replaces the global default for a (tag, label) pair. def is
// true for "img" and false for every other tag.
type EnabledFunc func(def bool, tag, label string) bool

// TagsFunc returns the tag names eligible for processing under label.
// Accepted return shapes:
//   - []string or []any: used as-is, deduplicated and intersected with
//     SupportedTags; non-string elements of a []any are ignored
//   - true (or any other truthy non-list value): every supported tag
//   - false, nil or any falsy value: no tags, the call becomes a no-op
type TagsFunc func(def []string, label string) any

// ValueInput carries what a ValueFunc may inspect when picking a value.
type ValueInput struct {
	Tag          string // tag name, "img" or "iframe"
	TagHTML      string // the tag markup before injection; empty for attribute maps
	Metadata     *Metadata
	AttachmentID int
	Content      string // the whole fragment being filtered; empty for single tags
	Label        string
}

// ValueFunc overrides the loading attribute value. Returning "" or false
// means "do not add the attribute"; true maps to "lazy"; any string other
// than "lazy" or "eager" is normalized to "lazy".
type ValueFunc func(def string, in ValueInput) any

// SrcsetFunc decides whether srcset and sizes are added to an img tag that
// references a known attachment. def is true.
type SrcsetFunc func(def bool, tagHTML, label string, attachmentID int) bool

// Decision is the outcome of resolving the policy for one tag. The zero
// value means "do not modify".
type Decision struct {
	Modify bool
	Value  string
}

// Policy holds the overridable layers that decide whether a tag receives a
// loading attribute. Nil hooks fall through to the default behaviour.
// A Policy must not be mutated after it has been handed to New.
type Policy struct {
	// Enabled overrides the per-tag global default.
	Enabled EnabledFunc

	// Tags overrides the allowlist of tag names to scan for. The default
	// allowlist is {"img"}.
	Tags TagsFunc

	// Value overrides the attribute value. The default value is "lazy".
	Value ValueFunc

	// Srcset controls srcset/sizes augmentation of attachment images.
	Srcset SrcsetFunc

	// SkipClasses are class tokens that opt a tag out of every change.
	SkipClasses []string

	// MaxSrcsetWidth caps the widest candidate listed in a srcset.
	// Zero means DefaultMaxSrcsetWidth.
	MaxSrcsetWidth int
}

// DefaultSkipClass is the opt-out marker class honoured by DefaultPolicy.
const DefaultSkipClass = "skip-lazy"

// DefaultPolicy returns a Policy with no overrides: img tags are lazy
// loaded, iframes are left alone and srcset/sizes are added to attachment
// images when metadata is available.
func DefaultPolicy() *Policy {
	return &Policy{
		SkipClasses:    []string{DefaultSkipClass},
		MaxSrcsetWidth: DefaultMaxSrcsetWidth,
	}
}

// EagerPolicy returns DefaultPolicy with every injected value forced to
// "eager". Useful for above-the-fold fragments such as hero widgets.
func EagerPolicy() *Policy {
	p := DefaultPolicy()
	p.Value = func(string, ValueInput) any { return ValueEager }
	return p
}

// TagEnabled reports whether the global layers enable lazy loading of tag
// for label.
func (p *Policy) TagEnabled(tag, label string) bool {
	tag = strings.ToLower(tag)
	def := tag == "img"
	if p == nil || p.Enabled == nil {
		return def
	}
	return p.Enabled(def, tag, label)
}

// Allowlist resolves the Tags hook for label into a deduplicated subset of
// SupportedTags, in the order the hook returned them.
func (p *Policy) Allowlist(label string) []string {
	def := []string{"img"}
	if p == nil || p.Tags == nil {
		return def
	}
	switch v := p.Tags(def, label).(type) {
	case []string:
		return intersectSupported(v)
	case []any:
		names := make([]string, 0, len(v))
		for _, e := range v {
			if name, ok := e.(string); ok {
				names = append(names, name)
			}
		}
		return intersectSupported(names)
	case bool:
		if v {
			return append([]string(nil), SupportedTags...)
		}
		return nil
	default:
		if truthy(v) {
			return append([]string(nil), SupportedTags...)
		}
		return nil
	}
}

// Eligible returns the tag names to scan for under label: the allowlist
// filtered by TagEnabled. An empty result means the content must be left
// untouched.
func (p *Policy) Eligible(label string) []string {
	var out []string
	for _, tag := range p.Allowlist(label) {
		if p.TagEnabled(tag, label) {
			out = append(out, tag)
		}
	}
	return out
}

// Decide runs the value layer for one tag that already passed Eligible.
func (p *Policy) Decide(in ValueInput) Decision {
	var raw any = ValueLazy
	if p != nil && p.Value != nil {
		raw = p.Value(ValueLazy, in)
	}
	value, ok := normalizeValue(raw)
	if !ok {
		return Decision{}
	}
	return Decision{Modify: true, Value: value}
}

// srcsetEnabled resolves the Srcset hook.
func (p *Policy) srcsetEnabled(tagHTML, label string, id int) bool {
	if p == nil || p.Srcset == nil {
		return true
	}
	return p.Srcset(true, tagHTML, label, id)
}

func (p *Policy) maxSrcsetWidth() int {
	if p == nil || p.MaxSrcsetWidth <= 0 {
		return DefaultMaxSrcsetWidth
	}
	return p.MaxSrcsetWidth
}

// normalizeValue coerces a ValueFunc result. ok is false when no attribute
// should be added. Strings must match "lazy" or "eager" exactly.
func normalizeValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		switch t {
		case "":
			return "", false
		case ValueLazy, ValueEager:
			return t, true
		}
		return ValueLazy, true
	case bool:
		if t {
			return ValueLazy, true
		}
		return "", false
	default:
		if truthy(v) {
			return ValueLazy, true
		}
		return "", false
	}
}

// truthy coerces loosely typed hook results: nil, zero numbers, empty
// strings and empty slices are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "0"
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case []string:
		return len(t) > 0
	case []any:
		return len(t) > 0
	}
	return true
}

func intersectSupported(tags []string) []string {
	supported := sliceToSet(SupportedTags)
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if !supported[t] || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func sliceToSet(s []string) map[string]bool {
	m := make(map[string]bool, len(s))
	for _, v := range s {
		m[strings.ToLower(v)] = true
	}
	return m
}
