// Package config loads lazyload policies from YAML files.
//
// A file sets top-level defaults and per-context overrides; the context
// keys are the same opaque labels passed to lazyload.Filter. Settings in a
// context block win over top-level ones.
//
//	skip_classes: [skip-lazy, no-lazy]
//	max_srcset_width: 1600
//	enabled:
//	  img: true
//	contexts:
//	  the_content:
//	    tags: [img, iframe]
//	    enabled: {iframe: true}
//	  hero_widget:
//	    value: eager
package config

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/njchilds90/lazyload"
)

// File is the on-disk policy description.
type File struct {
	// SkipClasses replaces the default opt-out classes when set.
	SkipClasses []string `yaml:"skip_classes,omitempty"`

	// MaxSrcsetWidth caps srcset candidates. Zero keeps the default.
	MaxSrcsetWidth int `yaml:"max_srcset_width,omitempty"`

	// Srcset turns srcset/sizes augmentation off when false.
	Srcset *bool `yaml:"srcset,omitempty"`

	// Enabled overrides the global default per tag name.
	Enabled map[string]bool `yaml:"enabled,omitempty"`

	// Tags overrides the default allowlist. See Tags.
	Tags *Tags `yaml:"tags,omitempty"`

	// Value overrides the attribute value: "lazy", "eager" or "" for none.
	Value *string `yaml:"value,omitempty"`

	// Contexts holds overrides keyed by context label.
	Contexts map[string]Context `yaml:"contexts,omitempty"`
}

// Context holds the overrides for one context label.
type Context struct {
	Enabled map[string]bool `yaml:"enabled,omitempty"`
	Tags    *Tags           `yaml:"tags,omitempty"`
	Value   *string         `yaml:"value,omitempty"`
	Srcset  *bool           `yaml:"srcset,omitempty"`
}

// Tags is an allowlist that may be written either as a list of tag names
// or as a boolean: true selects every supported tag, false selects none.
type Tags struct {
	Names []string
	All   *bool
}

// UnmarshalYAML accepts a sequence of names or a boolean scalar.
func (t *Tags) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var b bool
		if err := n.Decode(&b); err != nil {
			return fmt.Errorf("%w: tags must be a list of tag names or a boolean, got %q", ErrInvalidValue, n.Value)
		}
		t.All, t.Names = &b, nil
	case yaml.SequenceNode:
		var names []string
		if err := n.Decode(&names); err != nil {
			return fmt.Errorf("%w: tags: %w", ErrInvalidValue, err)
		}
		t.All, t.Names = nil, names
	default:
		return fmt.Errorf("%w: tags must be a list of tag names or a boolean (line %d)", ErrInvalidValue, n.Line)
	}
	return nil
}

// MarshalYAML writes the boolean form when set, the list otherwise.
func (t Tags) MarshalYAML() (any, error) {
	if t.All != nil {
		return *t.All, nil
	}
	return t.Names, nil
}

// hookValue is what a lazyload.TagsFunc returns for t.
func (t *Tags) hookValue() any {
	if t.All != nil {
		return *t.All
	}
	return slices.Clone(t.Names)
}

// Validate reports the first unsupported tag name or attribute value.
func (f *File) Validate() error {
	if f.MaxSrcsetWidth < 0 {
		return fmt.Errorf("%w: max_srcset_width %d", ErrInvalidValue, f.MaxSrcsetWidth)
	}
	if err := validateBlock("", f.Enabled, f.Tags, f.Value); err != nil {
		return err
	}
	for label, c := range f.Contexts {
		if err := validateBlock(label, c.Enabled, c.Tags, c.Value); err != nil {
			return err
		}
	}
	return nil
}

func validateBlock(label string, enabled map[string]bool, tags *Tags, value *string) error {
	where := "top level"
	if label != "" {
		where = "context " + label
	}
	for tag := range enabled {
		if !supported(tag) {
			return fmt.Errorf("%w: %q in enabled (%s)", ErrUnsupportedTag, tag, where)
		}
	}
	if tags != nil {
		for _, tag := range tags.Names {
			if !supported(tag) {
				return fmt.Errorf("%w: %q in tags (%s)", ErrUnsupportedTag, tag, where)
			}
		}
	}
	if value != nil {
		switch *value {
		case "", lazyload.ValueLazy, lazyload.ValueEager:
		default:
			return fmt.Errorf("%w: value %q (%s)", ErrInvalidValue, *value, where)
		}
	}
	return nil
}

func supported(tag string) bool {
	return slices.Contains(lazyload.SupportedTags, tagKey(tag))
}

func tagKey(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// tagKeys copies an enabled map with its keys in the form hooks receive
// tag names.
func tagKeys(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	out := make(map[string]bool, len(m))
	for tag, on := range m {
		out[tagKey(tag)] = on
	}
	return out
}

// Policy compiles f into a lazyload.Policy whose hooks consult the
// per-context blocks first and the top-level settings second. A nil File
// yields lazyload.DefaultPolicy.
func (f *File) Policy() *lazyload.Policy {
	p := lazyload.DefaultPolicy()
	if f == nil {
		return p
	}
	if len(f.SkipClasses) > 0 {
		p.SkipClasses = slices.Clone(f.SkipClasses)
	}
	if f.MaxSrcsetWidth > 0 {
		p.MaxSrcsetWidth = f.MaxSrcsetWidth
	}

	top := Context{Enabled: tagKeys(f.Enabled), Tags: f.Tags, Value: f.Value, Srcset: f.Srcset}
	contexts := make(map[string]Context, len(f.Contexts))
	for k, v := range f.Contexts {
		v.Enabled = tagKeys(v.Enabled)
		contexts[k] = v
	}

	p.Enabled = func(def bool, tag, label string) bool {
		if on, ok := contexts[label].Enabled[tag]; ok {
			return on
		}
		if on, ok := top.Enabled[tag]; ok {
			return on
		}
		return def
	}
	p.Tags = func(def []string, label string) any {
		if t := contexts[label].Tags; t != nil {
			return t.hookValue()
		}
		if top.Tags != nil {
			return top.Tags.hookValue()
		}
		return def
	}
	p.Value = func(def string, in lazyload.ValueInput) any {
		if v := contexts[in.Label].Value; v != nil {
			return *v
		}
		if top.Value != nil {
			return *top.Value
		}
		return def
	}
	p.Srcset = func(def bool, _, label string, _ int) bool {
		if v := contexts[label].Srcset; v != nil {
			return *v
		}
		if top.Srcset != nil {
			return *top.Srcset
		}
		return def
	}
	return p
}
