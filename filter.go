package lazyload

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// Option configures a Filter.
type Option func(*Filter)

// WithMetadataStore sets the attachment metadata source used for
// srcset/sizes and passed to ValueFunc hooks. Without a store attachment
// images only receive the loading attribute.
func WithMetadataStore(s MetadataStore) Option {
	return func(f *Filter) { f.store = s }
}

// WithLogger sets the logger for skipped tags and metadata store failures.
func WithLogger(l *slog.Logger) Option {
	return func(f *Filter) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithCurrentContext sets the function consulted for a label when a caller
// passes an empty one, typically the name of the active render hook.
func WithCurrentContext(fn func() string) Option {
	return func(f *Filter) { f.current = fn }
}

// Filter adds loading attributes to img and iframe tags according to a
// Policy. A Filter holds no per-call state and is safe for concurrent use.
type Filter struct {
	policy  *Policy
	skip    map[string]bool
	store   MetadataStore
	logger  *slog.Logger
	current func() string
}

// New returns a Filter for p. If p is nil, DefaultPolicy is used.
func New(p *Policy, opts ...Option) *Filter {
	if p == nil {
		p = DefaultPolicy()
	}
	f := &Filter{
		policy: p,
		skip:   sliceToSet(p.SkipClasses),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var defaultFilter = New(nil)

// FilterContentTags filters content with DefaultPolicy and no metadata
// store. See Filter.FilterContentTags.
func FilterContentTags(content, label string) string {
	return defaultFilter.FilterContentTags(content, label)
}

// FilterContentTags is FilterContentTagsContext with a background context.
func (f *Filter) FilterContentTags(content, label string) string {
	return f.FilterContentTagsContext(context.Background(), content, label)
}

// FilterContentTagsContext returns content with a loading attribute added to
// every eligible tag, and srcset/sizes added to attachment images. label
// identifies the call site and is handed unchanged to every Policy hook.
//
// Identical tag markup is rewritten identically wherever it occurs, so two
// distinct images that serialize to the same bytes cannot be told apart.
// Content without any eligible tag is returned as is.
func (f *Filter) FilterContentTagsContext(ctx context.Context, content, label string) string {
	label = f.label(label)
	tags := f.policy.Eligible(label)
	if len(tags) == 0 {
		return content
	}

	matches := Scan(content, tags)
	if len(matches) == 0 {
		return content
	}

	unique := make([]TagMatch, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if seen[m.HTML] {
			continue
		}
		seen[m.HTML] = true
		unique = append(unique, m)
	}

	f.warm(ctx, unique)

	replacements := make(map[string]string, len(unique))
	for _, m := range unique {
		if out := f.rewrite(ctx, m, content, label); out != m.HTML {
			replacements[m.HTML] = out
		}
	}
	if len(replacements) == 0 {
		return content
	}

	var b strings.Builder
	b.Grow(len(content) + 24*len(matches))
	last := 0
	for _, m := range matches {
		out, ok := replacements[m.HTML]
		if !ok {
			continue
		}
		b.WriteString(content[last:m.Start])
		b.WriteString(out)
		last = m.End
	}
	b.WriteString(content[last:])
	return b.String()
}

// AddLoadingAttribute adds a loading attribute to the first eligible tag in
// tagHTML, for renderers that produce a single tag such as avatars. No
// srcset/sizes are added.
func (f *Filter) AddLoadingAttribute(tagHTML, label string) string {
	label = f.label(label)
	matches := Scan(tagHTML, f.policy.Eligible(label))
	if len(matches) == 0 {
		return tagHTML
	}
	m := matches[0]
	if reason := skipReason(m, f.skip); reason != "" {
		f.logger.Debug("tag skipped", "tag", m.HTML, "reason", reason, "context", label)
		return tagHTML
	}
	d := f.policy.Decide(ValueInput{
		Tag:          m.Name,
		TagHTML:      m.HTML,
		AttachmentID: m.AttachmentID,
		Label:        label,
	})
	if !d.Modify {
		return tagHTML
	}
	return tagHTML[:m.Start] + InjectLoading(m.HTML, m.Name, d.Value) + tagHTML[m.End:]
}

// AddLoadingAttributeToAttributeMap returns a copy of attrs describing an img
// tag, with a "loading" key set when the policy allows it. An existing
// "loading" key is never replaced. attrs itself is not modified.
func (f *Filter) AddLoadingAttributeToAttributeMap(attrs map[string]string, label string) map[string]string {
	label = f.label(label)
	out := maps.Clone(attrs)
	if out == nil {
		out = make(map[string]string, 1)
	}
	if _, ok := out["loading"]; ok {
		return out
	}
	if !slices.Contains(f.policy.Eligible(label), "img") {
		return out
	}
	if hasClass(out["class"], f.skip) {
		return out
	}
	d := f.policy.Decide(ValueInput{
		Tag:          "img",
		AttachmentID: attachmentID(out["class"]),
		Label:        label,
	})
	if d.Modify {
		out["loading"] = d.Value
	}
	return out
}

func (f *Filter) label(label string) string {
	if label == "" && f.current != nil {
		return f.current()
	}
	return label
}

// warm issues a single bulk lookup for every distinct attachment id among
// the tags that will be processed.
func (f *Filter) warm(ctx context.Context, unique []TagMatch) {
	if f.store == nil {
		return
	}
	var ids []int
	seen := make(map[int]bool)
	for _, m := range unique {
		if m.AttachmentID <= 0 || seen[m.AttachmentID] {
			continue
		}
		if skipReason(m, f.skip) != "" {
			continue
		}
		seen[m.AttachmentID] = true
		ids = append(ids, m.AttachmentID)
	}
	if len(ids) < 2 {
		return
	}
	f.logger.Debug("warming attachment metadata", "ids", ids)
	if err := f.store.Warm(ctx, ids); err != nil {
		f.logger.Warn("warming attachment metadata failed", "ids", ids, "error", err)
	}
}

func (f *Filter) metadata(ctx context.Context, id int) *Metadata {
	if f.store == nil || id <= 0 {
		return nil
	}
	meta, err := f.store.Metadata(ctx, id)
	if err != nil {
		f.logger.Warn("attachment metadata lookup failed", "id", id, "error", err)
		return nil
	}
	return meta
}

// rewrite applies srcset/sizes and loading to one unique tag.
func (f *Filter) rewrite(ctx context.Context, m TagMatch, content, label string) string {
	if reason := skipReason(m, f.skip); reason != "" {
		f.logger.Debug("tag skipped", "tag", m.HTML, "reason", reason, "context", label)
		return m.HTML
	}

	out := m.HTML
	meta := f.metadata(ctx, m.AttachmentID)
	if m.Name == "img" && meta != nil {
		if _, ok := m.attrs["srcset"]; !ok && f.policy.srcsetEnabled(out, label, m.AttachmentID) {
			out = addSrcsetAndSizes(out, m.attrs, meta, f.policy.maxSrcsetWidth())
		}
	}

	d := f.policy.Decide(ValueInput{
		Tag:          m.Name,
		TagHTML:      m.HTML,
		Metadata:     meta,
		AttachmentID: m.AttachmentID,
		Content:      content,
		Label:        label,
	})
	if d.Modify {
		out = InjectLoading(out, m.Name, d.Value)
	}
	return out
}
