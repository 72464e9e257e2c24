// Package lazyload adds loading="lazy" (or "eager") attributes to the img
// and iframe tags of rendered HTML fragments.
//
// # Overview
//
// lazyload scans an HTML string for candidate tags with a single regular
// expression pass, decides per tag whether to act by resolving a [Policy],
// and splices the attribute into the original markup. It does not build a
// DOM: untouched bytes, including quoting and whitespace of existing
// attributes, are preserved exactly. Input is assumed to be well-formed
// HTML; a ">" inside a quoted attribute value ends a tag early.
//
// # Policies
//
// A [Policy] resolves, for a tag name and a context label, four layers in
// order:
//   - A global default: img tags are enabled, every other tag is not
//   - [Policy.Enabled], which may replace that default
//   - [Policy.Tags], the allowlist of tag names scanned for the label
//   - [Policy.Value], which picks "lazy", "eager" or no attribute at all
//
// The label is opaque. It is typically the name of the rendering step
// ("the_content", "get_avatar") and lets hooks special-case call sites.
//
// # Invariants
//
// A tag that already declares a loading attribute is never modified, so
// filtering is idempotent. A tag carrying one of [Policy.SkipClasses]
// ("skip-lazy" by default) is never modified.
//
// # Attachments
//
// img tags with a "wp-image-<id>" class refer to a media attachment. When a
// [MetadataStore] is configured, the [Filter] warms it once per fragment with
// every distinct id, then adds srcset and sizes attributes built from the
// attachment's registered sizes.
//
// # Thread Safety
//
// A [Filter] keeps no per-call state and is safe for concurrent use. Policy
// structs should not be mutated after first use.
//
// # Example
//
//	f := lazyload.New(lazyload.DefaultPolicy())
//	out := f.FilterContentTags(postBody, "the_content")
package lazyload
