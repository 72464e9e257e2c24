package lazyload

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// DefaultMaxSrcsetWidth is the widest rendition listed in a srcset unless
// the Policy says otherwise.
const DefaultMaxSrcsetWidth = 2048

// Srcset builds the srcset and sizes attribute values for an image shown at
// width x height whose markup points at src. Candidates are the renditions
// in meta that share the image's aspect ratio and are no wider than
// maxWidth; the rendition src points at is always kept. ok is false when
// src is not one of the attachment's files or fewer than two candidates
// remain.
func Srcset(src string, width, height int, meta *Metadata, maxWidth int) (srcset, sizes string, ok bool) {
	if meta == nil || src == "" {
		return "", "", false
	}

	// Candidate URLs reuse the directory of src, so src must name one of
	// the attachment's own files.
	dir, name := splitSrc(src)
	fileWidth, fileHeight := meta.dimensionsFor(name)
	if fileWidth <= 0 || fileHeight <= 0 {
		return "", "", false
	}
	if width <= 0 || height <= 0 {
		width, height = fileWidth, fileHeight
	}
	if maxWidth <= 0 {
		maxWidth = DefaultMaxSrcsetWidth
	}

	renditions := meta.renditions()
	slices.SortStableFunc(renditions, func(a, b ImageSize) int {
		if c := cmp.Compare(a.Width, b.Width); c != 0 {
			return c
		}
		// Prefer the file the tag already points at when widths tie.
		if c := cmp.Compare(boolRank(a.File != name), boolRank(b.File != name)); c != 0 {
			return c
		}
		return cmp.Compare(a.File, b.File)
	})

	var sources []string
	seen := make(map[int]bool, len(renditions))
	for _, r := range renditions {
		if seen[r.Width] {
			continue
		}
		if r.Width > maxWidth && r.File != name {
			continue
		}
		if !matchesRatio(width, height, r.Width, r.Height) {
			continue
		}
		seen[r.Width] = true
		sources = append(sources, dir+r.File+" "+strconv.Itoa(r.Width)+"w")
	}
	if len(sources) < 2 {
		return "", "", false
	}

	return strings.Join(sources, ", "), fmt.Sprintf("(max-width: %dpx) 100vw, %dpx", width, width), true
}

// addSrcsetAndSizes appends srcset and sizes to an img tag whose attributes
// have already been read into attrs.
func addSrcsetAndSizes(tagHTML string, attrs map[string]string, meta *Metadata, maxWidth int) string {
	width, _ := strconv.Atoi(strings.TrimSpace(attrs["width"]))
	height, _ := strconv.Atoi(strings.TrimSpace(attrs["height"]))
	srcset, sizes, ok := Srcset(attrs["src"], width, height, meta, maxWidth)
	if !ok {
		return tagHTML
	}
	return appendAttrs(tagHTML, ` srcset="`+html.EscapeString(srcset)+`" sizes="`+html.EscapeString(sizes)+`"`)
}

// splitSrc returns the directory part of src including its trailing slash,
// and the file name with any query or fragment removed.
func splitSrc(src string) (dir, name string) {
	p := src
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	slash := strings.LastIndexByte(p, '/')
	return p[:slash+1], p[slash+1:]
}

// matchesRatio reports whether two sizes share an aspect ratio, allowing one
// pixel of rounding on the edge of the larger size scaled to the smaller.
func matchesRatio(w1, h1, w2, h2 int) bool {
	if w1 <= 0 || h1 <= 0 || w2 <= 0 || h2 <= 0 {
		return false
	}
	if w1 < w2 {
		w1, h1, w2, h2 = w2, h2, w1, h1
	}
	expected := math.Round(float64(h1) * float64(w2) / float64(w1))
	return math.Abs(expected-float64(h2)) <= 1
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
