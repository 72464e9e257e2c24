package lazyload

import (
	"context"
	"path"
)

// ImageSize is one registered rendition of an attachment image.
type ImageSize struct {
	File     string `json:"file"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime-type,omitempty"`
}

// Metadata describes an attachment image and its registered sizes. It is
// owned by the MetadataStore; the filter only reads it.
type Metadata struct {
	ID     int                  `json:"id"`
	File   string               `json:"file"`
	Width  int                  `json:"width"`
	Height int                  `json:"height"`
	Sizes  map[string]ImageSize `json:"sizes,omitempty"`
}

// MetadataStore looks up attachment metadata for the srcset/sizes step.
//
// Metadata returns (nil, nil) when the attachment is unknown. Warm is a bulk
// hint issued once per filtered fragment with every distinct attachment id
// found in it, so that the following Metadata calls are served from cache.
type MetadataStore interface {
	Metadata(ctx context.Context, id int) (*Metadata, error)
	Warm(ctx context.Context, ids []int) error
}

// dimensionsFor returns the size of the rendition stored as file, or zeros
// when no rendition has that file name.
func (m *Metadata) dimensionsFor(file string) (int, int) {
	if m == nil || file == "" {
		return 0, 0
	}
	if path.Base(m.File) == file {
		return m.Width, m.Height
	}
	for _, s := range m.Sizes {
		if s.File == file {
			return s.Width, s.Height
		}
	}
	return 0, 0
}

// renditions lists the full-size image followed by every registered size.
func (m *Metadata) renditions() []ImageSize {
	out := make([]ImageSize, 0, len(m.Sizes)+1)
	if m.File != "" && m.Width > 0 && m.Height > 0 {
		out = append(out, ImageSize{File: path.Base(m.File), Width: m.Width, Height: m.Height})
	}
	for _, s := range m.Sizes {
		if s.File == "" || s.Width <= 0 || s.Height <= 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}
