package lazyload_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/lazyload"
)

func TestScan_DocumentOrder(t *testing.T) {
	t.Parallel()

	content := `<p><img src="a" class="wp-image-12"></p><iframe src="b"></iframe><img src="a" class="wp-image-12">`
	got := lazyload.Scan(content, []string{"img", "iframe"})

	require.Len(t, got, 3)
	assert.Equal(t, "img", got[0].Name)
	assert.Equal(t, `<img src="a" class="wp-image-12">`, got[0].HTML)
	assert.Equal(t, 3, got[0].Start)
	assert.Equal(t, content[got[0].Start:got[0].End], got[0].HTML)
	assert.Equal(t, 12, got[0].AttachmentID)

	assert.Equal(t, "iframe", got[1].Name)
	assert.Equal(t, 0, got[1].AttachmentID)

	assert.Equal(t, got[0].HTML, got[2].HTML)
	assert.Greater(t, got[2].Start, got[1].End)
}

func TestScan_AttachmentID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag  string
		want int
	}{
		{tag: `<img class="wp-image-42" src="a">`, want: 42},
		{tag: `<img class="alignleft size-full WP-IMAGE-7" src="a">`, want: 7},
		{tag: `<img class="wp-image-" src="a">`, want: 0},
		{tag: `<img class="wp-image-0" src="a">`, want: 0},
		{tag: `<img class="not-wp-image-5" src="a">`, want: 0},
		{tag: `<img src="wp-image-5.jpg">`, want: 0},
		{tag: `<img src="a">`, want: 0},
	}
	for _, tt := range tests {
		got := lazyload.Scan(tt.tag, []string{"img"})
		require.Len(t, got, 1, tt.tag)
		assert.Equal(t, tt.want, got[0].AttachmentID, tt.tag)
	}
}

func TestScan_Attr(t *testing.T) {
	t.Parallel()

	got := lazyload.Scan(`<img SRC="a.jpg" data-loading="x">`, []string{"img"})
	require.Len(t, got, 1)

	src, ok := got[0].Attr("src")
	assert.True(t, ok)
	assert.Equal(t, "a.jpg", src)

	_, ok = got[0].Attr("loading")
	assert.False(t, ok)
}

func TestScan_NoCandidates(t *testing.T) {
	t.Parallel()

	assert.Empty(t, lazyload.Scan(`<p>plain</p>`, []string{"img"}))
	assert.Empty(t, lazyload.Scan(`<img src="a">`, nil))
	assert.Empty(t, lazyload.Scan(`<img src="a">`, []string{"iframe"}))
	assert.Empty(t, lazyload.Scan(`<img>`, []string{"img"}))
}

func BenchmarkScan_NoImages(b *testing.B) {
	content := make([]byte, 0, 64*1024)
	for len(content) < cap(content)-16 {
		content = append(content, "<p>text</p>\n"...)
	}
	s := string(content)
	tags := []string{"img", "iframe"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lazyload.Scan(s, tags)
	}
}
