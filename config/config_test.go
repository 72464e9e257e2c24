package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/lazyload"
	"github.com/njchilds90/lazyload/config"
)

const sample = `
skip_classes: [skip-lazy, no-lazy]
max_srcset_width: 1600
contexts:
  the_content:
    tags: [img, iframe]
    enabled:
      iframe: true
  comment_text:
    tags: false
  hero_widget:
    value: eager
  the_excerpt:
    value: ""
`

func TestParse_Sample(t *testing.T) {
	t.Parallel()

	f, err := config.Parse(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, []string{"skip-lazy", "no-lazy"}, f.SkipClasses)
	assert.Equal(t, 1600, f.MaxSrcsetWidth)
	require.Contains(t, f.Contexts, "comment_text")
	require.NotNil(t, f.Contexts["comment_text"].Tags.All)
	assert.False(t, *f.Contexts["comment_text"].Tags.All)
	assert.Equal(t, []string{"img", "iframe"}, f.Contexts["the_content"].Tags.Names)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{name: "unsupported tag in list", doc: "tags: [img, video]", want: config.ErrUnsupportedTag},
		{name: "unsupported tag in enabled", doc: "contexts:\n  x:\n    enabled: {audio: true}", want: config.ErrUnsupportedTag},
		{name: "bad value", doc: "value: sometimes", want: config.ErrInvalidValue},
		{name: "padded value", doc: "value: \" eager \"", want: config.ErrInvalidValue},
		{name: "tags scalar", doc: "tags: img", want: config.ErrInvalidValue},
		{name: "negative width", doc: "max_srcset_width: -1", want: config.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.Parse(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()
		_, err := config.Parse(strings.NewReader("skip_class: [x]"))
		assert.Error(t, err)
	})
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()
	f, err := config.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, lazyload.DefaultPolicy().SkipClasses, f.Policy().SkipClasses)
}

func TestFile_Policy(t *testing.T) {
	t.Parallel()

	f, err := config.Parse(strings.NewReader(sample))
	require.NoError(t, err)
	filter := lazyload.New(f.Policy())

	const img = `<img src="a.jpg">`
	const iframe = `<iframe src="https://x"></iframe>`

	tests := []struct {
		name  string
		label string
		in    string
		want  string
	}{
		{
			name:  "iframes enabled for the content",
			label: "the_content",
			in:    img + iframe,
			want:  `<img loading="lazy" src="a.jpg"><iframe loading="lazy" src="https://x"></iframe>`,
		},
		{
			name:  "iframes stay default elsewhere",
			label: "widget_text_content",
			in:    img + iframe,
			want:  `<img loading="lazy" src="a.jpg">` + iframe,
		},
		{
			name:  "allowlist false disables the context",
			label: "comment_text",
			in:    img,
			want:  img,
		},
		{
			name:  "eager value",
			label: "hero_widget",
			in:    img,
			want:  `<img loading="eager" src="a.jpg">`,
		},
		{
			name:  "empty value adds nothing",
			label: "the_excerpt",
			in:    img,
			want:  img,
		},
		{
			name:  "extra skip class",
			label: "the_content",
			in:    `<img class="no-lazy" src="a.jpg">`,
			want:  `<img class="no-lazy" src="a.jpg">`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, filter.FilterContentTags(tt.in, tt.label))
		})
	}
}

func TestFile_PolicyEnabledKeyCase(t *testing.T) {
	t.Parallel()

	doc := "enabled: {IMG: false}\ncontexts:\n  the_content:\n    tags: true\n    enabled: {\" Iframe\": true}\n"
	f, err := config.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	p := f.Policy()
	assert.False(t, p.TagEnabled("img", "comment_text"))
	assert.Equal(t, []string{"iframe"}, p.Eligible("the_content"))
}

func TestFile_PolicyNil(t *testing.T) {
	t.Parallel()
	var f *config.File
	p := f.Policy()
	assert.Equal(t, []string{"img"}, p.Eligible("anything"))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	f, err := config.Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Contexts, 4)

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, config.ErrConfigNotFound)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("value: maybe"), 0o600))
	_, err = config.Load(bad)
	assert.ErrorIs(t, err, config.ErrInvalidValue)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestFind_Explicit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	assert.Equal(t, path, config.Find(path))
	assert.Equal(t, "", config.Find(filepath.Join(dir, "missing.yaml")))
}
