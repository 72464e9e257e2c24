package lazyload_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/njchilds90/lazyload"
)

func TestPolicy_Defaults(t *testing.T) {
	t.Parallel()

	p := lazyload.DefaultPolicy()
	assert.True(t, p.TagEnabled("img", "the_content"))
	assert.True(t, p.TagEnabled("IMG", "the_content"))
	assert.False(t, p.TagEnabled("iframe", "the_content"))
	assert.Equal(t, []string{"img"}, p.Allowlist("the_content"))
	assert.Equal(t, []string{"img"}, p.Eligible("the_content"))
	assert.Equal(t, lazyload.Decision{Modify: true, Value: "lazy"}, p.Decide(lazyload.ValueInput{Tag: "img"}))

	var nilPolicy *lazyload.Policy
	assert.Equal(t, []string{"img"}, nilPolicy.Eligible(""))
}

func TestPolicy_Allowlist(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ret  any
		want []string
	}{
		{name: "list used as-is", ret: []string{"iframe", "img"}, want: []string{"iframe", "img"}},
		{name: "duplicates removed", ret: []string{"img", "img", "IMG ", "iframe"}, want: []string{"img", "iframe"}},
		{name: "unsupported dropped", ret: []string{"video", "img", "script"}, want: []string{"img"}},
		{name: "true resets to supported", ret: true, want: []string{"img", "iframe"}},
		{name: "false disables", ret: false, want: nil},
		{name: "nil disables", ret: nil, want: nil},
		{name: "empty list disables", ret: []string{}, want: nil},
		{name: "truthy scalar resets", ret: "yes", want: []string{"img", "iframe"}},
		{name: "falsy scalar disables", ret: 0, want: nil},
		{name: "untyped list used as-is", ret: []any{"img"}, want: []string{"img"}},
		{name: "untyped list non-strings ignored", ret: []any{1, "iframe", nil, "video"}, want: []string{"iframe"}},
		{name: "empty untyped list disables", ret: []any{}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &lazyload.Policy{Tags: func([]string, string) any { return tt.ret }}
			assert.Equal(t, tt.want, p.Allowlist("ctx"))
		})
	}
}

func TestPolicy_HookArguments(t *testing.T) {
	t.Parallel()

	var gotDef []string
	var gotLabels []string
	p := &lazyload.Policy{
		Tags: func(def []string, label string) any {
			gotDef = def
			gotLabels = append(gotLabels, "tags:"+label)
			return true
		},
		Enabled: func(def bool, tag, label string) bool {
			gotLabels = append(gotLabels, "enabled:"+tag+":"+label)
			assert.Equal(t, tag == "img", def)
			return def
		},
	}
	assert.Equal(t, []string{"img"}, p.Eligible("get_avatar"))
	assert.Equal(t, []string{"img"}, gotDef)
	assert.Equal(t, []string{"tags:get_avatar", "enabled:img:get_avatar", "enabled:iframe:get_avatar"}, gotLabels)
}

func TestPolicy_Decide(t *testing.T) {
	t.Parallel()

	var def string
	p := &lazyload.Policy{Value: func(d string, in lazyload.ValueInput) any {
		def = d
		if in.Tag == "iframe" {
			return "eager"
		}
		return false
	}}
	assert.Equal(t, lazyload.Decision{Modify: true, Value: "eager"}, p.Decide(lazyload.ValueInput{Tag: "iframe"}))
	assert.Equal(t, lazyload.Decision{}, p.Decide(lazyload.ValueInput{Tag: "img"}))
	assert.Equal(t, "lazy", def)

	eager := lazyload.EagerPolicy()
	assert.Equal(t, "eager", eager.Decide(lazyload.ValueInput{Tag: "img"}).Value)
}
