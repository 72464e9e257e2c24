package lazyload_test

import (
	"fmt"

	"github.com/njchilds90/lazyload"
)

func ExampleFilterContentTags() {
	input := `<p><img src="a.jpg" class="wp-image-5"></p>`
	fmt.Println(lazyload.FilterContentTags(input, "the_content"))
	// Output: <p><img loading="lazy" src="a.jpg" class="wp-image-5"></p>
}

func ExampleFilter_FilterContentTags_iframes() {
	p := lazyload.DefaultPolicy()
	p.Tags = func(def []string, label string) any {
		if label == "the_content" {
			return []string{"img", "iframe"}
		}
		return def
	}
	p.Enabled = func(def bool, tag, label string) bool {
		return def || tag == "iframe"
	}
	f := lazyload.New(p)
	fmt.Println(f.FilterContentTags(`<iframe src="https://example.com"></iframe>`, "the_content"))
	fmt.Println(f.FilterContentTags(`<iframe src="https://example.com"></iframe>`, "comment_text"))
	// Output:
	// <iframe loading="lazy" src="https://example.com"></iframe>
	// <iframe src="https://example.com"></iframe>
}

func ExampleFilter_AddLoadingAttribute() {
	f := lazyload.New(lazyload.EagerPolicy())
	fmt.Println(f.AddLoadingAttribute(`<img src="avatar.png" class="avatar" />`, "get_avatar"))
	// Output: <img loading="eager" src="avatar.png" class="avatar" />
}

func ExampleFilter_AddLoadingAttributeToAttributeMap() {
	f := lazyload.New(nil)
	attrs := f.AddLoadingAttributeToAttributeMap(map[string]string{"src": "a.jpg"}, "wp_get_attachment_image")
	fmt.Println(attrs["loading"])
	// Output: lazy
}
