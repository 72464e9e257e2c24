// Package main provides the lazyload command.
//
// lazyload adds loading="lazy" attributes to the img and iframe tags of an
// HTML fragment, the way a rendering pipeline would before serving it.
//
// Usage:
//
//	lazyload filter post.html --context the_content
//	lazyload tag '<img src="avatar.png">' --context get_avatar
//	lazyload attrs src=a.jpg class=wp-image-7
//
// See --help for all available options.
package main

func main() {
	Execute()
}
