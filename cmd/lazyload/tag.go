package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// NewTagCmd creates the tag command.
func NewTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <html>",
		Short: "Add a loading attribute to a single tag",
		Long: `Tag adds a loading attribute to one img or iframe tag, as an avatar or
attachment renderer would. The default context is get_avatar.

Example:
  lazyload tag '<img src="avatar.png" class="avatar">'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, cleanup, err := newFilter(cmd, "get_avatar", "")
			if err != nil {
				return err
			}
			defer cleanup()
			_, err = fmt.Fprintln(cmd.OutOrStdout(), f.AddLoadingAttribute(args[0], ""))
			return err
		},
	}
}

// NewAttrsCmd creates the attrs command.
func NewAttrsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attrs key=value...",
		Short: "Add a loading key to an img attribute map",
		Long: `Attrs treats its arguments as the attribute map of an img tag and prints
the map, sorted by key, after the loading attribute was applied. The default
context is wp_get_attachment_image.

Example:
  lazyload attrs src=a.jpg class=wp-image-7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseAttrs(args)
			if err != nil {
				return err
			}
			f, cleanup, err := newFilter(cmd, "wp_get_attachment_image", "")
			if err != nil {
				return err
			}
			defer cleanup()

			out := f.AddLoadingAttributeToAttributeMap(attrs, "")
			for _, k := range slices.Sorted(maps.Keys(out)) {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s=%q\n", k, out[k]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func parseAttrs(args []string) (map[string]string, error) {
	attrs := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid attribute %q, expected key=value", arg)
		}
		attrs[strings.ToLower(k)] = v
	}
	return attrs, nil
}
