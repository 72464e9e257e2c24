package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewFilterCmd creates the filter command.
func NewFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter [file]",
		Short: "Filter an HTML fragment",
		Long: `Filter reads an HTML fragment from a file, or from stdin when no file is
given, and writes it to stdout with loading attributes added.

With --db, img tags carrying a wp-image-<id> class also receive srcset and
sizes attributes built from the attachment database.

Examples:
  # Filter a post body
  lazyload filter post.html

  # Filter a comment, using a policy file and the attachment database
  cat comment.html | lazyload filter -c comment_text --config policy.yaml --db media.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: runFilterCmd,
	}

	cmd.Flags().String("db", "", "Attachment metadata database (SQLite)")

	return cmd
}

func runFilterCmd(cmd *cobra.Command, args []string) error {
	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		file, err := os.Open(args[0]) //nolint:gosec // User-provided input path is intentional
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer file.Close()
		in = file
	}
	content, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	f, cleanup, err := newFilter(cmd, "the_content", dbPath)
	if err != nil {
		return err
	}
	defer cleanup()

	out := f.FilterContentTagsContext(cmd.Context(), string(content), "")
	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}
