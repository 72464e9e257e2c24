package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/njchilds90/lazyload"
	"github.com/njchilds90/lazyload/attachment"
	"github.com/njchilds90/lazyload/config"
	"github.com/njchilds90/lazyload/internal/log"
)

// NewRootCmd creates the root command for lazyload.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lazyload",
		Short: "Add loading attributes to img and iframe tags",
		Long: `lazyload rewrites HTML fragments so that img (and, when enabled, iframe)
tags carry a loading="lazy" or loading="eager" attribute.

Which tags are touched is decided by a policy file (.lazyload.yaml in the
current directory, or lazyload/config.yaml under the XDG config home) and
by the --context label naming the rendering step.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON")
	cmd.PersistentFlags().String("config", "", "Policy file (default: search .lazyload.yaml, then XDG config)")
	cmd.PersistentFlags().StringP("context", "c", "", "Context label passed to the policy")

	cmd.AddCommand(NewFilterCmd())
	cmd.AddCommand(NewTagCmd())
	cmd.AddCommand(NewAttrsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the logger selected by the persistent flags.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	jsonLog, err := cmd.Flags().GetBool("json-log")
	if err != nil {
		return nil, err
	}
	return log.New(cmd.ErrOrStderr(), verbose, jsonLog), nil
}

// loadPolicy resolves the policy file named by --config, or the default
// search path. No file means the default policy; an explicit path that
// does not exist is an error.
func loadPolicy(cmd *cobra.Command, logger *slog.Logger) (*lazyload.Policy, error) {
	explicit, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	path := config.Find(explicit)
	if path == "" {
		if explicit != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicit)
		}
		logger.Debug("no policy file found, using defaults")
		return lazyload.DefaultPolicy(), nil
	}
	f, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded policy file", "path", path)
	return f.Policy(), nil
}

// newFilter assembles a Filter from the persistent flags. fallback is the
// context label used when --context is not set. The returned cleanup closes
// the attachment store, if one was opened.
func newFilter(cmd *cobra.Command, fallback, dbPath string) (*lazyload.Filter, func(), error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, nil, err
	}
	policy, err := loadPolicy(cmd, logger)
	if err != nil {
		return nil, nil, err
	}
	label, err := cmd.Flags().GetString("context")
	if err != nil {
		return nil, nil, err
	}

	opts := []lazyload.Option{
		lazyload.WithLogger(logger),
		lazyload.WithCurrentContext(func() string {
			if label != "" {
				return label
			}
			return fallback
		}),
	}

	cleanup := func() {}
	if dbPath != "" {
		store, err := attachment.Open(dbPath, attachment.Options{EnableWAL: true})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open attachment database: %w", err)
		}
		opts = append(opts, lazyload.WithMetadataStore(store))
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing attachment database failed", "error", err)
			}
		}
	}

	return lazyload.New(policy, opts...), cleanup, nil
}
