package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Lin-Jiong-HDU/jarvis/internal/storage"
	"github.com/spf13/cobra"
)

type initOptions struct {
	provider string
	apiKey   string
	force    bool
}

func getInitCommand() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.provider, "provider", "gemini", "interpretation provider: gemini or openai")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key to store in the config")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing config")

	return cmd
}

func runInit(cmd *cobra.Command, opts *initOptions) error {
	path := configPath
	if path == "" {
		p, err := storage.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !opts.force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check config: %w", err)
	}

	cfg := storage.DefaultConfig()
	cfg.AI.APIKey = opts.apiKey
	switch opts.provider {
	case "gemini":
	case "openai":
		cfg.AI.Provider = "openai"
		cfg.AI.Model = defaultOpenAIModel
		cfg.AI.ChatModel = defaultOpenAIModel
	default:
		return fmt.Errorf("unsupported provider: %s", opts.provider)
	}

	if err := storage.SaveConfig(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
