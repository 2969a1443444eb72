package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"zerosum/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.store.Get()
			view := map[string]any{
				config.KeyLLMModel:        cfg.GetLLMModel(),
				config.KeyProvider:        cfg.GetProvider(),
				config.KeyAPIKey:          maskSecret(cfg.APIKey),
				config.KeyBaseURL:         cfg.BaseURL,
				config.KeyChunkTokens:     cfg.GetChunkTokens(),
				config.KeyFinalTokenLimit: cfg.GetFinalTokenLimit(),
				config.KeyMaxIterations:   cfg.GetMaxIterations(),
				config.KeyLogLevel:        cfg.GetLogLevel(),
				config.KeyUseFileLogging:  cfg.UseFileLogging,
				config.KeyLogPath:         cfg.LogPath,
				config.KeyESAddresses:     cfg.ESAddresses,
				config.KeyESUsername:      cfg.ESUsername,
				config.KeyESPassword:      maskSecret(cfg.ESPassword),
				config.KeyESIndex:         cfg.GetESIndex(),
				config.KeyHistoryPath:     cfg.GetHistoryPath(),
			}
			out, err := yaml.Marshal(view)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			if f := a.store.FileUsed(); f != "" {
				fmt.Fprintf(a.out, "# %s\n", f)
			}
			_, err = a.out.Write(out)
			return err
		},
	}
}
