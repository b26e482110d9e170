// Package cli implements the qsgov command-line interface, an HTTP client of
// the governance admin API.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]interface{}{
				"error": err.Error(),
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
			}
			_ = printJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host    string
		apiKey  string
		token   string
		output  string
		profile string
	)

	rootCmd := &cobra.Command{
		Use:           "qsgov",
		Short:         "QuickSight governance CLI",
		Long:          "Command-line interface for the QuickSight governance API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "API host URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "JWT token for authentication")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Config profile to use")

	client := NewClient(host, apiKey, token)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := LoadUserConfig()
		if err != nil {
			// Config file is optional.
			cfg = &UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}
		}
		p := cfg.ActiveProfile(profile)

		// Precedence: flag > env > profile > default.
		if !cmd.Flags().Changed("host") {
			if v := os.Getenv("QSGOV_HOST"); v != "" {
				host = v
			} else if p.Host != "" {
				host = p.Host
			}
		}
		if !cmd.Flags().Changed("api-key") {
			if v := os.Getenv("QSGOV_API_KEY"); v != "" {
				apiKey = v
			} else if p.APIKey != "" {
				apiKey = p.APIKey
			}
		}
		if !cmd.Flags().Changed("token") {
			if v := os.Getenv("QSGOV_TOKEN"); v != "" {
				token = v
			} else if p.Token != "" {
				token = p.Token
			}
		}
		if !cmd.Flags().Changed("output") {
			if v := os.Getenv("QSGOV_OUTPUT"); v != "" {
				output = v
			} else if p.Output != "" {
				output = p.Output
			}
		}

		if err := validateOutputFormat(output); err != nil {
			return err
		}

		client.BaseURL = host
		client.APIKey = apiKey
		client.Token = token
		return nil
	}

	rootCmd.AddCommand(newRunCmd(client))
	rootCmd.AddCommand(newRunsCmd(client))
	rootCmd.AddCommand(newCollectCmd(client))
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
