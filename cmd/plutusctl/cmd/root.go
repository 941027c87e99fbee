package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plutus-app/plutus/log"
)

var (
	appLogger log.Logger
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "plutusctl",
	Short: "plutusctl is a CLI tool to interact with the Plutus session service",
	Long:  `A command-line interface for inspecting and terminating sessions of the Plutus session service running on this machine.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		appLogger = log.NewZerologAdapter(zerolog.WarnLevel, true)

		v := viper.New()
		v.SetConfigName("plutusctl")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.plutus")
		v.SetEnvPrefix("PLUTUSCTL")
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()
		v.SetDefault("server", "http://localhost:8080")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("error reading plutusctl config: %w", err)
			}
		}
		if serverURL == "" {
			serverURL = v.GetString("server")
		}
		appLogger.Debug(cmd.Context(), "Resolved session service endpoint", map[string]interface{}{
			"server": serverURL,
		})
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"session service endpoint (default http://localhost:8080, or 'server' in $HOME/.plutus/plutusctl.yaml)")
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(authCmd)
}
