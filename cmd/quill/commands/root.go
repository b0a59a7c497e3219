// Package commands implements the CLI commands for quill.
package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/quill/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Normalize generated articles and publish them as HTML",
	Long: `Quill turns raw generated article text into clean markdown and
publishable HTML with internal, external and promotional links.

Input may be plain text, markdown, HTML, or YAML/JSON files holding a
list of documents with text, topic and images.

Examples:
  # Normalize a file and print the HTML
  quill normalize post.txt --format html

  # Normalize with link candidates, verifying each URL first
  quill normalize post.txt --links links.yaml --verify-links

  # Publish a batch into the local store
  quill publish batch.yaml --db ~/.quill/quill.db

  # Generate an article with Anthropic and publish it
  quill generate "Sourdough starter care" -p anthropic --publish`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Options{
			Debug: viper.GetBool("debug"),
			Quiet: viper.GetBool("quiet"),
			JSON:  viper.GetBool("log_json"),
		})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.quill.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")
}

func initConfig() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("log_json", flags.Lookup("log-json"))

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".quill")
		viper.SetConfigType("yaml")
	}

	// QUILL_STORE_PATH sets store.path
	viper.SetEnvPrefix("QUILL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
