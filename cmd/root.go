// Package cmd provides the command-line interface for mdserve with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. MDSERVE_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (MDSERVE_SERVER_PORT, etc.)
//	4. Configuration files (.mdserve.yml) - lowest priority
//
// Environment Variables:
//
//	MDSERVE_CONFIG_FILE: Path to custom configuration file
//	MDSERVE_SERVER_PORT: Override server port
//	MDSERVE_SERVER_HOST: Override server host
//	MDSERVE_SERVER_THEME: Override color theme
//	And so on following the MDSERVE_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd is the base command. Running mdserve with no subcommand starts
// the preview server, which is the tool's primary action.
var rootCmd = &cobra.Command{
	Use:   "mdserve [path]",
	Short: "Serve markdown files with live reload",
	Long: `mdserve renders markdown to HTML and serves it over HTTP with live
reload: edits on disk push a refresh to every open browser tab.

Serve a single file or a whole directory:

  mdserve README.md        # preview one file
  mdserve docs/            # preview a directory with navigation
  mdserve                  # serve the current directory
  mdserve -p 3000 --open   # pick a port and open the browser`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default is .mdserve.yml)")
	rootCmd.PersistentFlags().
		String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().
		String("log-format", "text", "Log format (text, json)")

	if err := viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Printf("Error binding log-level flag: %v\n", err)
	}
	if err := viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format")); err != nil {
		fmt.Printf("Error binding log-format flag: %v\n", err)
	}

	addServeFlags(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("MDSERVE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		// Search for config in the working directory.
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mdserve")
	}

	viper.SetEnvPrefix("MDSERVE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
