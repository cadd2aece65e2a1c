// Package main provides the xcheck server CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/totegamma/xcheck/internal/config"
)

var (
	// configFile is set by the --config flag.
	configFile string

	// version is overwritten at build time with -ldflags "-X main.version=...".
	version = "dev"

	// conf is loaded once by PersistentPreRunE.
	conf config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "xcheck",
	Short: "xcheck certifies news organizations, journalists and articles",
	Long: `xcheck pins news records to IPFS through Pinata, anchors their content ids
on an Ethereum contract and keeps the resulting certification data in a
document store.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("xcheck " + version)
	},
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	var err error
	conf, err = config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return nil
}
