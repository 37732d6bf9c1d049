package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/brandforge/gen-server/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const forgePrefix = "FORGE"

var Cmd = &cobra.Command{
	Use:   "forge",
	Short: "Brandforge gen-server CLI",
	Long:  "An image generation gateway that orchestrates third-party providers with transparent fallback",

	// Runs before this command and any subcommands
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		viper.SetEnvPrefix(forgePrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(
			`-`, `_`,
			`.`, `_`,
		))
		viper.AutomaticEnv()

		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
			return err
		}

		return config.LoadEnvAndConfigFiles()
	},
}

func Execute() {
	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func GetRootCmd() *cobra.Command {
	return Cmd
}

func init() {
	pflags := Cmd.PersistentFlags()

	pflags.String("forge-home", "", "Path to the forge home directory")
	pflags.String("config-file", "", "Path to the config file")
	pflags.String("env-file", "", "Path to the env file")

	viper.BindPFlag("forge_home", pflags.Lookup("forge-home"))
	viper.BindPFlag("config_file", pflags.Lookup("config-file"))
	viper.BindPFlag("env_file", pflags.Lookup("env-file"))

	Cmd.AddCommand(runCmd)
	Cmd.CompletionOptions.HiddenDefaultCmd = true
}
