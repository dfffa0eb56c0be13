package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [flags] [file]",
	Short: "Print or save the configuration.",
	Long: `Print the configuration as JSON, or save it to file. The configuration is
the defaults, or the file given with --config, which is validated first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if err := config.Validate(); err != nil {
			return err
		}

		if len(args) == 1 {
			if err := config.SaveConfig(args[0]); err != nil {
				return err
			}
			fmt.Printf("configuration written to %s\n", args[0])
			return nil
		}

		data, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize config: %w", err)
		}

		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
