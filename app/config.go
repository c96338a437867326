package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowboard/flowboard/internal/config"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := config.ReadConfig(configPath)
		if err != nil {
			return err
		}

		// never print the directory service account credential
		c.Auth.LDAP.BindPassword = "********"

		out, err := config.DumpConfig(c)
		if err != nil {
			return err
		}

		fmt.Println(out)

		return nil
	},
}
