package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/oic-ledger/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func standardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standards",
		Short: "Show IRS Collection Financial Standards for a household",
		Long: `Look up the allowable living expense standards used by the calculation.

Examples:
  # Family of three in New York with one car
  oic standards --state NY --family-size 3 --vehicles 1

  # List the available standards versions
  oic standards --list`,
		Args: cobra.NoArgs,
		RunE: runStandards,
	}

	cmd.Flags().String("version", "", "standards version (default: latest)")
	cmd.Flags().String("file", "", "additional standards table (YAML)")
	cmd.Flags().String("state", "", "two-letter state code")
	cmd.Flags().Int("family-size", 1, "household size")
	cmd.Flags().Int("over65", 0, "household members 65 or older")
	cmd.Flags().Int("vehicles", 0, "vehicles owned or leased")
	cmd.Flags().Bool("public-transit", false, "household uses public transportation")
	cmd.Flags().Bool("list", false, "list available versions")

	return cmd
}

func runStandards(cmd *cobra.Command, _ []string) error {
	version, _ := cmd.Flags().GetString("version")
	file, _ := cmd.Flags().GetString("file")
	state, _ := cmd.Flags().GetString("state")
	size, _ := cmd.Flags().GetInt("family-size")
	over65, _ := cmd.Flags().GetInt("over65")
	vehicles, _ := cmd.Flags().GetInt("vehicles")
	transit, _ := cmd.Flags().GetBool("public-transit")
	list, _ := cmd.Flags().GetBool("list")

	if file == "" {
		file = viper.GetString("standards.file")
	}
	if version == "" {
		version = viper.GetString("standards.version")
	}
	if state == "" {
		state = viper.GetString("household.state")
	}

	registry, err := loadRegistry(file)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if list {
		current := registry.Current().Version
		for _, v := range registry.Versions() {
			marker := "  "
			if v == current {
				marker = "* "
			}
			if _, err := fmt.Fprintln(out, marker+v); err != nil {
				return err
			}
		}
		return nil
	}

	if size < 1 || over65 < 0 || over65 > size || vehicles < 0 {
		return fmt.Errorf("invalid household: family size %d, %d over 65, %d vehicles", size, over65, vehicles)
	}

	table, err := registry.Lookup(version)
	if err != nil {
		return err
	}

	allowable := table.All(strings.ToUpper(state), size, size-over65, over65, vehicles, transit)
	return cli.RenderStandards(out, allowable, table.MinimumOffer())
}
