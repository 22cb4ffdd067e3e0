package main

import (
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List test categories and interview durations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		cat, err := c.GetCatalog(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), cat)
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a set of categories at a duration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		categories, _ := cmd.Flags().GetStringSlice("categories")
		duration, _ := cmd.Flags().GetInt("duration")

		c, err := newClient()
		if err != nil {
			return err
		}

		quote, err := c.Quote(cmd.Context(), categories, duration)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), quote)
	},
}

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Show the credit balance and recent transactions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		balance, err := c.GetCredits(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), balance)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd, quoteCmd, creditsCmd)

	quoteCmd.Flags().StringSliceP("categories", "c", nil, "category ids in selection order, e.g. iq,eq")
	quoteCmd.Flags().IntP("duration", "m", 30, "interview length in minutes")
	quoteCmd.MarkFlagRequired("categories")
}
