package main

import (
	"github.com/spf13/cobra"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Create and inspect interview drafts",
}

var draftCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a new draft",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		view, err := c.CreateDraft(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), view)
	},
}

var draftShowCmd = &cobra.Command{
	Use:   "show DRAFT_ID",
	Short: "Show a draft with its pricing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		view, err := c.GetDraft(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), view)
	},
}

var draftGenerateCmd = &cobra.Command{
	Use:   "generate DRAFT_ID",
	Short: "Deduct credits and generate the draft's questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		res, err := c.GenerateQuestions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var draftDeleteCmd = &cobra.Command{
	Use:   "delete DRAFT_ID",
	Short: "Discard a draft; saved interviews are kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		if err := c.DeleteDraft(cmd.Context(), args[0]); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions INTERVIEW_ID",
	Short: "List the candidate sessions of an interview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		list, err := c.ListSessions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), list)
	},
}

func init() {
	draftCmd.AddCommand(draftCreateCmd, draftShowCmd, draftGenerateCmd, draftDeleteCmd)
	rootCmd.AddCommand(draftCmd, sessionsCmd)
}
