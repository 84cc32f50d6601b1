package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bandstand/internal/api"
)

func newDraftsCommand(ctx *commandContext) *cobra.Command {
	draftsCmd := &cobra.Command{
		Use:   "drafts",
		Short: "Social media draft board",
	}

	draftsCmd.AddCommand(newDraftsGenerateCommand(ctx))
	draftsCmd.AddCommand(newDraftsListCommand(ctx))
	draftsCmd.AddCommand(newDraftsVoteCommand(ctx))
	draftsCmd.AddCommand(newDraftsStatusCommand(ctx))

	return draftsCmd
}

func newDraftsGenerateCommand(ctx *commandContext) *cobra.Command {
	var topic string
	var tone string
	var platforms []string
	var count int
	var includeMedia bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of post drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var generated api.DraftsResponse
			err = client.post(cmd.Context(), "/api/ai/social", api.SocialRequest{
				Action: api.SocialActionGenerate,
				Theme: api.Theme{
					Topic:        topic,
					Tone:         tone,
					Platforms:    platforms,
					IncludeMedia: includeMedia,
				},
				Count: count,
			}, &generated)
			if err != nil {
				return err
			}
			printDrafts(cmd, generated.Drafts)
			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "What the posts should be about")
	cmd.Flags().StringVar(&tone, "tone", "", "Desired tone of voice")
	cmd.Flags().StringSliceVar(&platforms, "platform", nil, "Target platform (repeatable)")
	cmd.Flags().IntVar(&count, "count", 0, "Number of drafts to generate")
	cmd.Flags().BoolVar(&includeMedia, "include-media", false, "Suggest matching archive media")
	return cmd
}

func newDraftsListCommand(ctx *commandContext) *cobra.Command {
	var status string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List post drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var listed api.DraftsResponse
			err = client.post(cmd.Context(), "/api/ai/social", api.SocialRequest{
				Action: api.SocialActionGetDrafts,
				Status: status,
				Limit:  limit,
			}, &listed)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, listed)
			}
			printDrafts(cmd, listed.Drafts)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (draft, approved, posted, rejected)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of drafts")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit raw JSON")
	return cmd
}

func newDraftsVoteCommand(ctx *commandContext) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "vote <draft-id>",
		Short: "Vote a draft up or down",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			up := !down
			var voted api.DraftResponse
			err = client.post(cmd.Context(), "/api/ai/social", api.SocialRequest{
				Action:    api.SocialActionVoteDraft,
				PostID:    args[0],
				Increment: &up,
			}, &voted)
			if err != nil {
				return err
			}
			if voted.Draft != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s now has %d votes\n", voted.Draft.ID, voted.Draft.Votes)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "Vote down instead of up")
	return cmd
}

func newDraftsStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <draft-id> <status>",
		Short: "Move a draft through the workflow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var updated api.DraftResponse
			err = client.post(cmd.Context(), "/api/ai/social", api.SocialRequest{
				Action: api.SocialActionUpdateStatus,
				PostID: args[0],
				Status: args[1],
			}, &updated)
			if err != nil {
				return err
			}
			if updated.Draft != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", updated.Draft.ID, updated.Draft.Status)
			}
			return nil
		},
	}
}

func printDrafts(cmd *cobra.Command, drafts []api.Draft) {
	rows := make([][]string, 0, len(drafts))
	for _, draft := range drafts {
		rows = append(rows, []string{
			draft.ID,
			strconv.Itoa(draft.Votes),
			draft.Status,
			strings.Join(draft.Platforms, ","),
			truncate(draft.Content, 60),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"ID", "VOTES", "STATUS", "PLATFORMS", "CONTENT"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
	))
}
