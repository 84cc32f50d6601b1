package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bandstand/internal/api"
)

func newDelegationCommand(ctx *commandContext) *cobra.Command {
	delegationCmd := &cobra.Command{
		Use:   "delegation",
		Short: "Storage delegation grants",
	}

	delegationCmd.AddCommand(newDelegationAgentDIDCommand(ctx))
	delegationCmd.AddCommand(newDelegationCreateCommand(ctx))
	delegationCmd.AddCommand(newDelegationInspectCommand(ctx))
	delegationCmd.AddCommand(newDelegationRevokeCommand(ctx))

	return delegationCmd
}

func newDelegationAgentDIDCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "agent-did",
		Short: "Print the daemon's agent DID",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var response api.AgentDIDResponse
			if err := client.post(cmd.Context(), "/api/storage/delegation/get-agent-did", struct{}{}, &response); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), response.DID)
			return nil
		},
	}
}

func newDelegationCreateCommand(ctx *commandContext) *cobra.Command {
	var audience string
	var abilities []string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a delegation grant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(audience) == "" {
				return fmt.Errorf("--audience is required")
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var created api.GrantResponse
			err = client.post(cmd.Context(), "/api/storage/delegation/create", api.DelegationCreateRequest{
				AudienceDID: audience,
				Abilities:   abilities,
				TTLSeconds:  int(ttl / time.Second),
			}, &created)
			if err != nil {
				return err
			}
			if created.Grant == nil {
				return fmt.Errorf("daemon returned no grant")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Grant %s for %s\n", created.Grant.ID, created.Grant.Audience)
			fmt.Fprintf(out, "Abilities: %s\n", strings.Join(created.Grant.Abilities, ", "))
			fmt.Fprintf(out, "Expires: %s\n", created.Grant.ExpiresAt.Local().Format(time.RFC3339))
			fmt.Fprintf(out, "Token:\n%s\n", created.Grant.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&audience, "audience", "", "DID of the grant recipient")
	cmd.Flags().StringSliceVar(&abilities, "ability", nil, "Granted ability (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Grant lifetime (default 24h, capped at 720h)")
	return cmd
}

func newDelegationInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Short: "Validate a grant token and print its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var inspected api.GrantResponse
			err = client.post(cmd.Context(), "/api/storage/delegation/use",
				api.DelegationUseRequest{Token: args[0]}, &inspected)
			if err != nil {
				return err
			}
			return writeJSON(cmd, inspected.Grant)
		},
	}
}

func newDelegationRevokeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <grant-id>",
		Short: "Revoke a delegation grant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			err = client.post(cmd.Context(), "/api/storage/delegation/revoke",
				api.DelegationRevokeRequest{GrantID: args[0]}, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s\n", args[0])
			return nil
		},
	}
}
