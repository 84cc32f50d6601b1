package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bandstand/internal/api"
)

func newAssetsCommand(ctx *commandContext) *cobra.Command {
	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage the media archive",
	}

	assetsCmd.AddCommand(newAssetsListCommand(ctx))
	assetsCmd.AddCommand(newAssetsUploadCommand(ctx))
	assetsCmd.AddCommand(newAssetsVerifyCommand(ctx))
	assetsCmd.AddCommand(newAssetsInitializeCommand(ctx))

	return assetsCmd
}

func newAssetsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var listed api.ListResponse
			if err := client.post(cmd.Context(), "/api/storage/list", struct{}{}, &listed); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, listed)
			}

			rows := make([][]string, 0, len(listed.Assets))
			for _, asset := range listed.Assets {
				rows = append(rows, []string{
					asset.CID,
					asset.Name,
					formatSize(asset.SizeBytes),
					yesNo(asset.Pinned),
					yesNo(asset.Mocked),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"CID", "NAME", "SIZE", "PINNED", "MOCKED"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit raw JSON")
	return cmd
}

func newAssetsUploadCommand(ctx *commandContext) *cobra.Command {
	var title string
	var description string
	var mediaType string
	var tags []string

	cmd := &cobra.Command{
		Use:   "upload <file> [file...]",
		Short: "Upload files to the archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]api.UploadFile, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				files = append(files, api.UploadFile{
					Name:     filepath.Base(path),
					MimeType: guessMimeType(path),
					Data:     data,
				})
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}
			var uploaded api.UploadResponse
			err = client.post(cmd.Context(), "/api/storage/upload", api.UploadRequest{
				Files: files,
				Metadata: api.UploadMetadata{
					Title:       title,
					Description: description,
					Type:        mediaType,
					Tags:        tags,
				},
			}, &uploaded)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, result := range uploaded.Results {
				fmt.Fprintf(out, "%s  %s (%s)\n", result.Asset.CID, result.Asset.Name, result.Outcome)
				if result.Asset.URL != "" {
					fmt.Fprintf(out, "  %s\n", result.Asset.URL)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Asset title")
	cmd.Flags().StringVar(&description, "description", "", "Asset description")
	cmd.Flags().StringVar(&mediaType, "type", "", "Media type label (photo, poster, ...)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag to attach (repeatable)")
	return cmd
}

func newAssetsVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <cid>",
		Short: "Verify that an asset is pinned on the remote network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var verified api.VerifyAssetResponse
			err = client.post(cmd.Context(), "/api/storage/verify",
				api.VerifyAssetRequest{CID: args[0]}, &verified)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: verified=%s source=%s\n",
				verified.CID, yesNo(verified.Verified), verified.Source)
			return nil
		},
	}
}

func newAssetsInitializeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "initialize",
		Short: "Connect the archive to remote storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var response api.InitializeResponse
			if err := client.post(cmd.Context(), "/api/storage/initialize", struct{}{}, &response); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if response.Initialized {
				fmt.Fprintf(out, "Connected to %s (%d assets)\n", response.SpaceDID, response.AssetCount)
				return nil
			}
			if response.Message != "" {
				fmt.Fprintln(out, response.Message)
			} else {
				fmt.Fprintln(out, "Remote storage not connected; operating locally")
			}
			return nil
		},
	}
}

func guessMimeType(path string) string {
	if mimeType := mime.TypeByExtension(filepath.Ext(path)); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return strconv.FormatInt(bytes, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(bytes) / float64(div)
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPE"[exp])
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
