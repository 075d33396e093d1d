package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPresignCommand(ctx *commandContext) *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "presign <file-name>",
		Short: "Request a presigned upload slot for an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.dialClient(cmd.Context())
			if err != nil {
				return err
			}
			result, err := client.Presign(cmd.Context(), args[0], contentType)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Object key:  %s\n", result.ObjectKey)
			fmt.Fprintf(stdout, "Upload URL:  %s\n", result.UploadURL)
			fmt.Fprintf(stdout, "Final URL:   %s\n", result.FileURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "Content type for the upload (default application/zip)")
	return cmd
}
