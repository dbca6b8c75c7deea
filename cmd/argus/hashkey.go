package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/argusia/argus/internal/auth"
)

func hashKeyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key",
		Short: "Create an operator API key",
		Long: `Create a random operator API key and print it together with the hash and salt
to put in auth.api_key_hash and auth.api_key_salt. The key is shown only once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, hash, salt, err := auth.GenerateAPIKey(auth.ConfigFromAppConfig(opts.cfg))
			if err != nil {
				return fmt.Errorf("failed to generate API key: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "API key:  %s\n", key)
			fmt.Fprintf(out, "AUTH_API_KEY_HASH=%s\n", hash)
			fmt.Fprintf(out, "AUTH_API_KEY_SALT=%s\n", salt)
			return nil
		},
	}
}
