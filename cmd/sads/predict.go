package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/johan/sads-console/internal/prediction"
)

var predictCmd = &cobra.Command{
	Use:   "predict <address>",
	Short: "Print the synthetic risk prediction for an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if issues := prediction.Validate(args[0]); len(issues) > 0 {
			msgs := make([]string, len(issues))
			for i, is := range issues {
				msgs[i] = is.Message
			}
			return errors.Errorf("invalid address: %s", strings.Join(msgs, "; "))
		}

		return writeJSON(cmd.OutOrStdout(), prediction.Generate(args[0]))
	},
}
