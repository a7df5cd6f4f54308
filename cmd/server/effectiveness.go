package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
)

func newEffectivenessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "effectiveness <attack> <defend> [defend]",
		Short: "Print the damage multiplier of an attack type against one or two defending types",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			types := make([]string, len(args))
			for i, a := range args {
				t := strings.ToLower(strings.TrimSpace(a))
				if !catalog.IsType(t) {
					return fmt.Errorf("unknown type %q, valid types: %s", a, strings.Join(catalog.Types, ", "))
				}
				types[i] = t
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g\n", catalog.Effectiveness(types[0], types[1:]))
			return nil
		},
	}
}
