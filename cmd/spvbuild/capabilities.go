package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/spvbuild/capability"
)

func (a *app) capabilitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "List the capability names --capabilities accepts",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range capability.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
