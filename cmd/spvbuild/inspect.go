package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/spvbuild/spvbin"
)

func (a *app) inspectCmd() *cobra.Command {
	var listing bool
	cmd := &cobra.Command{
		Use:   "inspect <file.spv>...",
		Short: "Print a summary of SPIR-V modules",
		Long: `inspect prints the header, capabilities, extensions, imports and entry
points of each module. With --instructions it also lists every instruction.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for i, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				s, err := spvbin.Inspect(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if len(args) > 1 {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "%s:\n", path)
				}
				if err := s.WriteText(out); err != nil {
					return err
				}
				if listing {
					if err := spvbin.WriteListing(out, data); err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&listing, "instructions", false, "list every instruction")
	return cmd
}
