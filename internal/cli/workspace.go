package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"xvm/internal/manager"
	"xvm/internal/tui"
	"xvm/internal/workspace"
)

func newWorkspaceCmd(s *session) *cobra.Command {
	var active, inherit bool
	cmd := &cobra.Command{
		Use:   "workspace <name>",
		Short: "Create or configure a workspace",
		Long: "Configure the global workspace when name is \"global\", otherwise the\n" +
			"workspace of the current directory, creating it on first use.\n" +
			"Deactivating the global workspace removes its shims; reactivating\n" +
			"restores them.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := s.manager(cmd)
			if err != nil {
				return err
			}
			req := manager.WorkspaceRequest{
				Name: args[0],
				ConfirmRename: func(from, to string) (bool, error) {
					return s.confirm(cmd, fmt.Sprintf("Rename workspace %q to %q?", from, to))
				},
			}
			if cmd.Flags().Changed("active") {
				req.Active = &active
			}
			if cmd.Flags().Changed("inherit") {
				req.Inherit = &inherit
			}

			res, err := m.ConfigureWorkspace(req)
			if err != nil {
				return err
			}
			writeWorkspaceResult(cmd, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&active, "active", true, "Whether the workspace takes effect")
	cmd.Flags().BoolVar(&inherit, "inherit", true, "Whether a local workspace falls back to global selections")
	return cmd
}

func writeWorkspaceResult(cmd *cobra.Command, res manager.WorkspaceResult) {
	verb := "workspace"
	switch {
	case res.Created:
		verb = "created workspace"
	case res.Renamed:
		verb = "renamed workspace"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", verb, tui.TargetStyle.Render(res.Metadata.Name), tui.HintStyle.Render(res.Path))
	fmt.Fprintf(cmd.OutOrStdout(), "  active:  %t\n", res.Metadata.Active)
	if res.Metadata.Name != workspace.GlobalName {
		fmt.Fprintf(cmd.OutOrStdout(), "  inherit: %t\n", res.Metadata.Inherit)
	}
	for _, target := range res.Removed {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s shim %s\n", tui.Status("removed"), target)
	}
	for _, target := range res.Restored {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s shim %s\n", tui.Status("installed"), target)
	}
}
