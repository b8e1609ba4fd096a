package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"xvm/internal/tui"
)

func newUseCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "use <target> [version]",
		Short: "Select the version of a target in the current workspace",
		Long: "Select a version by exact match or prefix (the greatest matching version\n" +
			"wins). Without a version the greatest installed version is used. The\n" +
			"selection follows the version's bindings.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := s.manager(cmd)
			if err != nil {
				return err
			}
			requested := ""
			if len(args) == 2 {
				requested = args[1]
			}

			res, err := m.Use(args[0], requested)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s@%s %s\n", tui.Status("selected"), tui.TargetStyle.Render(args[0]), res.Version,
				tui.HintStyle.Render("("+res.Workspace+")"))
			if len(res.Resolved) > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "  with %s\n", bindingPairs(res.Resolved[1:]))
			}
			for _, edge := range res.Pruned {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s binding %s (version not installed)\n", tui.Status("pruned"), edge)
			}
			return nil
		},
	}
}
