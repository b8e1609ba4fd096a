package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xvm/internal/registry"
	"xvm/internal/tui"
)

func newRemoveCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <target> [version]",
		Aliases: []string{"rm"},
		Short:   "Forget one version of a target, or all of them",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := s.manager(cmd)
			if err != nil {
				return err
			}
			target, version := args[0], ""
			if len(args) == 2 {
				version = args[1]
			}

			if version == "" {
				if !m.Registry().HasTarget(target) {
					return fmt.Errorf("%w: %s", registry.ErrTargetNotFound, target)
				}
				versions := m.Registry().AllVersions(target)
				prompt := fmt.Sprintf("Remove all %d versions of %s (%s)?", len(versions), target, strings.Join(versions, ", "))
				ok, err := s.confirm(cmd, prompt)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing removed")
					return nil
				}
			}

			res, err := m.Remove(target, version)
			if err != nil {
				return err
			}
			for _, v := range res.Removed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s@%s\n", tui.Status("removed"), tui.TargetStyle.Render(target), v)
			}
			if res.NewDefault != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  global default is now %s@%s\n", target, res.NewDefault)
			}
			if res.TargetRemoved {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s has no versions left, shim removed\n", target)
			}
			return nil
		},
	}
}
