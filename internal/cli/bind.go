package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"xvm/internal/manager"
	"xvm/internal/tui"
)

func newBindCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "bind <target@version> <dep@version>...",
		Short: "Make a version select its dependencies when used",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := manager.ParsePair(args[0])
			if err != nil {
				return err
			}
			m, err := s.manager(cmd)
			if err != nil {
				return err
			}
			for _, spec := range args[1:] {
				dep, err := manager.ParsePair(spec)
				if err != nil {
					return err
				}
				if err := m.Bind(owner, dep); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", tui.Status("added"), owner, dep)
			}
			return nil
		},
	}
}

func newUnbindCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "unbind <target@version> <dep>...",
		Short: "Remove dependency bindings from a version",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := manager.ParsePair(args[0])
			if err != nil {
				return err
			}
			m, err := s.manager(cmd)
			if err != nil {
				return err
			}
			for _, dep := range args[1:] {
				if err := m.Unbind(owner, dep); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", tui.Status("removed"), owner, dep)
			}
			return nil
		},
	}
}
