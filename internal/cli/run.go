package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// argsMarker separates xvm's own arguments from the target's.
const argsMarker = "--args"

func newRunCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "run <target> [version] [--args <arg>...]",
		Short: "Run a target with the selected (or given) version",
		Long: "Run target with the version selected in the effective workspace, or with\n" +
			"the given version or prefix. Everything after --args is passed through\n" +
			"untouched. Shims forward to this command.",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
				return cmd.Help()
			}
			inv, err := parseRunArgs(args)
			if err != nil {
				return err
			}
			m, err := s.manager(cmd)
			if err != nil {
				return err
			}
			defer forwardInterrupts()()
			code, err := m.Run(cmd.Context(), inv.target, inv.version, inv.args)
			if err != nil {
				return err
			}
			if code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}
}

type runInvocation struct {
	target  string
	version string
	args    []string
}

var errRunUsage = errors.New("usage: xvm run <target> [version] [--args <arg>...]")

// parseRunArgs splits `<target> [version] [--args ...]`.
func parseRunArgs(args []string) (runInvocation, error) {
	var inv runInvocation
	var positional []string
	for i, arg := range args {
		if arg == argsMarker {
			inv.args = append([]string{}, args[i+1:]...)
			break
		}
		positional = append(positional, arg)
	}
	switch len(positional) {
	case 1:
		inv.target = positional[0]
	case 2:
		inv.target, inv.version = positional[0], positional[1]
	case 0:
		return inv, errRunUsage
	default:
		return inv, fmt.Errorf("%w: unexpected %q (pass target arguments after %s)", errRunUsage, positional[2], argsMarker)
	}
	if inv.target == "" {
		return inv, errRunUsage
	}
	return inv, nil
}
