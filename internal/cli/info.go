package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xvm/internal/launcher"
	"xvm/internal/tui"
)

func newInfoCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "info <target> [version]",
		Short: "Describe how a target would be launched",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := s.manager(cmd)
			if err != nil {
				return err
			}
			requested := ""
			if len(args) == 2 {
				requested = args[1]
			}
			info, err := m.Info(args[0], requested)
			if err != nil {
				return err
			}
			if s.opts.outputJSON {
				return writeJSON(cmd, info)
			}
			writeInfo(cmd, info)
			return nil
		},
	}
}

func writeInfo(cmd *cobra.Command, info launcher.Info) {
	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", tui.HeaderStyle.Render(fmt.Sprintf("%-9s", label)), value)
	}

	field("program", tui.TargetStyle.Render(info.Program))
	field("version", info.Version)
	field("type", string(info.Type))
	field("filename", info.Filename)
	field("alias", info.Alias)
	field("source", info.SourcePath)
	field("target", info.TargetPath)
	if len(info.Envs) > 0 {
		envs := make([]string, len(info.Envs))
		for i, env := range info.Envs {
			envs[i] = env.Key + "=" + env.Value
		}
		field("envs", strings.Join(envs, "\n          "))
	}
	field("path+", strings.Join(info.PathParts, ", "))
	field("lib+", strings.Join(info.LibParts, ", "))
	field("args", strings.Join(info.Args, " "))
	if len(info.Bindings) > 0 {
		binds := make([]string, len(info.Bindings))
		for i, b := range info.Bindings {
			binds[i] = b.Target + "@" + b.Version
		}
		field("bindings", strings.Join(binds, ", "))
	}
}
