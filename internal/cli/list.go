package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"xvm/internal/manager"
	"xvm/internal/tui"
)

func newListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:     "list [target]",
		Aliases: []string{"ls"},
		Short:   "List installed versions",
		Long: "List the versions of target when it names one exactly, otherwise of every\n" +
			"target whose name contains it.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := s.manager(cmd)
			if err != nil {
				return err
			}
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			entries, err := m.List(filter)
			if err != nil {
				return err
			}
			if s.opts.outputJSON {
				return writeJSON(cmd, listJSON(entries))
			}
			writeListTable(cmd, entries)
			return nil
		},
	}
}

type listVersionJSON struct {
	Version  string `json:"version"`
	Path     string `json:"path,omitempty"`
	Alias    string `json:"alias,omitempty"`
	Selected bool   `json:"selected"`
}

type listEntryJSON struct {
	Target   string            `json:"target"`
	Type     string            `json:"type,omitempty"`
	Versions []listVersionJSON `json:"versions"`
}

func listJSON(entries []manager.ListEntry) []listEntryJSON {
	out := make([]listEntryJSON, 0, len(entries))
	for _, e := range entries {
		item := listEntryJSON{Target: e.Target, Type: string(e.Type), Versions: []listVersionJSON{}}
		for _, v := range e.Versions {
			item.Versions = append(item.Versions, listVersionJSON(v))
		}
		out = append(out, item)
	}
	return out
}

func writeListTable(cmd *cobra.Command, entries []manager.ListEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), tui.HintStyle.Render("no targets found"))
		return
	}
	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		header := tui.TargetStyle.Render(e.Target)
		if e.Type != "" {
			header += " " + tui.HintStyle.Render("["+string(e.Type)+"]")
		}
		fmt.Fprintln(cmd.OutOrStdout(), header)

		rows := make([][]string, 0, len(e.Versions))
		for _, v := range e.Versions {
			mark := " "
			if v.Selected {
				mark = "*"
			}
			location := v.Path
			if v.Alias != "" {
				location = v.Alias
			}
			rows = append(rows, []string{mark, v.Version, location})
		}
		writeTable(cmd.OutOrStdout(), []string{"", "VERSION", "PATH/ALIAS"}, rows,
			func(row, col int) lipgloss.Style {
				if rows[row][0] == "*" && col < 2 {
					return tui.StatusStyle("selected")
				}
				return lipgloss.NewStyle()
			})
	}
}
