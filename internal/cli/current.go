package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"xvm/internal/manager"
	"xvm/internal/tui"
)

func newCurrentCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "current [target]",
		Short: "Show the versions selected in the effective workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := s.manager(cmd)
			if err != nil {
				return err
			}
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			view, err := m.Current(filter)
			if err != nil {
				return err
			}
			if s.opts.outputJSON {
				return writeJSON(cmd, currentJSON(view))
			}
			writeCurrentTable(cmd, view)
			return nil
		},
	}
}

type currentEntryJSON struct {
	Target    string `json:"target"`
	Version   string `json:"version"`
	Alias     string `json:"alias,omitempty"`
	Path      string `json:"path,omitempty"`
	Installed bool   `json:"installed"`
}

type currentViewJSON struct {
	Workspace string             `json:"workspace"`
	Total     int                `json:"total"`
	Entries   []currentEntryJSON `json:"entries"`
}

func currentJSON(view manager.CurrentView) currentViewJSON {
	out := currentViewJSON{Workspace: view.Workspace, Total: view.Total, Entries: []currentEntryJSON{}}
	for _, e := range view.Entries {
		out.Entries = append(out.Entries, currentEntryJSON(e))
	}
	return out
}

func writeCurrentTable(cmd *cobra.Command, view manager.CurrentView) {
	fmt.Fprintf(cmd.OutOrStdout(), "workspace: %s\n", tui.TargetStyle.Render(view.Workspace))
	if len(view.Entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), tui.HintStyle.Render("no versions selected"))
		return
	}

	installed := 0
	rows := make([][]string, 0, len(view.Entries))
	for _, e := range view.Entries {
		status := "missing"
		if e.Installed {
			status = "installed"
			installed++
		}
		location := e.Path
		if e.Alias != "" {
			location = e.Alias
		}
		rows = append(rows, []string{e.Target, e.Version, status, location})
	}
	writeTable(cmd.OutOrStdout(), []string{"TARGET", "VERSION", "STATUS", "PATH/ALIAS"}, rows,
		func(row, col int) lipgloss.Style {
			if col == 2 {
				return tui.StatusStyle(rows[row][2])
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(cmd.OutOrStdout(), tui.HintStyle.Render(pluralTargets(installed, view.Total)))
}

func pluralTargets(n, total int) string {
	noun := "targets"
	if total == 1 {
		noun = "target"
	}
	return fmt.Sprintf("%d of %d %s added", n, total, noun)
}
