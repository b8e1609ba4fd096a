package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"xvm/internal/binding"
	"xvm/internal/launcher"
	"xvm/internal/manager"
	"xvm/internal/registry"
	"xvm/internal/tui"
)

type addOptions struct {
	path     string
	alias    string
	icon     string
	kind     string
	filename string
	envs     []string
	envFiles []string
	binds    []string
}

func newAddCmd(s *session) *cobra.Command {
	opts := &addOptions{}
	cmd := &cobra.Command{
		Use:   "add <target> <version>",
		Short: "Record an installed version of a target",
		Long: "Record where a version of a target lives. The first version added\n" +
			"for a target becomes the global default and gets a shim.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(args[0], args[1])
			if err != nil {
				return err
			}
			m, err := s.manager(cmd)
			if err != nil {
				return err
			}
			res, err := m.Add(req)
			if err != nil {
				return err
			}

			status := "added"
			if res.Replaced {
				status = "updated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s@%s\n", tui.Status(status), tui.TargetStyle.Render(req.Target), req.Version)
			if res.NewDefault {
				fmt.Fprintln(cmd.OutOrStdout(), "  set as global default")
			}
			if res.Installed {
				what := "shim"
				if m.Registry().Type(req.Target) == registry.TypeLib {
					what = "library link"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  created %s for %s\n", what, req.Target)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.path, "path", "", "Install directory (relative paths are under the subos dir)")
	cmd.Flags().StringVar(&opts.alias, "alias", "", "Command line to run instead of an executable, e.g. \"python -m pip\"")
	cmd.Flags().StringVar(&opts.icon, "icon", "", "Icon shown next to the target")
	cmd.Flags().StringVar(&opts.kind, "type", "", "Target type: direct or lib")
	cmd.Flags().StringVar(&opts.filename, "filename", "", "Executable or library file name when it differs from the target")
	cmd.Flags().StringArrayVar(&opts.envs, "env", nil, "Environment entry KEY=VALUE (repeatable)")
	cmd.Flags().StringArrayVar(&opts.envFiles, "env-file", nil, "Read environment entries from a dotenv file (repeatable)")
	cmd.Flags().StringArrayVar(&opts.binds, "bind", nil, "Dependency binding name@version (repeatable)")
	return cmd
}

func (o *addOptions) request(target, version string) (manager.AddRequest, error) {
	req := manager.AddRequest{
		Target:   target,
		Version:  version,
		Path:     o.path,
		Alias:    o.alias,
		Icon:     o.icon,
		Type:     registry.TargetType(strings.ToLower(o.kind)),
		Filename: o.filename,
	}

	envs, err := o.environment()
	if err != nil {
		return req, err
	}
	req.Envs = envs

	for _, spec := range o.binds {
		pair, err := manager.ParsePair(spec)
		if err != nil {
			return req, err
		}
		req.Bindings = append(req.Bindings, pair)
	}
	return req, nil
}

// environment collects --env-file entries (keys sorted per file) then --env
// entries, in flag order.
func (o *addOptions) environment() ([]launcher.Env, error) {
	var envs []launcher.Env
	for _, file := range o.envFiles {
		values, err := godotenv.Read(file)
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", file, err)
		}
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			envs = append(envs, launcher.Env{Key: key, Value: values[key]})
		}
	}
	for _, entry := range o.envs {
		key, value, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --env %q, expected KEY=VALUE", entry)
		}
		envs = append(envs, launcher.Env{Key: key, Value: value})
	}
	return envs, nil
}

// bindingPairs formats pairs for output.
func bindingPairs(pairs []binding.Pair) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}
