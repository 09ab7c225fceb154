package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/frap/internal/demo"
)

// AppInfo describes one demo application.
type AppInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Drivers     []string `json:"drivers"`
	Initial     string   `json:"initial"`
}

// NewAppsCommand creates the apps command.
func NewAppsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "apps",
		Short:         "List the demo applications",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listApps(rootOpts, cmd)
		},
	}
}

func listApps(opts *RootOptions, cmd *cobra.Command) error {
	catalog := demo.Catalog(demo.DefaultEnv())
	infos := make([]AppInfo, len(catalog))
	for i, app := range catalog {
		drivers := app.Drivers
		if drivers == nil {
			drivers = []string{}
		}
		infos[i] = AppInfo{
			Name:        app.Name,
			Description: app.Description,
			Drivers:     drivers,
			Initial:     app.Initial.String(),
		}
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.JSON() {
		return out.Success(infos)
	}

	for _, info := range infos {
		drivers := "-"
		if len(info.Drivers) > 0 {
			drivers = strings.Join(info.Drivers, ",")
		}
		fmt.Fprintf(out.Writer, "%-10s drivers=%-10s initial=%s\n", info.Name, drivers, info.Initial)
		fmt.Fprintf(out.Writer, "           %s\n", info.Description)
	}
	return nil
}
