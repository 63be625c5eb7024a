package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scriptdeck/scriptdeck/internal/config"
	"github.com/scriptdeck/scriptdeck/internal/log"
	"github.com/scriptdeck/scriptdeck/internal/ports"
)

func newPortsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ports",
		Short: "Inspect and free well-known development ports",
	}
	cmd.AddCommand(newPortsListCmd(opts))
	cmd.AddCommand(newPortsKillCmd(opts))
	return cmd
}

func newPortsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List processes listening on the watched ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			insp := newInspector(cfg)
			listeners, err := insp.ListListeners(cmd.Context(), cfg.AllPorts())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PORT\tPID\tPROCESS")
			for _, l := range listeners {
				fmt.Fprintf(w, "%d\t%d\t%s\n", l.Port, l.PID, l.ProcessName)
			}
			return w.Flush()
		},
	}
}

func newPortsKillCmd(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "kill [port]",
		Short: "Signal processes listening on a port (or all watched ports)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			insp := newInspector(cfg)
			logger := log.New(opts.verbose)

			if all {
				if len(args) != 0 {
					return fmt.Errorf("--all takes no port argument")
				}
				watched := cfg.AllPorts()
				total := ports.KillMany(cmd.Context(), insp, watched, logger)
				fmt.Fprintf(cmd.OutOrStdout(), "Requested cleanup on %d port(s); signalled %d process(es)\n", len(watched), total)
				return nil
			}

			port := cfg.DefaultPort
			if len(args) == 1 {
				port, err = strconv.Atoi(args[0])
				if err != nil || port <= 0 || port > 65535 {
					return fmt.Errorf("invalid port %q", args[0])
				}
			}
			attempted, err := insp.KillPort(cmd.Context(), port)
			if err != nil {
				return err
			}
			if attempted > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Killed %d process(es) on port %d\n", attempted, port)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "No process found on port %d\n", port)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Kill listeners on every watched port")

	return cmd
}
