// Command hsmdemo drives a small serial-driver state machine and renders its
// state tree. It exists to show the engine's wiring end to end: lazy registry
// build, machine construction, event posting, completion callbacks and
// visualization.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tinyhsm/tinyhsm"
	"github.com/tinyhsm/tinyhsm/callback"
	"github.com/tinyhsm/tinyhsm/viz"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hsmdemo:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "hsmdemo",
		Short: "Serial-driver demo for the tinyhsm engine",
	}
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "log state entries, exits and transitions")
	cmd.AddCommand(runCmd(&debug), dotCmd(), treeCmd())
	return cmd
}

func runCmd(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Drive the driver through a scripted transfer sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if *debug {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			d, err := NewDriver(log)
			if err != nil {
				return err
			}
			m := d.Machine()
			defer m.Stop()

			d.onTxDone = callback.Func(func(n int) {
				fmt.Printf("tx complete, %d bytes\n", n)
			})
			d.onRxDone = callback.Func(func(data []byte) {
				fmt.Printf("rx complete: %q\n", data)
			})

			step := func(post func()) {
				post()
				fmt.Printf("leaf: %s\n", m.Registry().Name(m.Current()))
			}
			step(func() { m.Post(tinyhsm.Event{ID: evOpen}) })
			step(func() { d.Write([]byte("hello")) })
			step(func() { m.Post(tinyhsm.Event{ID: evTxDone}) })
			step(func() { m.Post(tinyhsm.Event{ID: evRxByte, Payload: byte('o')}) })
			step(func() { m.Post(tinyhsm.Event{ID: evRxByte, Payload: byte('k')}) })
			step(func() { m.Post(tinyhsm.Event{ID: evRxIdle}) })
			step(func() { m.Post(tinyhsm.Event{ID: evClose}) })
			return nil
		},
	}
}

func dotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dot",
		Short: "Print the state tree as Graphviz DOT",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := driverRegistry.Get()
			if err != nil {
				return err
			}
			fmt.Print(viz.DOT(reg, nil))
			return nil
		},
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	nodeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the state tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := driverRegistry.Get()
			if err != nil {
				return err
			}
			fmt.Println(titleStyle.Render("serial driver states"))
			for _, line := range strings.Split(strings.TrimRight(viz.Tree(reg), "\n"), "\n") {
				fmt.Println(nodeStyle.Render(line))
			}
			return nil
		},
	}
}
