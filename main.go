package main

import (
	"fmt"
	"os"
	"time"

	"github.com/parzone/parzone/analysis/oracle"
	"github.com/parzone/parzone/analysis/zones"
	"github.com/parzone/parzone/automata"
	"github.com/parzone/parzone/utils"
	"github.com/parzone/parzone/utils/dot"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagVerbose    bool
	flagNoColorize bool
	flagOracle     string
	flagBound      int
	flagOut        string
	flagZ3Timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "parzone",
	Short: "Symbolic reachability for parametric timed automata.",
	Long: `parzone computes the symbolic reachable state space of a Parametric
Timed Automaton over parametric difference-bound matrices.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.Opts().SetVerbose(flagVerbose)
		utils.Opts().SetNoColorize(flagNoColorize)
		if flagVerbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func pickOracle() (zones.Oracle, error) {
	switch flagOracle {
	case "fm":
		return oracle.NewFourier(), nil
	case "z3":
		return oracle.NewSMTLib(flagZ3Timeout)
	}
	return nil, fmt.Errorf("unknown oracle backend %q (want fm or z3)", flagOracle)
}

func explore(path string) (*automata.Graph, error) {
	p, err := automata.ParseFile(path)
	if err != nil {
		return nil, err
	}
	o, err := pickOracle()
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"model":  p.Name,
		"oracle": flagOracle,
	}).Info("starting symbolic exploration")
	return automata.Explore(p, o, flagBound), nil
}

var reachCmd = &cobra.Command{
	Use:   "reach MODEL.yaml",
	Short: "Explore the symbolic state space and print every reachable state.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := explore(args[0])
		if err != nil {
			return err
		}
		for i, s := range g.States {
			fmt.Printf("--- state %d ---\n%s\n", i, s)
		}
		fmt.Println(g.Summary())
		return nil
	},
}

var dotCmd = &cobra.Command{
	Use:   "dot MODEL.yaml",
	Short: "Explore and export the symbolic state graph to Graphviz.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := explore(args[0])
		if err != nil {
			return err
		}
		dg := g.ToDot()
		path, err := dg.WriteDotFile(flagOut)
		if err != nil {
			return err
		}
		fmt.Println("wrote", path)

		raw, err := dg.Render()
		if err != nil {
			return err
		}
		if img, err := dot.DotToImage(flagOut, "svg", raw); err != nil {
			log.WithError(err).Warn("svg rendering failed; dot output kept")
		} else {
			fmt.Println("wrote", img)
		}
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect MODEL.yaml",
	Short: "Parse a model file and echo its structure.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := automata.ParseFile(args[0])
		if err != nil {
			return err
		}
		fmt.Println(p)
		fmt.Println("initial:", p.Initial)
		for _, l := range p.Locations {
			if inv := p.InvariantFor(l); len(inv) > 0 {
				fmt.Printf("invariant %s:", l)
				for _, g := range inv {
					fmt.Printf(" %s", g)
				}
				fmt.Println()
			}
		}
		for _, t := range p.Transitions {
			fmt.Printf("%s", t)
			for _, g := range t.Guards {
				fmt.Printf(" [%s]", g)
			}
			if !t.Resets.IsEmpty() {
				fmt.Printf(" %s", t.Resets)
			}
			fmt.Println()
		}
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoColorize, "no-colorize", false, "disable colorized output")
	rootCmd.PersistentFlags().StringVar(&flagOracle, "oracle", "fm", "oracle backend: fm (exact elimination) or z3 (external solver)")
	rootCmd.PersistentFlags().DurationVar(&flagZ3Timeout, "z3-timeout", time.Second, "per-query timeout for the z3 backend")
	reachCmd.Flags().IntVar(&flagBound, "bound", 1000, "cap on explored symbolic states (0 = unbounded)")
	dotCmd.Flags().IntVar(&flagBound, "bound", 1000, "cap on explored symbolic states (0 = unbounded)")
	dotCmd.Flags().StringVarP(&flagOut, "out", "o", "statespace", "output path prefix")

	rootCmd.AddCommand(reachCmd, dotCmd, inspectCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
