// Command pt manages paper trading portfolios.
package main

import (
	"context"
	"flag"
	"os"
	"path"
	"strings"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/etnz/papertrade/cmd"
)

func main() {
	name := path.Base(os.Args[0])
	// Answers shell completion requests (COMP_LINE is set), and returns otherwise.
	completion(name).Complete(name)

	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// completion describes the subcommands and their flags for shell completion.
func completion(name string) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: map[string]complete.Predictor{"raw": predict.Nothing},
	}
	for _, c := range cmd.Commands {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		sub := &complete.Command{Flags: make(map[string]complete.Predictor)}
		fs.VisitAll(func(f *flag.Flag) {
			sub.Flags[f.Name] = predictor(f)
		})
		if c.Name() == "import" {
			sub.Args = predict.Files("*.jsonl")
		}
		root.Sub[c.Name()] = sub
	}
	return root
}

func predictor(f *flag.Flag) complete.Predictor {
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	switch {
	case f.Name == "prices" || f.Name == "previous":
		return predict.Files("*.json")
	case f.Name == "o":
		return predict.Files("*")
	case f.Name == "f":
		return predict.Set{"jsonl", "md", "html"}
	case strings.HasPrefix(f.Usage, "Currency"):
		return predict.Set{"USD", "EUR", "GBP", "JPY", "CHF"}
	default:
		return predict.Something
	}
}
