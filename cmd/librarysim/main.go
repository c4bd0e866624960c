// librarysim is a demo CLI that runs the table engine through a
// scripted, randomized workload against a "library" table of books, to
// exercise inserts, queries, updates, deletes and their rollback paths
// end to end.
//
// # Usage
//
//	librarysim run --steps 40 --seed 52
//
// Configuration (optional):
//
//	Create librarysim.yaml for defaults:
//
//	  logLevel: info
//	  simSeed: 52
//	  simRounds: 40
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/acksell/ormtab/config"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

	var err error
	switch cmd {
	case "run":
		err = runSim()
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "-v", "--version":
		fmt.Printf("librarysim version %s\n", version)
		return
	default:
		fmt.Fprintf(os.Stderr, "librarysim: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "librarysim %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func runSim() error {
	cfg := config.Default()
	if path := config.Find("librarysim.yaml"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	steps := flag.Int("steps", cfg.SimRounds, "number of simulated events to run")
	seed := flag.Int64("seed", cfg.SimSeed, "random seed for the simulation")
	flag.Parse()

	logger := log.New(os.Stdout, "librarysim: ", log.LstdFlags)
	sim := NewLibrarySimulation(*seed, logger)
	results, err := sim.Run(*steps)
	if err != nil {
		return err
	}

	fmt.Printf("final row count: %d\n", results.Result.Len())
	fmt.Printf("events run: %d\n", len(results.History))
	return nil
}

func printUsage() {
	fmt.Println(`librarysim - table engine demo

Usage:
  librarysim <command> [flags]

Commands:
  run     Run a scripted random workload against the library table

Examples:
  librarysim run --steps 40 --seed 52

Configuration (optional):
  Create librarysim.yaml for defaults:

    logLevel: info
    simSeed: 52
    simRounds: 40

Run 'librarysim <command> --help' for more information on a command.`)
}
