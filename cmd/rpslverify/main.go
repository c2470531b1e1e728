// Command rpslverify checks observed BGP routes against RPSL policy
// (spec.md §1). Subcommands follow the teacher's flag.NewFlagSet-per-
// subcommand, switch-dispatched shape (main.go/args.go).
package main

import (
	"log"
	"os"
)

func usage() {
	println("\nUsage of rpslverify:\n")
	println("rpslverify has several subcommands:")
	println("  - ingest:  merge a directory of parsed-RPSL AST JSON files into an IR cache")
	println("  - check:   check a bgpdump TABLE_DUMP2 RIB export against RPSL policy")
	println("  - report:  collate a check run's results into a CSV schema\n")
	println("Type")
	println("  rpslverify [subcommand] -h")
	println("for further information on each subcommand.\n")
}

func main() {
	log.SetFlags(0)
	if len(os.Args) == 1 {
		usage()
		return
	}
	switch command := os.Args[1]; command {
	case "ingest":
		runIngest(os.Args[2:])
	case "check":
		runCheck(os.Args[2:])
	case "report":
		runReport(os.Args[2:])
	case "-h", "--help":
		usage()
	default:
		log.Println("Unknown command:", command)
		log.Println("Type 'rpslverify -h' for help:")
	}
}
