package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/rpslverify/rpslverify/internal/asrel"
	"github.com/rpslverify/rpslverify/internal/bgpline"
	"github.com/rpslverify/rpslverify/internal/compliance"
	"github.com/rpslverify/rpslverify/internal/ir"
	"github.com/rpslverify/rpslverify/internal/query"
	"github.com/rpslverify/rpslverify/internal/relationship"
	"github.com/rpslverify/rpslverify/internal/verbosity"
)

func handleArgsCheck(args []string) (irFile, ribFile, outFile, asRelFile string, stopAtFirst bool) {
	if len(args) == 0 {
		println("Missing arguments")
		os.Exit(1)
	}
	cmd := flag.NewFlagSet(args[0], flag.ExitOnError)
	cmd.StringVar(&irFile, "ir", "", "path to a merged IR cache produced by 'ingest'")
	cmd.StringVar(&ribFile, "rib", "", "bgpdump TABLE_DUMP2 RIB export to check")
	cmd.StringVar(&outFile, "out", "", "path to write the route reports (JSON)")
	cmd.StringVar(&asRelFile, "asrel", "", "CAIDA AS-relationship file, enables the §4.8 heuristics")
	cmd.BoolVar(&stopAtFirst, "stop-at-first", false, "stop each route's hop walk at its first non-Ok hop")
	cmd.Parse(args[1:])
	return
}

// runCheck loads a cached IR, builds a query index over it, and checks
// every (prefix, AS-path) observed in a bgpdump RIB export against the
// policy recorded for each hop (spec.md §4.7).
func runCheck(args []string) {
	irFile, ribFile, outFile, asRelFile, stopAtFirst := handleArgsCheck(args)
	if irFile == "" || ribFile == "" || outFile == "" {
		log.Fatal("check: -ir, -rib and -out are required")
	}

	f, err := os.Open(irFile)
	if err != nil {
		log.Fatal("check: ", err)
	}
	var data ir.IR
	err = json.NewDecoder(f).Decode(&data)
	f.Close()
	if err != nil {
		log.Fatal("check: invalid IR cache: ", err)
	}

	idx := query.New(&data)
	v := verbosity.MinimumAll()
	v.StopAtFirst = stopAtFirst
	opts := compliance.Options{Verbosity: v}

	if asRelFile != "" {
		neighbors, err := asrel.LoadFile(asRelFile)
		if err != nil {
			log.Fatal("check: ", err)
		}
		opts.Relationships = relationship.New(neighbors)
	}

	var reports []compliance.RouteReport
	err = bgpline.ParseFile(ribFile, func(route bgpline.Route) {
		reports = append(reports, compliance.Compare(idx, route.Prefix, route.AsPath, opts))
	})
	if err != nil {
		log.Fatal("check: ", err)
	}

	out, err := os.Create(outFile)
	if err != nil {
		log.Fatal("check: ", err)
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		log.Fatal("check: ", err)
	}

	log.Printf("check: checked %d routes, wrote reports to %s", len(reports), outFile)
}
