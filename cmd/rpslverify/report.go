package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/rpslverify/rpslverify/internal/compliance"
	"github.com/rpslverify/rpslverify/internal/report"
)

func handleArgsReport(args []string) (reportsFile, schema, outFile string) {
	if len(args) == 0 {
		println("Missing arguments")
		os.Exit(1)
	}
	cmd := flag.NewFlagSet(args[0], flag.ExitOnError)
	cmd.StringVar(&reportsFile, "reports", "", "route reports produced by 'check' (JSON)")
	cmd.StringVar(&schema, "schema", "pair", "output schema: pair, as, or quality")
	cmd.StringVar(&outFile, "out", "", "path to write the CSV")
	cmd.Parse(args[1:])
	return
}

// runReport collates a check run's route reports into one of the three
// CSV schemas spec.md §6 defines.
func runReport(args []string) {
	reportsFile, schema, outFile := handleArgsReport(args)
	if reportsFile == "" || outFile == "" {
		log.Fatal("report: -reports and -out are required")
	}

	f, err := os.Open(reportsFile)
	if err != nil {
		log.Fatal("report: ", err)
	}
	var routes []compliance.RouteReport
	err = json.NewDecoder(f).Decode(&routes)
	f.Close()
	if err != nil {
		log.Fatal("report: invalid reports file: ", err)
	}

	out, err := os.Create(outFile)
	if err != nil {
		log.Fatal("report: ", err)
	}
	defer out.Close()

	switch schema {
	case "pair":
		err = report.WritePairCSV(out, report.PairRows(routes))
	case "as":
		err = report.WriteASCSV(out, report.ASRows(routes))
	case "quality":
		err = report.WriteQualityCSV(out, report.QualityRows(routes))
	default:
		log.Fatal("report: unknown schema: ", schema)
	}
	if err != nil {
		log.Fatal("report: ", err)
	}

	log.Printf("report: wrote %s schema for %d routes to %s", schema, len(routes), outFile)
}
