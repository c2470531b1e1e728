package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpslverify/rpslverify/internal/ast"
	"github.com/rpslverify/rpslverify/internal/ir"
)

// handleArgsIngest mirrors the teacher's handle_args_* shape
// (args.go): a flag.NewFlagSet scoped to this subcommand's own args.
func handleArgsIngest(args []string) (astDir, outFile string) {
	if len(args) == 0 {
		println("Missing arguments")
		os.Exit(1)
	}
	cmd := flag.NewFlagSet(args[0], flag.ExitOnError)
	cmd.StringVar(&astDir, "ast-dir", "", "directory of parsed-RPSL AST JSON files (one per source file)")
	cmd.StringVar(&outFile, "out", "", "path to write the merged IR cache (JSON)")
	cmd.Parse(args[1:])
	return
}

// runIngest reads every *.json AST file under -ast-dir (each the output
// of an external RPSL parser, spec.md §6), normalizes each into an IR
// via ir.Build, merges them (spec.md §5), and writes the merged IR as
// JSON for package query to load in the check subcommand.
func runIngest(args []string) {
	astDir, outFile := handleArgsIngest(args)
	if astDir == "" || outFile == "" {
		log.Fatal("ingest: -ast-dir and -out are required")
	}

	entries, err := os.ReadDir(astDir)
	if err != nil {
		log.Fatal("ingest: ", err)
	}

	var parts []*ir.IR
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(astDir, e.Name())
		f, err := os.Open(path)
		if err != nil {
			log.Println("ingest: skipping", path, ":", err)
			continue
		}
		var a ast.Ast
		err = json.NewDecoder(f).Decode(&a)
		f.Close()
		if err != nil {
			log.Println("ingest: skipping", path, ": invalid AST JSON:", err)
			continue
		}
		parts = append(parts, ir.Build(a.ToRawAst()))
	}

	merged := ir.Merge(parts...)

	out, err := os.Create(outFile)
	if err != nil {
		log.Fatal("ingest: ", err)
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(merged); err != nil {
		log.Fatal("ingest: ", err)
	}

	log.Printf("ingest: wrote %d aut-nums, %d as-sets, %d route-sets to %s",
		len(merged.AutNums), len(merged.AsSets), len(merged.RouteSets), outFile)
}
