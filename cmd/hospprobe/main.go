package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"hospetl/internal/probe"
	"hospetl/internal/schema"
)

// hospprobe inspects a raw hospital CSV: it reports how the headers map onto
// the dimension contract and can emit a starter pipeline config.
func main() {
	var (
		in       string
		maxBytes int
		delim    string
		emitJSON bool
	)

	flag.StringVar(&in, "in", "data/sample/Hospital_General_Information.csv", "CSV file to inspect")
	flag.IntVar(&maxBytes, "max-bytes", 0, "bytes to sample from the start of the file (0 = default)")
	flag.StringVar(&delim, "delimiter", "", "force a delimiter instead of detecting one")
	flag.BoolVar(&emitJSON, "json", false, "emit a starter pipeline config as JSON instead of the report")

	flag.Parse()

	opt := probe.Options{Path: in, MaxBytes: maxBytes}
	if delim != "" {
		opt.Delimiter = []rune(delim)[0]
	}

	contract := schema.HospitalContract()
	rep, err := probe.Probe(opt, contract)
	if err != nil {
		fmt.Fprintf(os.Stderr, "probe: %v\n", err)
		os.Exit(1)
	}

	if emitJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(probe.StarterPipeline(rep)); err != nil {
			fmt.Fprintf(os.Stderr, "probe: encode config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	probe.WriteReport(os.Stdout, rep, contract)
	if len(rep.MissingRequired(contract)) > 0 {
		os.Exit(1)
	}
}
