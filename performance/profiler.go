package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/yyctransit/gtfs"
	"github.com/yyctransit/gtfs/export"
	"github.com/yyctransit/gtfs/extensions/calgarytrain"
	"github.com/yyctransit/gtfs/generator"
)

var out = flag.String("out", "ctrain_profile.pb.gz", "file path to output the profile to")
var days = flag.Int("days", 30, "number of days of service to keep")

func main() {
	if err := run(); err != nil {
		fmt.Println("failed:", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()
	gtfsFiles := flag.Args()
	var gtfsBytes [][]byte
	for _, gtfsFile := range gtfsFiles {
		b, err := os.ReadFile(gtfsFile)
		if err != nil {
			return err
		}
		gtfsBytes = append(gtfsBytes, b)
	}

	fmt.Println("starting profile")
	var profile bytes.Buffer
	if err := pprof.StartCPUProfile(&profile); err != nil {
		return err
	}
	now := time.Now()
	for i, in := range gtfsBytes {
		fmt.Printf("generating schedule %d/%d\n", i+1, len(gtfsBytes))
		static, err := gtfs.ParseStatic(in)
		if err != nil {
			return err
		}
		s, err := generator.Generate(static, calgarytrain.Extension(), generator.Options{Now: now, UsefulDays: *days})
		if err != nil {
			return err
		}
		if _, err := export.ExportToCsv(s); err != nil {
			return err
		}
	}
	pprof.StopCPUProfile()

	fmt.Println("writing profile to", *out)
	return os.WriteFile(*out, profile.Bytes(), 0644)
}
