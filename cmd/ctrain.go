package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"github.com/yyctransit/gtfs"
	"github.com/yyctransit/gtfs/config"
	"github.com/yyctransit/gtfs/export"
	"github.com/yyctransit/gtfs/extensions"
	"github.com/yyctransit/gtfs/extensions/calgarytrain"
	"github.com/yyctransit/gtfs/generator"
	"github.com/yyctransit/gtfs/schedule"
	"github.com/yyctransit/gtfs/store"
)

var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "path to a YAML config file",
}

var daysFlag = &cli.IntFlag{
	Name:  "days",
	Usage: "number of days of service to keep, 0 keeps every service",
}

func main() {
	app := &cli.App{
		Name:  "ctrain",
		Usage: "generate the Calgary Transit CTrain schedule from a GTFS static feed",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "generate the schedule and write it as CSV files",
				Flags: []cli.Flag{
					configFlag,
					daysFlag,
					&cli.StringFlag{
						Name:  "out",
						Usage: "directory to write the CSV files to",
					},
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "prefix of the CSV file names",
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "SQLite database to store the generation in",
					},
				},
				ArgsUsage: "[path]",
				Action:    generate,
			},
			{
				Name:  "clean",
				Usage: "print the cleaned version of a stop name, trip headsign or route long name",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "stop",
						Usage: "stop name to clean",
					},
					&cli.StringFlag{
						Name:  "headsign",
						Usage: "trip headsign to clean",
					},
					&cli.StringFlag{
						Name:  "route-long-name",
						Usage: "route long name to clean",
					},
				},
				Action: clean,
			},
			{
				Name:  "inspect",
				Usage: "print the generated routes and trips without writing anything",
				Flags: []cli.Flag{
					configFlag,
					daysFlag,
					&cli.StringFlag{
						Name:  "db",
						Usage: "print a generation stored in this SQLite database instead of generating one",
					},
					&cli.StringFlag{
						Name:  "hash",
						Usage: "with --db, print the generation with this schedule hash instead of the latest one",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "print the stops of each trip",
					},
				},
				ArgsUsage: "[path]",
				Action:    inspect,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, err
	}
	if ctx.Args().Len() > 0 {
		cfg.Input = ctx.Args().First()
	}
	if ctx.IsSet("days") {
		cfg.UsefulDays = ctx.Int("days")
	}
	if ctx.IsSet("out") {
		cfg.OutputDir = ctx.String("out")
	}
	if ctx.IsSet("prefix") {
		cfg.FilePrefix = ctx.String("prefix")
	}
	if ctx.IsSet("db") {
		cfg.DB = ctx.String("db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildSchedule(cfg *config.Config, ext extensions.Extension) (*gtfs.Static, *schedule.Schedule, error) {
	b, err := os.ReadFile(cfg.Input)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file %s: %w", cfg.Input, err)
	}
	static, err := gtfs.ParseStatic(b)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse GTFS static data: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	s, err := generator.Generate(static, ext, generator.Options{
		Now:        time.Now().In(loc),
		UsefulDays: cfg.UsefulDays,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate schedule: %w", err)
	}
	return static, s, nil
}

func generate(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	static, s, err := buildSchedule(cfg, calgarytrain.Extension())
	if err != nil {
		return err
	}
	csvExport, err := export.ExportToCsv(s)
	if err != nil {
		return err
	}
	h := sha256.New()
	s.Hash(h)
	hash := hex.EncodeToString(h.Sum(nil))

	paths, err := csvExport.WriteDir(cfg.OutputDir, cfg.FilePrefix)
	if err != nil {
		return err
	}
	hc := color.New(color.FgCyan)
	for _, path := range paths {
		fmt.Printf("Wrote %s\n", hc.Sprint(path))
	}
	fmt.Printf("%d routes  %d trips  %d stops  %d warnings  hash %s\n",
		len(s.Routes), len(s.Trips), len(s.Stops), len(static.Warnings), hc.Sprint(hash))

	if cfg.DB == "" {
		return nil
	}
	return saveGeneration(ctx.Context, cfg.DB, s, hash)
}

func saveGeneration(ctx context.Context, dbPath string, s *schedule.Schedule, hash string) error {
	db, err := store.Connect(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	gc := color.New(color.FgMagenta)
	latest, err := db.LatestGeneration(ctx)
	switch {
	case err == nil && latest.Hash == hash:
		fmt.Printf("Schedule unchanged since generation %s\n", gc.Sprint(latest.ID))
		return nil
	case err != nil && !errors.Is(err, store.ErrNoGeneration):
		return err
	}
	generation, err := db.SaveGeneration(ctx, s, hash)
	if err != nil {
		return err
	}
	fmt.Printf("Saved generation %s\n", gc.Sprint(generation.ID))
	return nil
}

func clean(ctx *cli.Context) error {
	ext := calgarytrain.Extension()
	var found bool
	for _, c := range []struct {
		flag  string
		clean func(string) string
	}{
		{"stop", ext.CleanStopName},
		{"headsign", ext.CleanTripHeadsign},
		{"route-long-name", ext.CleanRouteLongName},
	} {
		if !ctx.IsSet(c.flag) {
			continue
		}
		found = true
		fmt.Printf("%q -> %s\n", ctx.String(c.flag), color.GreenString("%q", c.clean(ctx.String(c.flag))))
	}
	if !found {
		return fmt.Errorf("one of --stop, --headsign or --route-long-name must be provided")
	}
	return nil
}

func inspect(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if ctx.IsSet("db") {
		s, err := loadGeneration(ctx.Context, cfg.DB, ctx.String("hash"))
		if err != nil {
			return err
		}
		printSchedule(s, ctx.Bool("verbose"))
		fmt.Printf("%d stops, %d service dates\n", len(s.Stops), len(s.ServiceDates))
		return nil
	}
	if ctx.IsSet("hash") {
		return fmt.Errorf("--hash requires --db")
	}
	static, s, err := buildSchedule(cfg, calgarytrain.Extension())
	if err != nil {
		return err
	}
	printSchedule(s, ctx.Bool("verbose"))
	fmt.Printf("%d stops, %d service dates, %d warnings\n", len(s.Stops), len(s.ServiceDates), len(static.Warnings))
	return nil
}

// loadGeneration reads back a stored schedule, the latest one unless a hash is given.
func loadGeneration(ctx context.Context, dbPath string, hash string) (*schedule.Schedule, error) {
	db, err := store.Connect(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	var generation *store.Generation
	if hash != "" {
		generation, err = db.GenerationByHash(ctx, hash)
	} else {
		generation, err = db.LatestGeneration(ctx)
	}
	if err != nil {
		return nil, err
	}
	fmt.Printf("Generation %s  Created %s  Hash %s\n",
		color.MagentaString("%s", generation.ID),
		color.MagentaString("%s", generation.CreatedAt.Format(time.RFC3339)),
		color.MagentaString("%s", generation.Hash))
	return db.LoadSchedule(ctx, generation.ID)
}

func printSchedule(s *schedule.Schedule, verbose bool) {
	fmt.Printf("Agency %s  Color %s  RouteType %s\n",
		color.CyanString("%s", s.Agency.Name), color.CyanString("%s", s.Agency.Color), color.CyanString("%s", s.Agency.RouteType))
	fmt.Printf("%d routes:\n", len(s.Routes))
	for _, route := range s.Routes {
		fmt.Printf("- %s\n", formatRoute(route, s, 2, verbose))
	}
}

func formatRoute(route schedule.Route, s *schedule.Schedule, indent int, printStops bool) string {
	var b strings.Builder
	rc := color.New(color.FgCyan)
	tc := color.New(color.FgMagenta)
	sc := color.New(color.FgGreen)
	newLine := fmt.Sprintf("\n%*s", indent, "")
	fmt.Fprintf(&b,
		"RouteID %s  ShortName %s  LongName %s  Color %s",
		rc.Sprint(route.ID),
		rc.Sprint(route.ShortName),
		rc.Sprint(route.LongName),
		rc.Sprint(route.Color),
	)
	stopIDToName := map[string]string{}
	for _, stop := range s.Stops {
		stopIDToName[stop.ID] = stop.Name
	}
	for _, trip := range s.Trips {
		if trip.RouteID != route.ID {
			continue
		}
		fmt.Fprintf(&b, "%sTripID %s  DirectionID %s  Headsign %s",
			newLine,
			tc.Sprint(trip.ID),
			tc.Sprint(trip.DirectionID),
			tc.Sprint(trip.Headsign),
		)
		if !printStops {
			continue
		}
		for _, tripStop := range s.TripStops {
			if tripStop.TripID != trip.ID {
				continue
			}
			fmt.Fprintf(&b, "%s  %s %s (%s)",
				newLine,
				sc.Sprint(tripStop.Sequence),
				stopIDToName[tripStop.StopID],
				tripStop.StopID,
			)
		}
	}
	return b.String()
}
