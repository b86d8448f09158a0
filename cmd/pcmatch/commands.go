package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/guarzo/pcmatch/internal/app"
	"github.com/guarzo/pcmatch/internal/config"
	"github.com/guarzo/pcmatch/internal/model"
	"github.com/guarzo/pcmatch/internal/prices"
	"github.com/guarzo/pcmatch/internal/report"
	"github.com/guarzo/pcmatch/internal/sets"
)

// Commands is the list of all subcommands.
var Commands = []subcommands.Command{
	&searchCmd{},
	&namesCmd{},
	&cacheCmd{},
	&addSetCmd{},
}

func loadApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

func printJSON(v interface{}) subcommands.ExitStatus {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printCSV(results []prices.CardResult) subcommands.ExitStatus {
	if err := report.WriteResults(os.Stdout, results); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- searchCmd ---

type searchCmd struct {
	query   model.CardQuery
	json    bool
	csv     bool
	convert bool
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "ranks PriceCharting products against a card description" }
func (*searchCmd) Usage() string {
	return `search -name <card> [-set <set>] [-year <year>] [-company <PSA|BGS|CGC>] [-grade <grade>]

Builds a catalog query from the card description and lists the candidates that
clear the confidence floor, best match first.
`
}
func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.query.Name, "name", "", "card name")
	f.StringVar(&c.query.Set, "set", "", "set name")
	f.IntVar(&c.query.Year, "year", 0, "release year")
	f.StringVar(&c.query.GradingCompany, "company", "", "grading company")
	f.StringVar(&c.query.Grade, "grade", "", "grade")
	f.BoolVar(&c.json, "json", false, "print JSON")
	f.BoolVar(&c.csv, "csv", false, "print CSV")
	f.BoolVar(&c.convert, "convert", false, "print the best match as card form data")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.query.Name == "" {
		fmt.Fprintln(os.Stderr, "Error: -name is required.")
		return subcommands.ExitUsageError
	}

	a, err := loadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	ranked, err := a.Service.SearchCardPrice(ctx, c.query)
	if prices.IsNoMatch(err) {
		fmt.Fprintf(os.Stderr, "No PriceCharting product matched %q.\n", c.query.Name)
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	results := make([]prices.CardResult, 0, len(ranked))
	for _, sc := range ranked {
		results = append(results, a.Service.AnnotateScored(sc))
	}

	if c.convert {
		card := a.Service.ConvertToCardData(results[0], c.query)
		if c.json {
			return printJSON(card)
		}
		fmt.Printf("%s | %s | %d | %s\n", card.Name, card.SetLabel, card.Year, formatDecimal(card.CurrentValue))
		fmt.Println(card.PriceChartingURL)
		return subcommands.ExitSuccess
	}
	if c.json {
		return printJSON(results)
	}
	if c.csv {
		return printCSV(results)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tID\tPRODUCT\tSET\tPRICE")
	for _, r := range results {
		fmt.Fprintf(w, "%.1f\t%s\t%s\t%s\t%s\n", r.MatchScore, r.ID, r.ProductName, r.MatchedSetLabel, formatPrice(r.BestPrice))
	}
	w.Flush()
	return subcommands.ExitSuccess
}

// --- namesCmd ---

type namesCmd struct {
	name  string
	limit int
	json  bool
	csv   bool
}

func (*namesCmd) Name() string     { return "names" }
func (*namesCmd) Synopsis() string { return "searches PriceCharting by card name only" }
func (*namesCmd) Usage() string {
	return `names -name <card> [-limit <n>]

Tries several query strategies for the name and lists the distinct products found.
`
}
func (c *namesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "card name")
	f.IntVar(&c.limit, "limit", prices.DefaultNameLimit, "maximum number of results")
	f.BoolVar(&c.json, "json", false, "print JSON")
	f.BoolVar(&c.csv, "csv", false, "print CSV")
}

func (c *namesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -name is required.")
		return subcommands.ExitUsageError
	}

	a, err := loadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	results, err := a.Service.SearchCardsByName(ctx, c.name, c.limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.json {
		return printJSON(results)
	}
	if c.csv {
		return printCSV(results)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCARD\tSET\tNUMBER\tCONDITION\tPRICE")
	for _, r := range results {
		d := r.Details
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, d.CardName, d.Set, d.CardNumber, d.Condition, formatPrice(r.BestPrice))
	}
	w.Flush()
	return subcommands.ExitSuccess
}

// --- cacheCmd ---

type cacheCmd struct {
	clear bool
}

func (*cacheCmd) Name() string     { return "cache" }
func (*cacheCmd) Synopsis() string { return "shows or clears the response cache" }
func (*cacheCmd) Usage() string {
	return `cache [-clear]

Prints cache statistics, or removes every cached response with -clear.
`
}
func (c *cacheCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.clear, "clear", false, "remove every cached response")
}

func (c *cacheCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.clear {
		if err := a.Service.ClearCache(); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing cache: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println("Cache cleared")
		return subcommands.ExitSuccess
	}
	return printJSON(a.Service.CacheStats())
}

// --- addSetCmd ---

type addSetCmd struct {
	year  int
	value string
	label string
}

func (*addSetCmd) Name() string     { return "add-set" }
func (*addSetCmd) Synopsis() string { return "adds a custom set to the set catalog" }
func (*addSetCmd) Usage() string {
	return `add-set -year <year> -value <value> [-label <label>]

Appends a set to the given year unless one with the same value exists.
`
}
func (c *addSetCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "release year")
	f.StringVar(&c.value, "value", "", "set value stored on cards")
	f.StringVar(&c.label, "label", "", "display label (defaults to the value)")
}

func (c *addSetCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.year == 0 || c.value == "" {
		fmt.Fprintln(os.Stderr, "Error: -year and -value are required.")
		return subcommands.ExitUsageError
	}

	a, err := loadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	added, err := a.Sets.AddCustomSet(c.year, sets.Option{Value: c.value, Label: c.label})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if !added {
		fmt.Printf("%d already has a set named %q\n", c.year, c.value)
		return subcommands.ExitSuccess
	}
	fmt.Printf("Added %q to %d\n", c.value, c.year)
	return subcommands.ExitSuccess
}
