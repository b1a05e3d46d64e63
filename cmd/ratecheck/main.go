// Command ratecheck validates a rate schedule and prints the totals it
// produces, so a new schedule can be reviewed before it is deployed.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motor-insurance/internal/quote"
	"github.com/ukydev/motor-insurance/internal/rates"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ratecheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("rates", "", "rate schedule YAML file (default: built-in schedule)")
	category := fs.String("category", "", "category code or name for internal rows (default: first category)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := log.New()
	logger.SetOutput(stderr)

	table, err := rates.LoadFile(*path)
	if err != nil {
		logger.WithError(err).Error("Rate schedule rejected")
		return 1
	}

	if err := printGrid(stdout, table, *category); err != nil {
		logger.WithError(err).Error("Failed to price schedule")
		return 1
	}
	return 0
}

// printGrid writes one line per vehicle class with its total for every
// duration, priced under the standard classification.
func printGrid(w io.Writer, table *rates.Table, category string) error {
	standard, err := standardClassification(table)
	if err != nil {
		return err
	}
	if category == "" {
		category = table.Categories()[0].Code
	}
	cat, ok := table.Category(category)
	if !ok {
		return fmt.Errorf("unknown category %q", category)
	}

	fmt.Fprintf(w, "Rate schedule %s (%s), category %s, classification %s\n\n",
		table.Version(), table.Currency(), cat.Name, standard)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{"type", "class"}
	for _, m := range table.Durations() {
		header = append(header, strconv.Itoa(m)+"m")
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, row := range table.InternalRows() {
		cells := []string{"internal", row.Key}
		for _, m := range table.Durations() {
			q, err := quote.Compute(table, quote.Internal{
				VehicleCode:    row.Key,
				Category:       cat.Code,
				Classification: standard,
				Months:         m,
			})
			cells = append(cells, cell(q, err))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	for _, row := range table.BorderRows() {
		cells := []string{"border", row.Key}
		for _, m := range table.Durations() {
			q, err := quote.Compute(table, quote.Border{BorderType: row.Key, Months: m})
			cells = append(cells, cell(q, err))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}

func cell(q quote.Quote, err error) string {
	var qerr *quote.Error
	if errors.As(err, &qerr) {
		return string(qerr.Code)
	}
	if err != nil {
		return "error"
	}
	return string(quote.Amount(q.Total(), q.Scale))
}

func standardClassification(table *rates.Table) (string, error) {
	for _, c := range table.Classifications() {
		if c.Rule == rates.RuleNone {
			return c.Code, nil
		}
	}
	return "", errors.New("schedule has no classification without a discount")
}
