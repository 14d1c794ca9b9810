// Command checkmap inspects a distributor report file offline: it parses
// the file, proposes a canonical field mapping from the known header
// aliases, and validates the proposal the same way the service does at
// confirmation time. Useful for vetting a new distributor's export format
// before wiring it into anything.
//
// Usage:
//
//	go run ./cmd/checkmap -file statements/march_2024.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/royaltylab/royalty-report-service/internal/domain"
	"github.com/royaltylab/royalty-report-service/internal/ingest"
	"github.com/royaltylab/royalty-report-service/internal/schema"
)

// phase tracks pass/fail for one check phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	file := flag.String("file", "", "path to a distributor report (.csv or .xlsx)")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*file); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	fmt.Println("=== Report Mapping Check ===")
	fmt.Println()

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open report: %v\n", err)
		return 1
	}
	defer f.Close()

	table, err := ingest.Read(path, f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse report: %v\n", err)
		return 1
	}

	fmt.Printf("File:    %s\n", path)
	fmt.Printf("Columns: %d\n", len(table.Columns))
	fmt.Printf("Rows:    %d\n", len(table.Rows))
	fmt.Println()

	proposed := schema.AutoMap(table.Columns)
	violations := schema.Validate(proposed)

	printMapping(proposed)

	phases := []*phase{
		checkCoverage(proposed),
		checkValidity(violations),
		checkValues(table, proposed),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-36s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nMapping is confirmable as proposed.")
		return 0
	}
	fmt.Println("\nMapping needs manual assignment before confirmation.")
	return 1
}

func printMapping(m domain.Mapping) {
	fmt.Println("Proposed mapping:")
	for _, f := range domain.Fields() {
		col, ok := m[f]
		if !ok {
			fmt.Printf("  %-16s <no match>\n", f)
			continue
		}
		fmt.Printf("  %-16s %q\n", f, col)
	}
}

// checkCoverage reports every canonical field the alias tables could not
// match, with a hint of the spellings that would have matched.
func checkCoverage(m domain.Mapping) *phase {
	p := &phase{name: "Phase 1: Alias Coverage"}
	for _, f := range domain.Fields() {
		if _, ok := m[f]; ok {
			continue
		}
		hints := schema.Aliases(f)
		if len(hints) > 4 {
			hints = hints[:4]
		}
		p.errorf("%s: no column matched (known spellings include %s)", f, strings.Join(hints, ", "))
	}
	return p
}

// checkValidity runs the same totality and injectivity validation the
// service applies at confirmation time.
func checkValidity(v schema.Violations) *phase {
	p := &phase{name: "Phase 2: Mapping Validation"}
	for _, f := range v.Missing {
		p.errorf("missing assignment for %s", f)
	}
	for _, d := range v.Duplicates {
		names := make([]string, len(d.Fields))
		for i, f := range d.Fields {
			names[i] = string(f)
		}
		p.errorf("column %q assigned to %s", d.Column, strings.Join(names, " and "))
	}
	return p
}

// checkValues projects the table with the proposed mapping and flags data
// quality problems the dashboard would silently coerce: non-numeric
// quantity or revenue cells, and identifier columns with no usable codes.
func checkValues(table *ingest.Table, m domain.Mapping) *phase {
	p := &phase{name: "Phase 3: Value Sanity"}
	if !schema.Validate(m).Confirmed() {
		p.errorf("skipped: mapping incomplete")
		return p
	}

	records := domain.Project(table.Rows, m)

	var zeroQty, zeroRev, blankISRC, blankUPC int
	for _, r := range records {
		if r.Quantity == 0 {
			zeroQty++
		}
		if r.Revenue == 0 {
			zeroRev++
		}
		if strings.TrimSpace(r.ISRC) == "" {
			blankISRC++
		}
		if strings.TrimSpace(r.UPC) == "" {
			blankUPC++
		}
	}

	n := len(records)
	if zeroQty == n {
		p.errorf("quantity column %q coerces to zero on every row", m[domain.FieldQuantity])
	}
	if zeroRev == n {
		p.errorf("revenue column %q coerces to zero on every row", m[domain.FieldRevenue])
	}

	fmt.Printf("\nValue profile over %d records:\n", n)
	fmt.Printf("  zero quantity: %d\n", zeroQty)
	fmt.Printf("  zero revenue:  %d\n", zeroRev)
	fmt.Printf("  blank ISRC:    %d\n", blankISRC)
	fmt.Printf("  blank UPC:     %d\n", blankUPC)

	return p
}
