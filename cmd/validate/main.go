// Command validate checks a classification rules file before it is deployed
// via RULES_PATH. It parses and compiles the tables, then optionally runs a
// classification dry-run over sample bulletins so rule authors can see how
// their changes classify real text.
//
// Usage:
//
//	go run ./cmd/validate -rules rules.yaml
//	go run ./cmd/validate -rules rules.yaml -samples bulletins.txt
//
// The samples file holds one bulletin per line, optionally prefixed with a
// source label and a tab.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/hurricane-triage/internal/rules"
)

func main() {
	rulesPath := flag.String("rules", "", "path to a rules YAML file")
	samplesPath := flag.String("samples", "", "optional file of sample bulletins, one per line")
	flag.Parse()

	if *rulesPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*rulesPath, *samplesPath); code != 0 {
		os.Exit(code)
	}
}

func run(rulesPath, samplesPath string) int {
	table, err := rules.LoadFile(rulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		return 1
	}

	fmt.Printf("Rules OK: %d action keywords, %d categories, %d high + %d medium urgency patterns, %d action types\n",
		len(table.ActionKeywords), len(table.Categories),
		len(table.UrgencyHigh), len(table.UrgencyMedium), len(table.ActionTypes))
	fmt.Printf("Locations: %d Broward cities, %d Miami-Dade cities\n",
		len(table.BrowardCities), len(table.MiamiDadeCities))

	if samplesPath == "" {
		return 0
	}
	return dryRun(table, samplesPath)
}

func dryRun(table *rules.Table, samplesPath string) int {
	f, err := os.Open(samplesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: open samples: %v\n", err)
		return 1
	}
	defer f.Close()

	fmt.Println()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		source := ""
		text := line
		if label, rest, found := strings.Cut(line, "\t"); found {
			source, text = label, rest
		}

		c := table.Classify(text, source)
		county, city := "-", "-"
		if c.County != nil {
			county = string(*c.County)
		}
		if c.City != nil {
			city = *c.City
		}
		actionType := "-"
		if c.ActionType != nil {
			actionType = *c.ActionType
		}

		preview := text
		if len(preview) > 60 {
			preview = preview[:60] + "..."
		}
		fmt.Printf("[%3d] mode=%-6s category=%-14s urgency=%-6s action=%-28s county=%-10s city=%-16s %s\n",
			lineNum, c.Mode, c.Category, c.Urgency, actionType, county, city, preview)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: read samples: %v\n", err)
		return 1
	}
	return 0
}
