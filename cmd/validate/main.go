// Command validate checks the flat-file cache without rendering: every series
// file is present and parseable, the two variables align row by row, the
// country index partitions the merged table and every precipitation polygon
// is well formed.
//
// Usage:
//
//	go run ./cmd/validate -dir data/cache -countries USA,MEX,CAN,BLZ -resolution year
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/climate-figures/internal/adapter/worldbank"
	"github.com/couchcryptid/climate-figures/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "", "flat-file cache directory")
	countries := flag.String("countries", "USA,MEX,CAN,BLZ", "comma-separated ISO 3166-1 alpha-3 codes")
	resolution := flag.String("resolution", string(domain.Yearly), "time resolution: year or decade")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}
	res, err := domain.ParseResolution(*resolution)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(*dir, parseCodes(*countries), res))
}

func parseCodes(s string) []domain.CountryCode {
	var out []domain.CountryCode
	for _, part := range strings.Split(s, ",") {
		if c := strings.ToUpper(strings.TrimSpace(part)); c != "" {
			out = append(out, domain.CountryCode(c))
		}
	}
	return out
}

func run(dir string, codes []domain.CountryCode, res domain.Resolution) int {
	fmt.Println("=== Climate Cache Integrity Validation ===")
	fmt.Println()

	precip, temp, files := validateFiles(dir, codes, res)
	frame, alignment := validateAlignment(precip, temp)
	phases := []*phase{files, alignment}
	if alignment.passed() {
		phases = append(phases, validateIndex(frame, codes), validatePolygons(frame, codes))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d precipitation, %d temperature, %d merged\n", len(precip), len(temp), len(frame))

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
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Files ──

func validateFiles(dir string, codes []domain.CountryCode, res domain.Resolution) (precip, temp domain.Table, p *phase) {
	p = &phase{name: "Phase 1: Series Files (CSV)"}
	for _, variable := range []domain.Variable{domain.Precipitation, domain.Temperature} {
		for _, code := range codes {
			path := worldbank.CachePath(dir, variable, res, code)
			records, err := readFile(path)
			if err != nil {
				p.errorf("%s: %v", path, err)
				continue
			}
			if len(records) == 0 {
				p.errorf("%s: no data rows", path)
			}
			for i, r := range records {
				if r.Country != code {
					p.errorf("%s line %d: country %s", path, i+2, r.Country)
				}
				if i > 0 && r.Year <= records[i-1].Year {
					p.errorf("%s line %d: year %d not after %d", path, i+2, r.Year, records[i-1].Year)
				}
			}
			if variable == domain.Precipitation {
				precip = append(precip, records...)
			} else {
				temp = append(temp, records...)
			}
		}
	}
	return precip, temp, p
}

func readFile(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return worldbank.ReadSeries(f)
}

// ── Phase 2: Alignment ──

func validateAlignment(precip, temp domain.Table) (domain.Frame, *phase) {
	p := &phase{name: "Phase 2: Alignment (pr vs tas)"}
	frame, err := domain.Merge(precip, temp)
	if err != nil {
		p.errorf("%v", err)
	}
	return frame, p
}

// ── Phase 3: Index ──

func validateIndex(frame domain.Frame, codes []domain.CountryCode) *phase {
	p := &phase{name: "Phase 3: Country Index (partition)"}
	idx, err := domain.BuildIndex(frame, codes)
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	seen := make([]int, len(frame))
	for _, code := range idx.Codes() {
		rows := idx.Rows(code)
		if len(rows) == 0 {
			p.errorf("%s: no rows", code)
		}
		for _, r := range rows {
			seen[r]++
		}
	}
	for i, n := range seen {
		if n != 1 {
			p.errorf("row %d (%d, %s) indexed %d times", i, frame[i].Year, frame[i].Country, n)
		}
	}
	return p
}

// ── Phase 4: Polygons ──

func validatePolygons(frame domain.Frame, codes []domain.CountryCode) *phase {
	p := &phase{name: "Phase 4: Precipitation Polygons"}
	idx, err := domain.BuildIndex(frame, codes)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	means := domain.MeanPrecipitation(frame, idx)
	ranked := domain.RankByMeanPrecip(frame, idx)
	for i := 1; i < len(ranked); i++ {
		if means[ranked[i]] > means[ranked[i-1]] {
			p.errorf("ranking: %s (%.2f) after %s (%.2f)", ranked[i], means[ranked[i]], ranked[i-1], means[ranked[i-1]])
		}
	}
	for _, code := range ranked {
		sub := idx.Subset(frame, code)
		shape := domain.NewPolygonShape(sub)
		if shape.Len() != 2*len(sub) {
			p.errorf("%s: polygon has %d vertices for %d rows", code, shape.Len(), len(sub))
		}
		if err := shape.Validate(); err != nil {
			p.errorf("%s: %v", code, err)
		}
		if peak, ok := domain.PeakTemperature(sub); ok {
			fmt.Printf("  %-4s mean_pr=%.2f peak_tas=%.2f (%d)\n", code, means[code], peak.Temperature, peak.Year)
		}
	}
	return p
}
