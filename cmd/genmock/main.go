// Command genmock writes synthetic series into the flat-file cache so the
// figures command can run offline. Each country gets a yearly baseline with
// a linear warming trend and seeded noise. Decadal files average the yearly
// values.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -dir data/cache \
//	  -countries USA,MEX,CAN,BLZ \
//	  -start 1901 -end 2012
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/climate-figures/internal/adapter/worldbank"
	"github.com/couchcryptid/climate-figures/internal/domain"
)

// climate is the baseline used for a country's synthetic series.
type climate struct {
	precip    float64 // mm per month
	precipSD  float64
	temp      float64 // °C
	tempSD    float64
	warmingPC float64 // °C per century
}

var baselines = map[domain.CountryCode]climate{
	"USA": {precip: 61, precipSD: 4, temp: 8.5, tempSD: 0.5, warmingPC: 0.8},
	"MEX": {precip: 63, precipSD: 8, temp: 20.5, tempSD: 0.4, warmingPC: 0.9},
	"CAN": {precip: 44, precipSD: 3, temp: -5.5, tempSD: 0.8, warmingPC: 1.6},
	"BLZ": {precip: 180, precipSD: 20, temp: 25.3, tempSD: 0.3, warmingPC: 0.7},
}

var fallback = climate{precip: 80, precipSD: 10, temp: 15, tempSD: 0.5, warmingPC: 1}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dir := flag.String("dir", "", "flat-file cache directory to write into")
	countries := flag.String("countries", "USA,MEX,CAN,BLZ", "comma-separated ISO 3166-1 alpha-3 codes")
	start := flag.Int("start", 1901, "first year")
	end := flag.Int("end", 2012, "last year")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -dir")
	}
	if *end < *start {
		return fmt.Errorf("-end %d before -start %d", *end, *start)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed>>1|1))
	for _, raw := range strings.Split(*countries, ",") {
		code := domain.CountryCode(strings.ToUpper(strings.TrimSpace(raw)))
		if code == "" {
			continue
		}
		base, ok := baselines[code]
		if !ok {
			base = fallback
		}

		pr, tas := synthesize(rng, code, base, *start, *end)
		series := map[domain.Variable][]domain.Record{domain.Precipitation: pr, domain.Temperature: tas}
		for _, variable := range []domain.Variable{domain.Precipitation, domain.Temperature} {
			for _, res := range []domain.Resolution{domain.Yearly, domain.Decadal} {
				records := series[variable]
				if res == domain.Decadal {
					records = decadal(records)
				}
				path := worldbank.CachePath(*dir, variable, res, code)
				if err := worldbank.WriteSeriesFile(path, records); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
				log.Printf("wrote %s (%d rows)", path, len(records))
			}
		}
		printStats(code, pr, tas)
	}
	return nil
}

func synthesize(rng *rand.Rand, code domain.CountryCode, c climate, start, end int) (pr, tas []domain.Record) {
	for year := start; year <= end; year++ {
		t := float64(year-start) / 100
		p := math.Max(0, c.precip+rng.NormFloat64()*c.precipSD)
		pr = append(pr, domain.Record{Year: year, Country: code, Value: round(p, 3)})
		v := c.temp + c.warmingPC*t + rng.NormFloat64()*c.tempSD
		tas = append(tas, domain.Record{Year: year, Country: code, Value: round(v, 3)})
	}
	return pr, tas
}

// decadal averages records by decade start year.
func decadal(records []domain.Record) []domain.Record {
	var out []domain.Record
	var sum float64
	var n int
	flush := func(decade int, code domain.CountryCode) {
		if n > 0 {
			out = append(out, domain.Record{Year: decade, Country: code, Value: round(sum/float64(n), 3)})
		}
		sum, n = 0, 0
	}
	for i, r := range records {
		decade := r.Year / 10 * 10
		if i > 0 && records[i-1].Year/10*10 != decade {
			flush(records[i-1].Year/10*10, r.Country)
		}
		sum += r.Value
		n++
	}
	if len(records) > 0 {
		last := records[len(records)-1]
		flush(last.Year/10*10, last.Country)
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func printStats(code domain.CountryCode, pr, tas []domain.Record) {
	frame, err := domain.Merge(pr, tas)
	if err != nil {
		log.Printf("%s: %v", code, err)
		return
	}
	peak, _ := domain.PeakTemperature(frame)
	fmt.Printf("  %-4s years=%d mean_tas=%.2f mean_pr=%.2f peak=%d (%.2f)\n",
		code, len(frame), domain.MeanTemperature(frame), stat.Mean(frame.Precipitations(), nil), peak.Year, peak.Temperature)
}
