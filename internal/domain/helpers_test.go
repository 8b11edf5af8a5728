package domain

import "testing"

var testCodes = []CountryCode{"USA", "MEX", "CAN", "BLZ"}

// syntheticTables builds aligned precipitation and temperature tables with
// five years per country. Values are chosen so every country has a distinct
// mean precipitation and a unique peak temperature.
func syntheticTables(t *testing.T) (Table, Table) {
	t.Helper()
	base := map[CountryCode]struct{ precip, temp float64 }{
		"USA": {precip: 60, temp: 8},
		"MEX": {precip: 65, temp: 20},
		"CAN": {precip: 45, temp: -5},
		"BLZ": {precip: 180, temp: 25},
	}
	var precip, temp Table
	for _, c := range testCodes {
		for i := 0; i < 5; i++ {
			year := 2000 + i
			precip = append(precip, Record{Year: year, Country: c, Value: base[c].precip + float64(i)})
			temp = append(temp, Record{Year: year, Country: c, Value: base[c].temp + float64(i%3)})
		}
	}
	return precip, temp
}

func syntheticFrame(t *testing.T) Frame {
	t.Helper()
	precip, temp := syntheticTables(t)
	frame, err := Merge(precip, temp)
	if err != nil {
		t.Fatalf("merge synthetic tables: %v", err)
	}
	return frame
}
