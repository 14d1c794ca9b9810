// Command genreport generates synthetic distributor royalty reports for
// local testing and demos. It writes a CSV in one of two header
// vocabularies (an English distributor export or a Russian licensor
// statement), both of which the service auto-maps.
//
// Usage:
//
//	go run ./cmd/genreport -rows 5000 -vocab en -out march_2024.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/brianvoe/gofakeit/v7"
)

var platforms = []string{"Spotify", "Apple Music", "YouTube Music", "Deezer", "Amazon Music", "Tidal", "VK Music"}

var countries = []string{"US", "GB", "DE", "FR", "BR", "JP", "RU", "MX", "IN", "PL"}

var months = []string{"2024-01", "2024-02", "2024-03"}

type vocab struct {
	header []string
}

var vocabs = map[string]vocab{
	"en": {header: []string{"Sales Month", "Store", "Country", "Artist", "Release", "Track Title", "ISRC", "UPC", "Streams", "Net Revenue", "Currency"}},
	"ru": {header: []string{"Месяц продаж", "Магазин", "Страна", "Исполнитель", "Альбом", "Трек", "ISRC", "UPC", "Количество", "Вознаграждение Лицензиара, руб.", "Currency"}},
}

// track is one synthetic catalog entry. A report repeats catalog entries
// across platforms and countries, the way real statements do.
type track struct {
	artist  string
	release string
	title   string
	isrc    string
	upc     string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rows := flag.Int("rows", 1000, "number of data rows to generate")
	out := flag.String("out", "report.csv", "output CSV path")
	vocabName := flag.String("vocab", "en", "header vocabulary: en or ru")
	seed := flag.Int64("seed", 0, "random seed (0 picks a random one)")
	catalogSize := flag.Int("catalog", 40, "number of distinct tracks in the synthetic catalog")
	flag.Parse()

	v, ok := vocabs[*vocabName]
	if !ok {
		flag.Usage()
		return fmt.Errorf("unknown vocab %q: expected en or ru", *vocabName)
	}
	if *rows <= 0 || *catalogSize <= 0 {
		return fmt.Errorf("-rows and -catalog must be positive")
	}

	gofakeit.Seed(*seed)

	catalog := make([]track, *catalogSize)
	for i := range catalog {
		catalog[i] = track{
			artist:  gofakeit.Name(),
			release: gofakeit.HipsterWord(),
			title:   gofakeit.Song().Name,
			isrc:    genISRC(),
			upc:     genUPC(),
		}
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(v.header); err != nil {
		return err
	}

	currency := "USD"
	if *vocabName == "ru" {
		currency = "RUB"
	}

	for i := 0; i < *rows; i++ {
		t := catalog[gofakeit.Number(0, len(catalog)-1)]

		// A few percent of rows lose their identifiers, like real
		// statements from smaller stores.
		isrc, upc := t.isrc, t.upc
		if gofakeit.Number(0, 99) < 3 {
			isrc = ""
		}
		if gofakeit.Number(0, 99) < 3 {
			upc = ""
		}

		quantity := gofakeit.Number(1, 50000)
		rate := gofakeit.Float64Range(0.0015, 0.0065)
		revenue := float64(quantity) * rate

		record := []string{
			months[gofakeit.Number(0, len(months)-1)],
			platforms[gofakeit.Number(0, len(platforms)-1)],
			countries[gofakeit.Number(0, len(countries)-1)],
			t.artist,
			t.release,
			t.title,
			isrc,
			upc,
			strconv.Itoa(quantity),
			strconv.FormatFloat(revenue, 'f', 6, 64),
			currency,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	log.Printf("wrote %d rows (%s vocab, catalog of %d tracks) to %s", *rows, *vocabName, *catalogSize, *out)
	return nil
}

// genISRC builds a plausible ISRC: country code, registrant, year, and a
// five-digit designation.
func genISRC() string {
	return fmt.Sprintf("%sABC%02d%05d",
		countries[gofakeit.Number(0, len(countries)-1)],
		gofakeit.Number(15, 24),
		gofakeit.Number(0, 99999))
}

// genUPC builds a 12-digit code; real UPCs carry a check digit but the
// engine treats codes as opaque strings.
func genUPC() string {
	return fmt.Sprintf("%012d", gofakeit.Number(100000000, 999999999))
}
