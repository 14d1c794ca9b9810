package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// delimiters are tried in precedence order when sniffing. Comma first:
// it wins ties, matching what most exports actually use.
var delimiters = []rune{',', ';', '\t', '|'}

// utf8BOM is the byte-order mark some Excel exports prepend to UTF-8 CSVs.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a CSV of unknown delimiter and encoding. Decoding tries
// UTF-8 (with or without BOM), then Windows-1251, then Latin-1; the
// delimiter is sniffed from the header line. Rows that fail to parse are
// skipped rather than failing the file; a handful of mangled lines must
// not block a 500k-row statement.
func ReadCSV(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmpty
	}

	text, err := decode(raw)
	if err != nil {
		return nil, err
	}

	delim := sniffDelimiter(text)
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue // skip bad line
		}
		rows = append(rows, row)
	}

	return tableFromRows(rows)
}

// decode converts raw bytes to a UTF-8 string. Valid UTF-8 passes
// through; otherwise Windows-1251 is tried. The charmap decoders never
// fail, they emit U+FFFD for unassigned bytes (0x98 is the only one in
// cp1251), so a replacement rune in the output is the signal to fall
// through to Latin-1, which assigns all 256 bytes.
func decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	if utf8.Valid(raw) {
		return string(raw), nil
	}

	if decoded, err := charmap.Windows1251.NewDecoder().Bytes(raw); err == nil && !bytes.ContainsRune(decoded, utf8.RuneError) {
		return string(decoded), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode csv: %w", err)
	}
	return string(decoded), nil
}

// sniffDelimiter counts candidate delimiters on the first non-empty line
// and picks the most frequent, comma winning ties.
func sniffDelimiter(text string) rune {
	var line string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}

	best := delimiters[0]
	bestCount := 0
	for _, d := range delimiters {
		if n := strings.Count(line, string(d)); n > bestCount {
			best = d
			bestCount = n
		}
	}
	return best
}
