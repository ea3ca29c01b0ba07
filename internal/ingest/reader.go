package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"
)

// Regex for valid campground identifiers
var campgroundIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// LoadCampgrounds reads campground ids from the first column of a CSV file.
// The first row is a header. Rows with an invalid id are skipped.
func LoadCampgrounds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCampgrounds(f)
}

func readCampgrounds(in io.Reader) ([]string, error) {
	r := csv.NewReader(stripBOM(in))
	r.FieldsPerRecord = -1
	r.Comment = '#'

	var ids []string
	line := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 || len(record) == 0 {
			continue // header
		}

		// Validation (Fail-Soft)
		id := strings.TrimSpace(record[0])
		if !campgroundIDRegex.MatchString(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
