package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/oxygene76/ballistics-client/pkg/astronomy/ballistic"
)

// LoadSamples reads a trajectory log written by ballistic.WriteCSV.
func LoadSamples(filename string) ([]ballistic.Sample, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadSamples(file)
}

// ReadSamples parses CSV with a time,x,y,z,height header row.
func ReadSamples(r io.Reader) ([]ballistic.Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(ballistic.CSVHeader)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty log")
	}
	for i, col := range ballistic.CSVHeader {
		if records[0][i] != col {
			return nil, fmt.Errorf("unexpected header column %d: %q", i, records[0][i])
		}
	}

	samples := make([]ballistic.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		s, err := parseSampleRecord(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseSampleRecord(record []string) (ballistic.Sample, error) {
	var vals [5]float64
	for i := range vals {
		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return ballistic.Sample{}, fmt.Errorf("invalid %s: %w", ballistic.CSVHeader[i], err)
		}
		vals[i] = v
	}
	return ballistic.Sample{Time: vals[0], X: vals[1], Y: vals[2], Z: vals[3], Height: vals[4]}, nil
}
