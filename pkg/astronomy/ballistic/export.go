package ballistic

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
)

// CSVHeader is the header row of a rendered log.
var CSVHeader = []string{"time", "x", "y", "z", "height"}

func (s Sample) record() []string {
	return []string{
		formatFloat(s.Time),
		formatFloat(s.X),
		formatFloat(s.Y),
		formatFloat(s.Z),
		formatFloat(s.Height),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV renders samples with the time,x,y,z,height header.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, s := range samples {
		if err := cw.Write(s.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SnapshotSink receives the log of a run as it grows.
type SnapshotSink interface {
	OnStart(cfg LaunchConfig) error
	OnSamples(samples []Sample) error
	OnEnd(info Info) error
	Close() error
}

// CSVSnapshotWriter streams samples to a CSV file.
type CSVSnapshotWriter struct {
	f  *os.File
	cw *csv.Writer
}

// NewCSVSnapshotWriter creates (or truncates) path.
func NewCSVSnapshotWriter(path string) (*CSVSnapshotWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &CSVSnapshotWriter{f: f, cw: csv.NewWriter(f)}, nil
}

// NewCSVSnapshotStream writes to w, which Close leaves open.
func NewCSVSnapshotStream(w io.Writer) *CSVSnapshotWriter {
	return &CSVSnapshotWriter{cw: csv.NewWriter(w)}
}

func (w *CSVSnapshotWriter) OnStart(LaunchConfig) error { return w.cw.Write(CSVHeader) }

func (w *CSVSnapshotWriter) OnSamples(samples []Sample) error {
	for _, s := range samples {
		if err := w.cw.Write(s.record()); err != nil {
			return err
		}
	}
	return nil
}

func (w *CSVSnapshotWriter) OnEnd(Info) error {
	w.cw.Flush()
	return w.cw.Error()
}

func (w *CSVSnapshotWriter) Close() error {
	if w.cw != nil {
		w.cw.Flush()
	}
	if w.f != nil {
		return w.f.Close()
	}
	return nil
}

// JSONLSnapshotWriter streams samples as one JSON object per line, preceded
// by the launch configuration and followed by the final report.
type JSONLSnapshotWriter struct {
	f  *os.File
	bw *bufio.Writer
}

type jsonlRecord struct {
	Kind   string        `json:"kind"`
	Config *LaunchConfig `json:"config,omitempty"`
	Sample *Sample       `json:"sample,omitempty"`
	Info   *Info         `json:"info,omitempty"`
}

// NewJSONLSnapshotWriter creates (or truncates) path.
func NewJSONLSnapshotWriter(path string) (*JSONLSnapshotWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &JSONLSnapshotWriter{f: f, bw: bufio.NewWriter(f)}, nil
}

func (w *JSONLSnapshotWriter) write(rec jsonlRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.bw.Write(b); err != nil {
		return err
	}
	return w.bw.WriteByte('\n')
}

func (w *JSONLSnapshotWriter) OnStart(cfg LaunchConfig) error {
	return w.write(jsonlRecord{Kind: "config", Config: &cfg})
}

func (w *JSONLSnapshotWriter) OnSamples(samples []Sample) error {
	for i := range samples {
		if err := w.write(jsonlRecord{Kind: "sample", Sample: &samples[i]}); err != nil {
			return err
		}
	}
	return nil
}

func (w *JSONLSnapshotWriter) OnEnd(info Info) error {
	if err := w.write(jsonlRecord{Kind: "info", Info: &info}); err != nil {
		return err
	}
	return w.bw.Flush()
}

func (w *JSONLSnapshotWriter) Close() error {
	if w.bw != nil {
		_ = w.bw.Flush()
	}
	if w.f != nil {
		return w.f.Close()
	}
	return nil
}
