package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/san-kum/drivectl/internal/motion"
)

type ExportData struct {
	Run     RunMetadata     `json:"run"`
	Samples []motion.Sample `json:"samples"`
}

// ExportJSON writes a run with its trace to path.
func ExportJSON(path string, meta RunMetadata, samples []motion.Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create export")
	}
	defer file.Close()
	return WriteJSON(file, meta, samples)
}

func WriteJSON(w io.Writer, meta RunMetadata, samples []motion.Sample) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(ExportData{Run: meta, Samples: samples}), "encode run")
}

// ExportCSV writes the trace of a run to path.
func ExportCSV(path string, samples []motion.Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create export")
	}
	defer file.Close()
	return WriteTrace(file, samples)
}
