package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ecomigrate/internal/logging"
)

// ErrNoReferenceProduct indicates a dataset without an outputGroup 0 exchange.
var ErrNoReferenceProduct = errors.New("no reference product exchange")

type ecoSpoldDocument struct {
	Activity *datasetXML `xml:"activityDataset"`
	Child    *datasetXML `xml:"childActivityDataset"`
}

type datasetXML struct {
	ActivityName string        `xml:"activityDescription>activity>activityName"`
	Geography    string        `xml:"activityDescription>geography>shortname"`
	Exchanges    []exchangeXML `xml:"flowData>intermediateExchange"`
}

type exchangeXML struct {
	Name             string  `xml:"name"`
	UnitName         string  `xml:"unitName"`
	OutputGroup      *string `xml:"outputGroup"`
	ProductionVolume string  `xml:"productionVolumeAmount,attr"`
}

// ParseDataset reads one ecoSpold2 dataset and returns its reference product
// entry.
func ParseDataset(r io.Reader, filename string) (Entry, error) {
	var doc ecoSpoldDocument
	if err := newXMLDecoder(r).Decode(&doc); err != nil {
		return Entry{}, fmt.Errorf("decode %s: %w", filename, err)
	}
	ds := doc.Activity
	if ds == nil {
		ds = doc.Child
	}
	if ds == nil {
		return Entry{}, fmt.Errorf("%s: no activityDataset or childActivityDataset element", filename)
	}

	for _, exc := range ds.Exchanges {
		if exc.OutputGroup == nil || strings.TrimSpace(*exc.OutputGroup) != "0" {
			continue
		}
		volume := 0.0
		if raw := strings.TrimSpace(exc.ProductionVolume); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return Entry{}, fmt.Errorf("%s: production volume %q: %w", filename, raw, err)
			}
			if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
				return Entry{}, fmt.Errorf("%s: production volume %q is not a finite number", filename, raw)
			}
			volume = parsed
		}
		return Entry{
			ActivityName:     strings.TrimSpace(ds.ActivityName),
			Geography:        strings.TrimSpace(ds.Geography),
			ProductName:      strings.TrimSpace(exc.Name),
			Unit:             strings.TrimSpace(exc.UnitName),
			ProductionVolume: volume,
			Filename:         filename,
		}, nil
	}
	return Entry{}, fmt.Errorf("%s: %w", filename, ErrNoReferenceProduct)
}

// LoadDir parses every .spold or .xml dataset in dir, in file name order.
func LoadDir(ctx context.Context, dir string, logger *slog.Logger) ([]Entry, error) {
	logger = logging.NewComponentLogger(logger, "catalog")

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read datasets directory: %w", err)
	}

	var names []string
	for _, file := range files {
		if !file.IsDir() && IsDatasetFile(file.Name()) {
			names = append(names, file.Name())
		}
	}

	sampler := logging.NewProgressSampler(10)
	entries := make([]Entry, 0, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, err := loadDatasetFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		if percent := logging.Percent(i+1, len(names)); sampler.ShouldLog(percent, "datasets") {
			logger.Debug("loading release datasets",
				logging.String(logging.FieldPath, dir),
				logging.Int("done", i+1),
				logging.Int("total", len(names)),
				logging.Float64("percent", percent),
			)
		}
	}

	logger.Debug("parsed release datasets",
		logging.String("dir", dir),
		logging.Int("datasets", len(entries)),
	)
	return entries, nil
}

func loadDatasetFile(path string) (Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Entry{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ParseDataset(f, filepath.Base(path))
}

// IsDatasetFile reports whether name has a dataset file extension
// (.spold or .xml, any case).
func IsDatasetFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".spold", ".xml":
		return true
	}
	return false
}
