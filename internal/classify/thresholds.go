package classify

import (
	"strings"

	"github.com/yourusername/edgeline/internal/config"
	"github.com/yourusername/edgeline/internal/models"
)

// ThresholdRow holds the six independent checks evaluated against a
// simulation result. Each decision state has its own row; the PICK row is
// strictly at least as tight as the LEAN row on every bound.
type ThresholdRow struct {
	MinProbability     float64
	MinEdgePoints      float64
	MinConfidence      float64
	MaxVarianceZ       float64
	MaxMarketDeviation float64
	MinDataQuality     float64
}

// SportThresholds holds both rows for one sport
type SportThresholds struct {
	Pick ThresholdRow
	Lean ThresholdRow
}

// ThresholdTable is the versioned, immutable threshold configuration the
// classifier is constructed with. It is never mutated after process start.
type ThresholdTable struct {
	Version string
	Sports  map[models.Sport]SportThresholds
	Default SportThresholds
}

// defaultThresholds applies when a sport has no explicit row set
var defaultThresholds = SportThresholds{
	Pick: ThresholdRow{
		MinProbability:     0.57,
		MinEdgePoints:      3.0,
		MinConfidence:      65,
		MaxVarianceZ:       1.5,
		MaxMarketDeviation: 0.12,
		MinDataQuality:     70,
	},
	Lean: ThresholdRow{
		MinProbability:     0.53,
		MinEdgePoints:      1.5,
		MinConfidence:      50,
		MaxVarianceZ:       2.0,
		MaxMarketDeviation: 0.18,
		MinDataQuality:     60,
	},
}

// NewThresholdTable builds the immutable table from configuration, falling
// back to built-in defaults for any sport without an override
func NewThresholdTable(cfg config.ClassifierConfig) ThresholdTable {
	table := ThresholdTable{
		Version: cfg.ThresholdVersion,
		Sports:  make(map[models.Sport]SportThresholds, len(cfg.Sports)),
		Default: defaultThresholds,
	}

	// Config keys arrive lower-cased from viper; sport names are upper-cased
	// in the domain.
	for sportName, rows := range cfg.Sports {
		table.Sports[models.Sport(strings.ToUpper(sportName))] = SportThresholds{
			Pick: rowFromConfig(rows.Pick),
			Lean: rowFromConfig(rows.Lean),
		}
	}

	return table
}

// For returns the threshold rows for a sport
func (t ThresholdTable) For(sport models.Sport) SportThresholds {
	if rows, ok := t.Sports[sport]; ok {
		return rows
	}
	return t.Default
}

func rowFromConfig(row config.ThresholdRowConfig) ThresholdRow {
	return ThresholdRow{
		MinProbability:     row.MinProbability,
		MinEdgePoints:      row.MinEdgePoints,
		MinConfidence:      row.MinConfidence,
		MaxVarianceZ:       row.MaxVarianceZ,
		MaxMarketDeviation: row.MaxMarketDeviation,
		MinDataQuality:     row.MinDataQuality,
	}
}
