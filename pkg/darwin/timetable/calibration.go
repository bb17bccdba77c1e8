package timetable

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed calibration.yaml
var defaultCalibrationYaml []byte

// CalibrationTable maps a route and direction to a signed minute correction
// applied to the interpolated midpoint. Loaded once at startup and never
// mutated afterwards.
type CalibrationTable map[RouteKey]int

type calibrationDocument struct {
	Offsets []struct {
		Route     RouteName `yaml:"route"`
		Direction Direction `yaml:"direction"`
		Minutes   int       `yaml:"minutes"`
	} `yaml:"offsets"`
}

// DefaultCalibration returns the embedded offset table.
func DefaultCalibration() CalibrationTable {
	table, err := parseCalibration(defaultCalibrationYaml)
	if err != nil {
		// The embedded document is covered by tests; this is unreachable in a
		// correctly built binary.
		panic(err)
	}

	return table
}

// LoadCalibrationFile reads a replacement offset table, for recalibrating
// without a rebuild.
func LoadCalibrationFile(path string) (CalibrationTable, error) {
	calibrationYaml, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return parseCalibration(calibrationYaml)
}

func parseCalibration(calibrationYaml []byte) (CalibrationTable, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(calibrationYaml))

	var document calibrationDocument
	if err := decoder.Decode(&document); err != nil {
		return nil, fmt.Errorf("calibration table: %w", err)
	}

	table := CalibrationTable{}
	for _, offset := range document.Offsets {
		table[RouteKey{offset.Route, offset.Direction}] = offset.Minutes
	}

	return table, nil
}
