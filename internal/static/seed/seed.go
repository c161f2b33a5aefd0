// Package seed loads a hand-maintained route catalog from a YAML or JSON file.
//
//	routes:
//	  - number: 500D
//	    name: Hebbal - Silk Board
//	    stops: [Hebbal, Marathahalli, Silk Board]
//	    start_time: "06:00"
//	    end_time: "22:30"
//	    frequency: "10"
package seed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/you/busroutes/models"
)

// File is the on-disk layout of a seed catalog
type File struct {
	Routes []models.Route `yaml:"routes" json:"routes" validate:"required,dive"`
}

// Load reads and validates a seed file. Files ending in .json are decoded as
// JSON, anything else as YAML. Routes are returned in file order.
func Load(path string) ([]models.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var f File
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if err := Validate(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f.Routes, nil
}

// Validate checks struct tags, per-route rules and that no route number is
// used twice.
func Validate(f File) error {
	v := validator.New()
	if err := v.Struct(f); err != nil {
		return err
	}

	numbers := make(map[string]int, len(f.Routes))
	for i := range f.Routes {
		if err := f.Routes[i].Validate(); err != nil {
			return err
		}
		key := strings.ToUpper(strings.TrimSpace(f.Routes[i].Number))
		if j, ok := numbers[key]; ok {
			return fmt.Errorf("route %s appears twice (entries %d and %d)", f.Routes[i].Number, j, i)
		}
		numbers[key] = i
	}
	return nil
}
