package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadAllDatasets loads all datasets into a map keyed by file name.
// A missing datasets directory yields an empty map.
func LoadAllDatasets(datasetsDir string) (map[string]interface{}, error) {
	datasets := make(map[string]interface{})

	entries, err := os.ReadDir(datasetsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return datasets, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read datasets directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(datasetsDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", entry.Name(), err)
		}

		var dataset interface{}
		if err := json.Unmarshal(data, &dataset); err != nil {
			return nil, fmt.Errorf("dataset %s: %w", entry.Name(), err)
		}

		datasets[strings.TrimSuffix(entry.Name(), ".json")] = dataset
	}

	return datasets, nil
}

// GetData resolves the input sequence of a case (either inline or from a
// dataset). A JSON array is the sequence of its members, any other value a
// singleton, and null or a missing value the empty sequence.
func GetData(testCase *TestCase, datasets map[string]interface{}) ([]interface{}, error) {
	var data interface{}

	switch {
	case len(testCase.Data) > 0:
		if err := json.Unmarshal(testCase.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal inline data: %w", err)
		}
	case testCase.Dataset != nil && *testCase.Dataset != "":
		var ok bool
		if data, ok = datasets[*testCase.Dataset]; !ok {
			return nil, fmt.Errorf("dataset not found: %s", *testCase.Dataset)
		}
	}

	switch v := data.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return v, nil
	default:
		return []interface{}{v}, nil
	}
}
