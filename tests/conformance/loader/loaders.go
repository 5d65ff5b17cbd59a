package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadAllTestGroups loads all test groups from the suite directory
func LoadAllTestGroups(suiteDir string) ([]*TestGroup, error) {
	groupsPath := filepath.Join(suiteDir, "groups")

	entries, err := os.ReadDir(groupsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read groups directory: %w", err)
	}

	var groups []*TestGroup
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		group, err := LoadTestGroup(groupsPath, entry.Name())
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	// Sort by group name for consistent output
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Name < groups[j].Name
	})

	return groups, nil
}

// LoadTestGroup loads all test cases from a single group directory.
// A case file holds either one case or an array of cases; cases of an
// array are numbered after the file name.
func LoadTestGroup(groupsPath, groupName string) (*TestGroup, error) {
	groupPath := filepath.Join(groupsPath, groupName)

	entries, err := os.ReadDir(groupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read group directory: %w", err)
	}

	group := &TestGroup{
		Name: groupName,
		Path: groupPath,
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		fileID := strings.TrimSuffix(entry.Name(), ".json")

		cases, err := LoadTestCases(filepath.Join(groupPath, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", groupName, entry.Name(), err)
		}
		for i, tc := range cases {
			switch {
			case tc.ID != "":
			case len(cases) == 1:
				tc.ID = fileID
			default:
				tc.ID = fmt.Sprintf("%s_%02d", fileID, i)
			}
			group.Cases = append(group.Cases, tc)
		}
	}

	// Sort cases by ID
	sort.Slice(group.Cases, func(i, j int) bool {
		return group.Cases[i].ID < group.Cases[j].ID
	})

	return group, nil
}

// LoadTestCases loads the cases of a JSON file holding either a single
// TestCase object or an array of them.
func LoadTestCases(path string) ([]*TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var testCase TestCase
	if err := json.Unmarshal(data, &testCase); err == nil {
		return []*TestCase{&testCase}, nil
	}

	var testCases []*TestCase
	if err := json.Unmarshal(data, &testCases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON as object or array: %w", err)
	}
	if len(testCases) == 0 {
		return nil, fmt.Errorf("empty test case array")
	}
	return testCases, nil
}

// LoadSuite loads the entire suite (groups + datasets)
func LoadSuite(suiteDir string) (*TestSuite, error) {
	groups, err := LoadAllTestGroups(suiteDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}

	datasets, err := LoadAllDatasets(filepath.Join(suiteDir, "datasets"))
	if err != nil {
		return nil, fmt.Errorf("failed to load datasets: %w", err)
	}

	total := 0
	for _, g := range groups {
		total += len(g.Cases)
	}

	return &TestSuite{
		Groups:   groups,
		Datasets: datasets,
		Total:    total,
	}, nil
}
