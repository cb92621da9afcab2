package parser

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gilchrisn/busplan/pkg/models"
)

const (
	GraphFile      = "graph.gml"
	ParametersFile = "parameters.txt"
)

// ReadInstance loads graph.gml and parameters.txt from an instance folder.
// The instance is named after the folder.
func ReadInstance(dir string) (*models.Instance, error) {
	if err := checkFilesExist(filepath.Join(dir, GraphFile), filepath.Join(dir, ParametersFile)); err != nil {
		return nil, err
	}

	graphFile, err := os.Open(filepath.Join(dir, GraphFile))
	if err != nil {
		return nil, err
	}
	defer graphFile.Close()

	g, err := ReadGML(graphFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", GraphFile, err)
	}

	paramFile, err := os.Open(filepath.Join(dir, ParametersFile))
	if err != nil {
		return nil, err
	}
	defer paramFile.Close()

	capacity, groups, err := ReadParameters(paramFile, g)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ParametersFile, err)
	}

	inst := &models.Instance{
		Name:        filepath.Base(filepath.Clean(dir)),
		Graph:       g,
		Capacity:    capacity,
		RowdyGroups: groups,
	}
	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("invalid instance %s: %w", dir, err)
	}
	return inst, nil
}

// WriteInstance writes inst as graph.gml and parameters.txt under dir
func WriteInstance(dir string, inst *models.Instance) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create instance directory: %w", err)
	}

	graphFile, err := os.Create(filepath.Join(dir, GraphFile))
	if err != nil {
		return err
	}
	defer graphFile.Close()
	if err := WriteGML(graphFile, inst.Graph); err != nil {
		return fmt.Errorf("failed to write %s: %w", GraphFile, err)
	}

	paramFile, err := os.Create(filepath.Join(dir, ParametersFile))
	if err != nil {
		return err
	}
	defer paramFile.Close()
	if err := WriteParameters(paramFile, inst.Graph, inst.Capacity, inst.RowdyGroups); err != nil {
		return fmt.Errorf("failed to write %s: %w", ParametersFile, err)
	}
	return nil
}

// ListInstances returns the instance folders directly under dir, sorted by name
func ListInstances(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(dir, e.Name()))
		}
	}
	return dirs, nil
}

func checkFilesExist(filenames ...string) error {
	for _, filename := range filenames {
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filename)
		}
	}
	return nil
}
