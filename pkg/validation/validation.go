package validation

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gilchrisn/busplan/pkg/models"
	"github.com/gilchrisn/busplan/pkg/parser"
	"github.com/gilchrisn/busplan/pkg/partition"
)

// Report summarizes a checked solution
type Report struct {
	Instance   string     `json:"instance"`
	Score      float64    `json:"score"`
	Buses      [][]string `json:"buses"`
	Violations [][]string `json:"violations"`
}

// LoadAndValidateSolution reads a solution file, one bus per line as a list
// of quoted labels, and validates it against inst
func LoadAndValidateSolution(inst *models.Instance, filePath string) (models.Partition, error) {
	if err := ValidateFileFormat(filePath); err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read solution file: %w", err)
	}
	defer file.Close()

	var p models.Partition
	var errors models.ValidationErrors
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		labels, err := parser.ParseLabels(line)
		if err != nil {
			return nil, fmt.Errorf("solution line %d: %w", lineNo, err)
		}
		bus := make(models.Bus, 0, len(labels))
		for _, label := range labels {
			idx, ok := inst.Graph.IndexOf(label)
			if !ok {
				errors = append(errors, models.ValidationError{
					Field:   fmt.Sprintf("line %d", lineNo),
					Message: "unknown node",
					Value:   label,
				})
				continue
			}
			bus = append(bus, idx)
		}
		p = append(p, bus)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read solution file: %w", err)
	}

	if err := p.Validate(inst.Graph, inst.Capacity); err != nil {
		if ve, ok := err.(models.ValidationErrors); ok {
			errors = append(errors, ve...)
		} else {
			errors = append(errors, models.ValidationError{Field: "buses", Message: err.Error()})
		}
	}
	for b, bus := range p {
		if len(bus) == 0 {
			errors = append(errors, models.ValidationError{
				Field:   "buses",
				Message: fmt.Sprintf("bus %d is empty", b),
			})
		}
	}

	if len(errors) > 0 {
		return nil, errors
	}
	return p, nil
}

// ScoreSolution loads the instance folder and the solution file, validates
// the solution and reports its score and rowdy violations
func ScoreSolution(instanceDir, filePath string) (*Report, error) {
	inst, err := parser.ReadInstance(instanceDir)
	if err != nil {
		return nil, err
	}

	p, err := LoadAndValidateSolution(inst, filePath)
	if err != nil {
		return nil, fmt.Errorf("solution validation failed: %w", err)
	}

	report := &Report{
		Instance:   inst.Name,
		Score:      partition.Score(p, inst.Graph, inst.RowdyGroups),
		Buses:      p.Labels(inst.Graph),
		Violations: make([][]string, 0),
	}
	for _, rg := range partition.Violations(p, inst.RowdyGroups) {
		report.Violations = append(report.Violations, rg.Labels(inst.Graph))
	}
	return report, nil
}

// ValidateFileFormat checks that a solution file has the .out extension and
// is readable
func ValidateFileFormat(filePath string) error {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext != ".out" {
		return fmt.Errorf("solution file must have .out extension, got: %s", ext)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	return file.Close()
}

// ValidateOutputDirectory makes sure solutions can be written under dir,
// creating it when missing
func ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("output folder %s unusable: %w", dir, err)
	}
	scratch, err := os.CreateTemp(dir, ".busplan-*")
	if err != nil {
		return fmt.Errorf("output folder %s is read-only: %w", dir, err)
	}
	scratch.Close()
	return os.Remove(scratch.Name())
}
