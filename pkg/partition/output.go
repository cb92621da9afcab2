package partition

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gilchrisn/busplan/pkg/models"
	"github.com/gilchrisn/busplan/pkg/parser"
)

// OutputWriter interface for flexible output generation
type OutputWriter interface {
	WriteSolution(result *Result, g *models.Graph, path string) error
	WriteStatistics(result *Result, g *models.Graph, path string) error
	WriteAll(result *Result, g *models.Graph, outputDir string, prefix string) error
}

// FileWriter implements OutputWriter for file-based output
type FileWriter struct{}

// NewFileWriter creates a new file-based output writer
func NewFileWriter() OutputWriter {
	return &FileWriter{}
}

// WriteAll writes <prefix>.out and <prefix>.stats.json into outputDir
func (fw *FileWriter) WriteAll(result *Result, g *models.Graph, outputDir string, prefix string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	solutionPath := filepath.Join(outputDir, fmt.Sprintf("%s.out", prefix))
	if err := fw.WriteSolution(result, g, solutionPath); err != nil {
		return fmt.Errorf("failed to write solution: %w", err)
	}

	statsPath := filepath.Join(outputDir, fmt.Sprintf("%s.stats.json", prefix))
	if err := fw.WriteStatistics(result, g, statsPath); err != nil {
		return fmt.Errorf("failed to write statistics: %w", err)
	}

	return nil
}

// WriteSolution writes one bus per line
func (fw *FileWriter) WriteSolution(result *Result, g *models.Graph, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteBuses(file, result.Buses, g)
}

// statisticsFile is the on-disk form of a run summary
type statisticsFile struct {
	*Result
	Labels     [][]string `json:"labels"`
	Violations [][]string `json:"violations"`
}

// WriteStatistics writes the result summary as indented JSON
func (fw *FileWriter) WriteStatistics(result *Result, g *models.Graph, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	out := statisticsFile{
		Result:     result,
		Labels:     result.Buses.Labels(g),
		Violations: make([][]string, 0, len(result.Violations)),
	}
	for _, rg := range result.Violations {
		out.Violations = append(out.Violations, rg.Labels(g))
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// WriteBuses writes each bus of p as a list of quoted labels, e.g. ['0', '3']
func WriteBuses(w io.Writer, p models.Partition, g *models.Graph) error {
	bw := bufio.NewWriter(w)
	for _, labels := range p.Labels(g) {
		if _, err := fmt.Fprintln(bw, parser.FormatLabels(labels)); err != nil {
			return err
		}
	}
	return bw.Flush()
}
