// Package export writes the final candidate report as an Excel
// workbook.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-sourcer/internal/types"
)

const (
	// SheetName is the single worksheet holding the report.
	SheetName = "candidates"

	// strongScore marks candidates worth highlighting.
	strongScore = 70
)

// Headers is the fixed report column layout.
var Headers = []string{
	"Candidate Name",
	"LinkedIn URL",
	"Match Score",
	"Key Matches",
	"Pitch Script",
	"LinkedIn DM",
	"WhatsApp Msg",
	"Notes",
}

// Writer produces the report workbook. Writes go to a temp file in the
// destination directory and are renamed into place, so re-running
// against the same path overwrites atomically.
type Writer struct {
	log *zap.Logger
}

func NewWriter(log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{log: log}
}

// Write joins the per-stage results by profile URL and emits one row
// per pitched candidate, in pitch order. A run with zero candidates
// still produces a valid workbook with just the header row.
func (w *Writer) Write(path string, profiles []types.CandidateProfile, scored []types.ScoredCandidate, matches []types.KeyMatchEntry, pitches []types.PitchMaterials) (*types.PipelineArtifact, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	profileByURL := make(map[string]types.CandidateProfile, len(profiles))
	for _, p := range profiles {
		profileByURL[p.LinkedInURL] = p
	}
	scoreByURL := make(map[string]int, len(scored))
	for _, s := range scored {
		scoreByURL[s.LinkedInURL] = s.Score
	}
	matchesByURL := make(map[string][]types.KeyMatch, len(matches))
	for _, m := range matches {
		matchesByURL[m.LinkedInURL] = m.Matches
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to create report sheet: %w", err)
	}

	if err := writeHeader(f); err != nil {
		return nil, err
	}

	strongStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "006100"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create score style: %w", err)
	}

	for i, pitch := range pitches {
		row := i + 2
		profile := profileByURL[pitch.LinkedInURL]
		score := scoreByURL[pitch.LinkedInURL]

		cells := []any{
			profile.Name,
			pitch.LinkedInURL,
			score,
			formatMatches(matchesByURL[pitch.LinkedInURL]),
			pitch.ColdCall,
			pitch.DMMessage,
			pitch.WhatsAppMessage,
			profile.Headline,
		}
		for col, value := range cells {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}

		if score >= strongScore {
			cell, _ := excelize.CoordinatesToCellName(3, row)
			if err := f.SetCellStyle(SheetName, cell, cell, strongStyle); err != nil {
				return nil, fmt.Errorf("failed to style row %d: %w", row, err)
			}
		}
	}

	if err := saveAtomic(f, path); err != nil {
		return nil, err
	}

	w.log.Info("report written",
		zap.String("path", path),
		zap.Int("rows", len(pitches)))
	return &types.PipelineArtifact{Path: path}, nil
}

func writeHeader(f *excelize.File) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, h := range Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(Headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	// Wide columns for message text.
	f.SetColWidth(SheetName, "A", "B", 30)
	f.SetColWidth(SheetName, "D", "G", 50)

	// Keep the header visible while scrolling.
	return f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// formatMatches renders evidence pairs one per line for a single cell.
func formatMatches(matches []types.KeyMatch) string {
	if len(matches) == 0 {
		return ""
	}
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		lines = append(lines, m.Requirement+": "+m.Evidence)
	}
	return strings.Join(lines, "\n")
}

// saveAtomic writes the workbook to a temp file next to the target and
// renames it into place so readers never observe a partial file.
func saveAtomic(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".report-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temp report file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush report: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}
