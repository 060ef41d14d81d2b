// package formatter renders recommendation text, the MUSIC_LINKS link protocol, and history exports
// (CSV, Markdown, plain text, terminal table)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/promptdj/internal/models"
)

const historyTimeFormat = "2006-01-02 15:04"

// ExportFormat selects a history export encoding.
type ExportFormat string

const (
	FormatCSV      ExportFormat = "csv"
	FormatMarkdown ExportFormat = "markdown"
	FormatText     ExportFormat = "text"
)

// HistoryToCSV converts records to CSV with columns: ID, Created, Genre, Artist, Title, Video, Source, Stage, Confidence
func HistoryToCSV(records []*models.RecommendationRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Created", "Genre", "Artist", "Title", "Video", "Source", "Stage", "Confidence"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range records {
		record := []string{
			r.ID(),
			r.CreatedAt().UTC().Format(time.RFC3339),
			r.Genre().String(),
			r.Artist(),
			r.Title(),
			r.VideoID(),
			r.SourceLabel(),
			string(r.Stage()),
			strconv.FormatFloat(r.Confidence(), 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// HistoryToMarkdown renders records as a numbered Markdown list with YouTube links.
func HistoryToMarkdown(title string, records []*models.RecommendationRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Recommendations**: %d\n\n", len(records)))

	for i, r := range records {
		song := fmt.Sprintf("%s - %s", r.Artist(), r.Title())
		if r.VideoID() != "" {
			song = fmt.Sprintf("[%s](%s)", song, YouTubeWatchURL(r.VideoID()))
		}
		source := ""
		if r.SourceLabel() != "" {
			source = fmt.Sprintf(" from \"%s\"", r.SourceLabel())
		}
		buf.WriteString(fmt.Sprintf("%d. %s (%s)%s [%s, %s]\n",
			i+1, song, r.Genre().Label(), source, r.Stage(), r.CreatedAt().Format(historyTimeFormat)))
	}

	return buf.Bytes(), nil
}

// HistoryToText renders records as plain lines.
func HistoryToText(records []*models.RecommendationRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Recommendations: %d\n\n", len(records)))
	for i, r := range records {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%s)\n", i+1, r.Artist(), r.Title(), r.Genre()))
	}

	return buf.Bytes(), nil
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// FormatHistoryTable renders records as a bordered terminal table.
func FormatHistoryTable(records []*models.RecommendationRecord) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.Sequence()),
			r.CreatedAt().Local().Format(historyTimeFormat),
			r.Genre().Label(),
			r.Artist(),
			r.Title(),
			string(r.Stage()),
			strconv.FormatFloat(r.Confidence(), 'f', 2, 64),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("#", "When", "Genre", "Artist", "Title", "Stage", "Conf.").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	return t.String()
}

// ExportHistory encodes records in format.
func ExportHistory(records []*models.RecommendationRecord, format ExportFormat) ([]byte, error) {
	switch format {
	case FormatCSV:
		return HistoryToCSV(records)
	case FormatMarkdown:
		return HistoryToMarkdown("Recommendation History", records)
	case FormatText, "":
		return HistoryToText(records)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteHistoryExport writes records in format to path.
func WriteHistoryExport(records []*models.RecommendationRecord, format ExportFormat, path string) error {
	data, err := ExportHistory(records, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
