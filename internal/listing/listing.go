// Package listing renders storage listings as tables.
package listing

import (
	"math"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"

	"github.com/ermos/backupmanager"
)

// Headers are the column titles of a rendered listing.
var Headers = []string{"Name", "Extension", "Size", "Created"}

var units = []string{"B", "KB", "MB", "GB", "TB"}

// TimestampLayout is weekday, day, year, then the 24-hour time.
const TimestampLayout = "Mon 2 2006  15:04:05"

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// FormatBytes renders a byte count with two decimals at most, e.g. "1.5 KB".
func FormatBytes(bytes int64) string {
	b := math.Max(float64(bytes), 0)

	// floor(log1024(b)) without the float error of math.Log at exact powers
	pow := 0
	for scaled := b; scaled >= 1024; scaled /= 1024 {
		pow++
	}
	pow = lo.Clamp(pow, 0, len(units)-1)

	value := math.Round(b/math.Pow(1024, float64(pow))*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + units[pow]
}

// FormatTimestamp renders t in local time using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// Row returns the table cells of a single entry.
func Row(entry backupmanager.FileEntry) []string {
	if entry.IsDir() {
		return []string{entry.Basename + "/", "", "0 B", FormatTimestamp(entry.Timestamp)}
	}

	return []string{entry.Basename, entry.Extension, FormatBytes(entry.Size), FormatTimestamp(entry.Timestamp)}
}

// Rows converts entries into table rows, one per entry.
func Rows(entries []backupmanager.FileEntry) [][]string {
	return lo.Map(entries, func(e backupmanager.FileEntry, _ int) []string { return Row(e) })
}

// FileNames returns the basenames of the entries that are not directories, in order.
func FileNames(entries []backupmanager.FileEntry) []string {
	return lo.FilterMap(entries, func(e backupmanager.FileEntry, _ int) (string, bool) {
		return e.Basename, !e.IsDir()
	})
}

// Render draws the entries as a bordered four-column table.
func Render(entries []backupmanager.FileEntry) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == 0 { // header row index in lipgloss v0.10.0
				return headerStyle
			}
			return cellStyle
		}).
		Headers(Headers...).
		Rows(Rows(entries)...).
		String()
}
