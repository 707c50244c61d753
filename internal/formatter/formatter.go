// package formatter provides functions to export playlist data to various formats (CSV, Markdown, plain text, JSON, YAML)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/desertthunder/spotish/internal/models"
	"github.com/desertthunder/spotish/internal/shared"
	"gopkg.in/yaml.v3"
)

// Format is an export file format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
	JSON     Format = "json"
	YAML     Format = "yaml"
)

// Formats lists every supported [Format].
var Formats = []Format{CSV, Markdown, Text, JSON, YAML}

// ParseFormat accepts a format name or its file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "text", "txt":
		return Text, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case Markdown:
		return "md"
	case Text:
		return "txt"
	default:
		return string(f)
	}
}

// Export renders p in format f.
func Export(p models.Playlist, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return ExportToCSV(p)
	case Markdown:
		return ExportToMarkdown(p)
	case Text:
		return ExportToText(p)
	case JSON:
		return ExportToJSON(p)
	case YAML:
		return ExportToYAML(p)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
	}
}

// ExportToCSV converts a playlist to CSV format with columns: ID, Title, Artist, Album, Duration, Preview URL
func ExportToCSV(p models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "Preview URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range p.Tracks {
		record := []string{
			strconv.Itoa(track.ID),
			track.Title,
			track.Artist.Name,
			track.Album.Title,
			strconv.Itoa(track.Duration),
			track.PreviewURL,
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

// ExportToMarkdown converts a playlist to Markdown with a numbered track list
func ExportToMarkdown(p models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(p.Tracks))
	fmt.Fprintf(&buf, "**Duration**: %s\n\n", FormatDuration(p.Duration()))

	buf.WriteString("## Tracks\n\n")
	if len(p.Tracks) == 0 {
		buf.WriteString("_No tracks._\n")
	}
	for i, track := range p.Tracks {
		albumPart := ""
		if track.Album.Title != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album.Title)
		}
		fmt.Fprintf(&buf, "%d. %s%s [%s]\n", i+1, track.Label(), albumPart, FormatDuration(track.Duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text format
func ExportToText(p models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(p.Tracks))

	for i, track := range p.Tracks {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, track.Label())
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a playlist to indented JSON
func ExportToJSON(p models.Playlist) ([]byte, error) {
	if p.Tracks == nil {
		p.Tracks = []models.Track{}
	}
	data, err := shared.MarshalJSON(p, true)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToYAML converts a playlist to YAML
func ExportToYAML(p models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteExport renders p in format f and writes it to dir, creating dir as needed.
//
// The filename is {id}_{slug}.{ext}. Returns the written path.
func WriteExport(p models.Playlist, f Format, dir string) (string, error) {
	data, err := Export(p, f)
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, Filename(p, f))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// Filename returns the export filename for p in format f.
func Filename(p models.Playlist, f Format) string {
	name := Slug(p.Name)
	if name == "" {
		return fmt.Sprintf("%d.%s", p.ID, f.Extension())
	}
	return fmt.Sprintf("%d_%s.%s", p.ID, name, f.Extension())
}

// Slug lowercases s and joins its letters and digits with dashes.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// FormatDuration renders seconds as m:ss, or h:mm:ss from one hour up.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
