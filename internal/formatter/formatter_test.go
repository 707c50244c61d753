package formatter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"gopkg.in/yaml.v3"

	"github.com/desertthunder/spotish/internal/models"
	"github.com/desertthunder/spotish/internal/shared"
	th "github.com/desertthunder/spotish/internal/testing"
)

func roadTrip() models.Playlist {
	return models.Playlist{ID: 7, Name: "Road Trip", UserID: 3, Tracks: th.Catalog()[:2]}
}

func TestExporters(t *testing.T) {
	g := goldie.New(t)

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(roadTrip())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		g.Assert(t, "road_trip_csv", data)
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("with tracks", func(t *testing.T) {
			data, err := ExportToMarkdown(roadTrip())
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			g.Assert(t, "road_trip_md", data)
		})

		t.Run("empty playlist", func(t *testing.T) {
			data, err := ExportToMarkdown(models.Playlist{ID: 9, Name: "Empty"})
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			g.Assert(t, "empty_md", data)
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(roadTrip())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		g.Assert(t, "road_trip_txt", data)
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(roadTrip())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		g.Assert(t, "road_trip_json", data)
	})

	t.Run("ExportToYAML", func(t *testing.T) {
		data, err := ExportToYAML(roadTrip())
		if err != nil {
			t.Fatalf("ExportToYAML failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{"name: Road Trip", "title: Moonlight Sonata", "preview_url: https://cdn.example.com/2.mp3"} {
			if !strings.Contains(output, want) {
				t.Errorf("YAML missing %q, got:\n%s", want, output)
			}
		}

		var decoded models.Playlist
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("YAML does not parse: %v", err)
		}
		if decoded.Name != "Road Trip" || len(decoded.Tracks) != 2 {
			t.Errorf("unexpected decoded playlist %+v", decoded)
		}
	})
}

func TestExport(t *testing.T) {
	t.Run("dispatches every format", func(t *testing.T) {
		for _, f := range Formats {
			data, err := Export(roadTrip(), f)
			if err != nil {
				t.Errorf("%s: %v", f, err)
			}
			if len(data) == 0 {
				t.Errorf("%s: empty output", f)
			}
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := Export(roadTrip(), Format("xml")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected invalid argument, got %v", err)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"csv", CSV},
		{"MD", Markdown},
		{"markdown", Markdown},
		{"txt", Text},
		{" json ", JSON},
		{"yml", YAML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseFormat("pdf"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("writes into a new directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "exports")

		path, err := WriteExport(roadTrip(), Markdown, dir)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		if filepath.Base(path) != "7_road-trip.md" {
			t.Errorf("unexpected filename %s", path)
		}
		th.AssertFileExists(t, path)
		if !strings.HasPrefix(th.MustReadFile(t, path), "# Road Trip") {
			t.Error("expected Markdown content")
		}
	})

	t.Run("unwritable directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, nil, 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := WriteExport(roadTrip(), CSV, filepath.Join(file, "sub")); err == nil {
			t.Error("expected error when the directory cannot be created")
		}
	})
}

func TestHelpers(t *testing.T) {
	t.Run("Slug", func(t *testing.T) {
		tests := map[string]string{
			"Road Trip":        "road-trip",
			"  Late -- Night ": "late-night",
			"Café № 5!":        "café-5",
			"!!!":              "",
		}
		for in, want := range tests {
			if got := Slug(in); got != want {
				t.Errorf("Slug(%q) = %q, want %q", in, got, want)
			}
		}
	})

	t.Run("Filename without name", func(t *testing.T) {
		if got := Filename(models.Playlist{ID: 3, Name: "???"}, JSON); got != "3.json" {
			t.Errorf("unexpected filename %q", got)
		}
	})

	t.Run("FormatDuration", func(t *testing.T) {
		tests := map[int]string{0: "0:00", 59: "0:59", 360: "6:00", 3725: "1:02:05", -4: "0:00"}
		for in, want := range tests {
			if got := FormatDuration(in); got != want {
				t.Errorf("FormatDuration(%d) = %q, want %q", in, got, want)
			}
		}
	})
}
