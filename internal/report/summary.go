package report

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/franz/setlist/internal/model"
	"github.com/franz/setlist/internal/util"
)

// Catalog is the state a summary is computed from
type Catalog struct {
	Locations    []model.Location
	Songs        []model.Song
	Styles       *model.StyleSet
	LastLocation string
}

// SummaryReport represents a complete summary report
type SummaryReport struct {
	GeneratedAt time.Time

	TotalLocations int
	TotalSongs     int
	SongsWithAudio int
	AudioBytes     uint64
	OrphanSongs    int // songs whose location no longer exists

	Locations    []LocationSummary
	Styles       []StyleSummary
	UnusedStyles []string
	LastLocation string

	// Metadata
	DatabasePath string
	Backend      string
	EventLogPath string
}

// LocationSummary holds the per-venue figures
type LocationSummary struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Songs     int
	WithAudio int
	Newest    string
	Active    bool
}

// StyleSummary counts songs per style
type StyleSummary struct {
	Name  string
	Count int
}

// GenerateSummaryReport computes the summary of a catalog
func GenerateSummaryReport(cat Catalog) *SummaryReport {
	report := &SummaryReport{
		GeneratedAt:    time.Now(),
		TotalLocations: len(cat.Locations),
		TotalSongs:     len(cat.Songs),
		Locations:      make([]LocationSummary, 0, len(cat.Locations)),
		Styles:         make([]StyleSummary, 0),
		UnusedStyles:   make([]string, 0),
	}

	known := make(map[string]bool, len(cat.Locations))
	for _, loc := range cat.Locations {
		known[loc.ID] = true
		if loc.ID == cat.LastLocation {
			report.LastLocation = loc.Name
		}
	}

	for _, song := range cat.Songs {
		if !known[song.LocationID] {
			report.OrphanSongs++
		}
		if song.HasAudio() {
			report.SongsWithAudio++
			report.AudioBytes += audioPayloadSize(song.AudioNote)
		}
	}

	for _, loc := range cat.Locations {
		summary := LocationSummary{
			ID:        loc.ID,
			Name:      loc.Name,
			CreatedAt: time.UnixMilli(loc.CreatedAt),
			Active:    loc.ID == cat.LastLocation,
		}
		songs := model.Filter(cat.Songs, model.Query{LocationID: loc.ID})
		summary.Songs = len(songs)
		for _, s := range songs {
			if s.HasAudio() {
				summary.WithAudio++
			}
		}
		if len(songs) > 0 {
			summary.Newest = songs[0].Title
		}
		report.Locations = append(report.Locations, summary)
	}

	styles := cat.Styles
	if styles == nil {
		styles = model.NewStyleSet()
	}
	for _, name := range styles.Sorted() {
		count := model.CountByStyle(cat.Songs, name)
		if count == 0 {
			report.UnusedStyles = append(report.UnusedStyles, name)
			continue
		}
		report.Styles = append(report.Styles, StyleSummary{Name: name, Count: count})
	}

	// Most used first; the collated order breaks ties
	sort.SliceStable(report.Styles, func(i, j int) bool {
		return report.Styles[i].Count > report.Styles[j].Count
	})

	return report
}

// audioPayloadSize estimates the decoded size of a data URL payload
func audioPayloadSize(dataURL string) uint64 {
	i := strings.IndexByte(dataURL, ',')
	if i < 0 {
		return 0
	}
	payload := strings.TrimRight(dataURL[i+1:], "=")
	return uint64(base64.RawStdEncoding.DecodedLen(len(payload)))
}

// RenderMarkdown renders the summary report as Markdown
func RenderMarkdown(report *SummaryReport) string {
	var md strings.Builder

	md.WriteString("# Setlist - Catalog Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s` (%s)\n\n", report.DatabasePath, report.Backend))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Audit Log:** `%s`\n\n", report.EventLogPath))
	}

	md.WriteString("---\n\n")

	md.WriteString("## Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Locations | %d |\n", report.TotalLocations))
	md.WriteString(fmt.Sprintf("| Songs | %d |\n", report.TotalSongs))
	md.WriteString(fmt.Sprintf("| Songs with voice memo | %d |\n", report.SongsWithAudio))
	if report.AudioBytes > 0 {
		md.WriteString(fmt.Sprintf("| Voice memo storage | %s |\n", humanize.Bytes(report.AudioBytes)))
	}
	if report.OrphanSongs > 0 {
		md.WriteString(fmt.Sprintf("| Songs without a location | %d |\n", report.OrphanSongs))
	}
	if report.LastLocation != "" {
		md.WriteString(fmt.Sprintf("| Active location | %s |\n", report.LastLocation))
	}
	md.WriteString("\n")

	if len(report.Locations) > 0 {
		md.WriteString("## Locations\n\n")
		md.WriteString("| Location | Songs | Memos | Newest | Created |\n")
		md.WriteString("|----------|-------|-------|--------|---------|\n")
		for _, loc := range report.Locations {
			name := loc.Name
			if loc.Active {
				name = "**" + name + "**"
			}
			md.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %s |\n",
				name, loc.Songs, loc.WithAudio,
				util.Truncate(loc.Newest, 40),
				humanize.Time(loc.CreatedAt)))
		}
		md.WriteString("\n")
	}

	if len(report.Styles) > 0 {
		md.WriteString("## Styles\n\n")
		md.WriteString("| Style | Songs |\n")
		md.WriteString("|-------|-------|\n")
		for _, s := range report.Styles {
			md.WriteString(fmt.Sprintf("| %s | %d |\n", s.Name, s.Count))
		}
		md.WriteString("\n")
	}

	if len(report.UnusedStyles) > 0 {
		md.WriteString(fmt.Sprintf("*Unused styles:* %s\n\n", strings.Join(report.UnusedStyles, ", ")))
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by setlist*\n")

	return md.String()
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(RenderMarkdown(report)), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
