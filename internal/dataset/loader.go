// Package dataset loads the course catalog from CSV and prepares it for
// indexing: cleaning, language mapping, chunking and keyword search.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/boswallah/course-assistant/models"
)

// Numeric language identifiers used in the course export.
var courseLanguageNames = map[int]string{
	6:  "Hindi",
	7:  "Kannada",
	11: "Malayalam",
	20: "Tamil",
	21: "Telugu",
	24: "English",
}

const (
	colCourseNo    = "Course No"
	colTitle       = "Course Title"
	colDescription = "Course Description"
	colAudience    = "Who This Course is For"
	colLanguages   = "Released Languages"
)

// LoadCourses reads and preprocesses the course CSV: trims every field,
// fills a missing audience with "Not specified" and maps numeric language
// ids to display names (defaulting to English).
func LoadCourses(path string) ([]models.Course, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open courses file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read courses file %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("courses file %s is empty", path)
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colCourseNo, colTitle, colDescription} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("courses file %s missing column %q", path, required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	courses := make([]models.Course, 0, len(records)-1)
	for _, row := range records[1:] {
		no, _ := strconv.Atoi(field(row, colCourseNo))
		audience := field(row, colAudience)
		if audience == "" {
			audience = "Not specified"
		}
		courses = append(courses, models.Course{
			No:          no,
			Title:       field(row, colTitle),
			Description: field(row, colDescription),
			Audience:    audience,
			Languages:   mapLanguages(field(row, colLanguages)),
		})
	}
	return courses, nil
}

// mapLanguages converts a comma-separated list of numeric language ids to
// display names. Unknown ids keep a visible marker; anything unparsable
// defaults to English.
func mapLanguages(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return []string{"English"}
	}
	var out []string
	for _, tok := range strings.Split(cell, ",") {
		tok = strings.TrimSpace(tok)
		id, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if name, ok := courseLanguageNames[id]; ok {
			out = append(out, name)
		} else {
			out = append(out, fmt.Sprintf("Unknown-%d", id))
		}
	}
	if len(out) == 0 {
		return []string{"English"}
	}
	return out
}

// Stats summarizes the catalog for the status endpoint.
type Stats struct {
	TotalCourses      int            `json:"total_courses"`
	Languages         []string       `json:"languages_supported"`
	CoursesByLanguage map[string]int `json:"courses_by_language"`
}

func ComputeStats(courses []models.Course) Stats {
	byLang := make(map[string]int)
	for _, c := range courses {
		for _, lang := range c.Languages {
			byLang[lang]++
		}
	}
	langs := make([]string, 0, len(byLang))
	for lang := range byLang {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return Stats{
		TotalCourses:      len(courses),
		Languages:         langs,
		CoursesByLanguage: byLang,
	}
}
