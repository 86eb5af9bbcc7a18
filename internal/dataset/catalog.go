package dataset

import (
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve"

	"github.com/boswallah/course-assistant/models"
)

// Catalog holds the loaded courses plus an in-memory bleve index for
// keyword lookups (title/description/audience). Similarity search lives in
// the vector index; this covers exact-term queries like a course name.
type Catalog struct {
	courses []models.Course
	byNo    map[int]models.Course
	bleve   bleve.Index
}

type catalogDoc struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Audience    string `json:"audience"`
}

func NewCatalog(courses []models.Course) (*Catalog, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog index: %w", err)
	}
	c := &Catalog{
		courses: courses,
		byNo:    make(map[int]models.Course, len(courses)),
		bleve:   idx,
	}
	for _, course := range courses {
		c.byNo[course.No] = course
		doc := catalogDoc{
			Title:       course.Title,
			Description: course.Description,
			Audience:    course.Audience,
		}
		if err := idx.Index(strconv.Itoa(course.No), doc); err != nil {
			return nil, fmt.Errorf("failed to index course %d: %w", course.No, err)
		}
	}
	return c, nil
}

// Courses returns the full catalog.
func (c *Catalog) Courses() []models.Course { return c.courses }

// CourseByNo looks up a course by its identifier.
func (c *Catalog) CourseByNo(no int) (models.Course, bool) {
	course, ok := c.byNo[no]
	return course, ok
}

// SearchCourses runs a keyword query over the catalog and returns matching
// courses, best first.
func (c *Catalog) SearchCourses(query string, k int) ([]models.Course, error) {
	if k <= 0 {
		k = 5
	}
	q := bleve.NewQueryStringQuery(query)
	req := bleve.NewSearchRequestOptions(q, k, 0, false)
	res, err := c.bleve.Search(req)
	if err != nil {
		return nil, err
	}
	var out []models.Course
	for _, hit := range res.Hits {
		no, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		if course, ok := c.byNo[no]; ok {
			out = append(out, course)
		}
	}
	return out, nil
}

// CoursesByLanguage returns courses released in the named language.
func (c *Catalog) CoursesByLanguage(language string) []models.Course {
	var out []models.Course
	for _, course := range c.courses {
		for _, lang := range course.Languages {
			if lang == language {
				out = append(out, course)
				break
			}
		}
	}
	return out
}

// Stats summarizes the catalog.
func (c *Catalog) Stats() Stats { return ComputeStats(c.courses) }
