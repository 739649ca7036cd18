// Report content shape and validation.
//
// Generated content must contain exactly the fixed ordered set of required
// sections. Every section except the summary and the citations list itself
// must carry a minimum number of citations; the report-level citation count
// is always recomputed from the content, never cached independently.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Required section slugs, in the order they must appear.
const (
	SectionSummary        = "summary"
	SectionUniversities   = "universities"
	SectionAdmissions     = "admissions"
	SectionTuition        = "tuition_and_fees"
	SectionScholarships   = "scholarships"
	SectionVisa           = "visa_requirements"
	SectionCostOfLiving   = "cost_of_living"
	SectionCareerOutcomes = "career_outcomes"
	SectionStudentLife    = "student_life"
	SectionCitations      = "citations"
)

// RequiredSections is the mandatory ordered section set for a completed
// report.
var RequiredSections = []string{
	SectionSummary,
	SectionUniversities,
	SectionAdmissions,
	SectionTuition,
	SectionScholarships,
	SectionVisa,
	SectionCostOfLiving,
	SectionCareerOutcomes,
	SectionStudentLife,
	SectionCitations,
}

// MinSectionCitations is the minimum citation count per section, except for
// the summary and the citations list.
const MinSectionCitations = 3

// Citation is a single retrievable source backing a section.
type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Section is one titled block of report content with its backing citations.
type Section struct {
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Citations []Citation `json:"citations,omitempty"`
}

// ReportContent is the full structured content of a completed report. It is
// persisted as a JSON text column and treated as immutable once written.
type ReportContent struct {
	Sections []Section `json:"sections"`
}

// Value implements driver.Valuer so GORM can persist the content as JSON.
func (c ReportContent) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner so GORM can load the JSON column back.
func (c *ReportContent) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported content column type %T", src)
	}
}

// TotalCitations recomputes the citation count as the sum across all
// sections, counting only citations with a non-empty URL.
func (c *ReportContent) TotalCitations() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, s := range c.Sections {
		for _, cit := range s.Citations {
			if strings.TrimSpace(cit.URL) != "" {
				total++
			}
		}
	}
	return total
}

// Validate checks the mandatory content shape: exactly the required sections
// in order, non-empty bodies, the per-section citation minimum, and at least
// one non-empty citation overall. A nil receiver is invalid.
func (c *ReportContent) Validate() error {
	if c == nil {
		return errors.New("content is empty")
	}
	if len(c.Sections) != len(RequiredSections) {
		return fmt.Errorf("content has %d sections, want %d", len(c.Sections), len(RequiredSections))
	}
	for i, want := range RequiredSections {
		sec := c.Sections[i]
		if sec.Slug != want {
			return fmt.Errorf("section %d is %q, want %q", i, sec.Slug, want)
		}
		if strings.TrimSpace(sec.Body) == "" && sec.Slug != SectionCitations {
			return fmt.Errorf("section %q has an empty body", sec.Slug)
		}
		if sec.Slug == SectionSummary || sec.Slug == SectionCitations {
			continue
		}
		n := 0
		for _, cit := range sec.Citations {
			if strings.TrimSpace(cit.URL) != "" {
				n++
			}
		}
		if n < MinSectionCitations {
			return fmt.Errorf("section %q has %d citations, want at least %d", sec.Slug, n, MinSectionCitations)
		}
	}
	if c.TotalCitations() == 0 {
		return errors.New("content has no citations")
	}
	return nil
}
