package domain

import (
	"fmt"
	"testing"
)

func makeValidContent() *ReportContent {
	sections := make([]Section, 0, len(RequiredSections))
	for _, slug := range RequiredSections {
		sec := Section{Slug: slug, Title: slug, Body: "Body for " + slug}
		if slug != SectionSummary && slug != SectionCitations {
			for i := 0; i < MinSectionCitations; i++ {
				sec.Citations = append(sec.Citations, Citation{
					Title: fmt.Sprintf("%s source %d", slug, i),
					URL:   fmt.Sprintf("https://example.com/%s/%d", slug, i),
				})
			}
		}
		sections = append(sections, sec)
	}
	return &ReportContent{Sections: sections}
}

func TestValidate_AcceptsFullContent(t *testing.T) {
	if err := makeValidContent().Validate(); err != nil {
		t.Fatalf("valid content rejected: %v", err)
	}
}

func TestValidate_NilAndEmpty(t *testing.T) {
	var nilContent *ReportContent
	if err := nilContent.Validate(); err == nil {
		t.Fatalf("nil content must be invalid")
	}
	if err := (&ReportContent{}).Validate(); err == nil {
		t.Fatalf("empty content must be invalid")
	}
}

func TestValidate_MissingSection(t *testing.T) {
	c := makeValidContent()
	c.Sections = c.Sections[:len(c.Sections)-1]
	if err := c.Validate(); err == nil {
		t.Fatalf("content missing a section must be invalid")
	}
}

func TestValidate_WrongOrder(t *testing.T) {
	c := makeValidContent()
	c.Sections[0], c.Sections[1] = c.Sections[1], c.Sections[0]
	if err := c.Validate(); err == nil {
		t.Fatalf("out-of-order sections must be invalid")
	}
}

func TestValidate_EmptyBody(t *testing.T) {
	c := makeValidContent()
	c.Sections[1].Body = "   "
	if err := c.Validate(); err == nil {
		t.Fatalf("blank section body must be invalid")
	}
}

func TestValidate_CitationMinimumPerSection(t *testing.T) {
	c := makeValidContent()
	// Drop one citation from a section that requires the minimum.
	c.Sections[1].Citations = c.Sections[1].Citations[:MinSectionCitations-1]
	if err := c.Validate(); err == nil {
		t.Fatalf("section below citation minimum must be invalid")
	}

	// Blank URLs do not count toward the minimum.
	c = makeValidContent()
	c.Sections[1].Citations[0].URL = "  "
	if err := c.Validate(); err == nil {
		t.Fatalf("blank citation URL must not satisfy the minimum")
	}
}

func TestValidate_SummaryAndCitationsExempt(t *testing.T) {
	c := makeValidContent()
	c.Sections[0].Citations = nil                   // summary
	c.Sections[len(c.Sections)-1].Citations = nil   // citations list
	c.Sections[len(c.Sections)-1].Body = ""         // citations body may be empty
	if err := c.Validate(); err != nil {
		t.Fatalf("summary/citations exemption broken: %v", err)
	}
}

func TestTotalCitations_CountsNonEmptyURLs(t *testing.T) {
	c := makeValidContent()
	want := (len(RequiredSections) - 2) * MinSectionCitations
	if got := c.TotalCitations(); got != want {
		t.Fatalf("TotalCitations = %d, want %d", got, want)
	}

	c.Sections[1].Citations[0].URL = ""
	if got := c.TotalCitations(); got != want-1 {
		t.Fatalf("TotalCitations after blanking = %d, want %d", got, want-1)
	}

	var nilContent *ReportContent
	if got := nilContent.TotalCitations(); got != 0 {
		t.Fatalf("nil TotalCitations = %d, want 0", got)
	}
}

func TestReportContent_SQLRoundTrip(t *testing.T) {
	c := makeValidContent()
	v, err := c.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	var back ReportContent
	if err := back.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(back.Sections) != len(c.Sections) || back.Sections[0].Slug != SectionSummary {
		t.Fatalf("round trip mismatch: %+v", back.Sections)
	}
	if err := back.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) should be a no-op: %v", err)
	}
	if err := back.Scan(42); err == nil {
		t.Fatalf("Scan of unsupported type must error")
	}
}
