package searchindex

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidIndex matches every *ValidationError via errors.Is.
var ErrInvalidIndex = errors.New("invalid search index")

// Violation codes. Errors break the index contract; warnings flag data a
// search widget still copes with.
const (
	CodeParallelLength = "PARALLEL_LENGTH"
	CodeOutOfRange     = "INDEX_OUT_OF_RANGE"
	CodeSchema         = "SCHEMA_VALIDATION_ERROR"

	CodeDuplicateDoc     = "DUPLICATE_DOCNAME"
	CodeUnsorted         = "UNSORTED_POSTINGS"
	CodeDuplicatePosting = "DUPLICATE_POSTING"
	CodeEmptyPostings    = "EMPTY_POSTINGS"
	CodeMixedCase        = "MIXED_CASE_TERM"
	CodeObjectRange      = "OBJECT_OUT_OF_RANGE"
	CodeMalformedObjects = "MALFORMED_OBJECTS"
)

// mixedCaseExamples caps the terms quoted in a mixed-case warning.
const mixedCaseExamples = 5

// Violation is one problem found in an index.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationError aggregates every error-level violation of an index.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("%s: %s", ErrInvalidIndex, e.Violations[0].Message)
	}
	return fmt.Sprintf("%s: %d violations, first: %s", ErrInvalidIndex, len(e.Violations), e.Violations[0].Message)
}

// Is makes errors.Is(err, ErrInvalidIndex) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidIndex
}

// Report is the outcome of checking an index.
type Report struct {
	Valid    bool        `json:"valid"`
	Errors   []Violation `json:"errors"`
	Warnings []Violation `json:"warnings"`
	Summary  string      `json:"summary"`
}

// Validate checks the structural contract of idx: docnames, filenames and
// titles are parallel, and every posting falls in [0, len(docnames)).
// All violations are collected, not just the first.
func Validate(idx *Index) error {
	report := Check(idx)
	if report.Valid {
		return nil
	}
	return &ValidationError{Violations: report.Errors}
}

// Check runs every check and reports errors and warnings without failing.
func Check(idx *Index) Report {
	report := Report{
		Errors:   []Violation{},
		Warnings: []Violation{},
	}

	n := len(idx.DocNames)
	if len(idx.FileNames) != n || len(idx.Titles) != n {
		report.Errors = append(report.Errors, Violation{
			Path: "$",
			Message: fmt.Sprintf("docnames, filenames and titles must be parallel: got %d, %d and %d entries",
				n, len(idx.FileNames), len(idx.Titles)),
			Code: CodeParallelLength,
		})
	}

	seen := make(map[string]int, n)
	for i, name := range idx.DocNames {
		if first, dup := seen[name]; dup {
			report.Warnings = append(report.Warnings, Violation{
				Path:    fmt.Sprintf("$.docnames[%d]", i),
				Message: fmt.Sprintf("docname %q already listed at %d", name, first),
				Code:    CodeDuplicateDoc,
			})
			continue
		}
		seen[name] = i
	}

	checkTable(&report, "terms", idx.Terms, n)
	checkTable(&report, "titleterms", idx.TitleTerms, n)
	checkObjects(&report, idx, n)

	report.Valid = len(report.Errors) == 0
	if report.Valid {
		report.Summary = fmt.Sprintf("Index is valid: %d documents, %d terms, %d title terms (%d warnings)",
			n, len(idx.Terms), len(idx.TitleTerms), len(report.Warnings))
	} else {
		report.Summary = fmt.Sprintf("Index is invalid: %d error(s), %d warning(s)",
			len(report.Errors), len(report.Warnings))
	}
	return report
}

func checkTable(report *Report, field string, table map[string]Postings, n int) {
	terms := make([]string, 0, len(table))
	for term := range table {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	var mixed []string
	for _, term := range terms {
		postings := table[term]
		path := fmt.Sprintf("$.%s[%q]", field, term)

		if strings.ToLower(term) != term {
			mixed = append(mixed, term)
		}

		if len(postings) == 0 {
			report.Warnings = append(report.Warnings, Violation{
				Path:    path,
				Message: fmt.Sprintf("%s entry %q lists no documents", field, term),
				Code:    CodeEmptyPostings,
			})
			continue
		}

		sorted := true
		for i, doc := range postings {
			if doc < 0 || doc >= n {
				report.Errors = append(report.Errors, Violation{
					Path:    fmt.Sprintf("%s[%d]", path, i),
					Message: fmt.Sprintf("%s entry %q references document %d, outside [0, %d)", field, term, doc, n),
					Code:    CodeOutOfRange,
				})
			}
			if i == 0 {
				continue
			}
			switch prev := postings[i-1]; {
			case doc == prev:
				report.Warnings = append(report.Warnings, Violation{
					Path:    fmt.Sprintf("%s[%d]", path, i),
					Message: fmt.Sprintf("%s entry %q lists document %d twice", field, term, doc),
					Code:    CodeDuplicatePosting,
				})
			case doc < prev:
				sorted = false
			}
		}
		if !sorted {
			report.Warnings = append(report.Warnings, Violation{
				Path:    path,
				Message: fmt.Sprintf("%s entry %q is not in ascending document order", field, term),
				Code:    CodeUnsorted,
			})
		}
	}

	if len(mixed) > 0 {
		examples := mixed
		if len(examples) > mixedCaseExamples {
			examples = examples[:mixedCaseExamples]
		}
		report.Warnings = append(report.Warnings, Violation{
			Path: "$." + field,
			Message: fmt.Sprintf("%d %s keys are not lower-case (e.g. %s)",
				len(mixed), field, strings.Join(examples, ", ")),
			Code: CodeMixedCase,
		})
	}
}

func checkObjects(report *Report, idx *Index, n int) {
	entries, err := idx.ObjectEntries()
	if err != nil {
		report.Warnings = append(report.Warnings, Violation{
			Path:    "$.objects",
			Message: err.Error(),
			Code:    CodeMalformedObjects,
		})
		return
	}

	for _, entry := range entries {
		if entry.DocIndex < 0 || entry.DocIndex >= n {
			report.Warnings = append(report.Warnings, Violation{
				Path:    fmt.Sprintf("$.objects[%q][%q]", entry.Prefix, entry.Name),
				Message: fmt.Sprintf("object %q references document %d, outside [0, %d)", entry.Name, entry.DocIndex, n),
				Code:    CodeObjectRange,
			})
		}
	}
}
