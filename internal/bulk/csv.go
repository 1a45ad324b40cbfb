// Package bulk handles CSV-driven bulk issuance and paced bulk downloads.
package bulk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/certportal/certportal/internal/domain"
)

// Columns is the fixed CSV layout.
var Columns = []string{"Name", "Phone", "Course", "Category", "Batch", "IssueDate"}

// ParseResult is the outcome of ParseCSV.
type ParseResult struct {
	Records []domain.BulkCertificate `json:"records"`
	// Skipped counts rows dropped for a missing name or phone.
	Skipped int `json:"skipped"`
}

// ParseCSV reads the bulk upload format. A header row is recognised by a
// leading "Name" cell and ignored. Rows missing a name or phone are dropped.
func ParseCSV(r io.Reader) (*ParseResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	res := &ParseResult{Records: []domain.BulkCertificate{}}
	for line := 0; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if line == 0 && isHeader(row) {
			continue
		}
		if blank(row) {
			continue
		}

		rec := domain.BulkCertificate{
			Name:      cell(row, 0),
			Phone:     cell(row, 1),
			Course:    cell(row, 2),
			Category:  cell(row, 3),
			Batch:     cell(row, 4),
			IssueDate: cell(row, 5),
		}
		if rec.Name == "" || rec.Phone == "" {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isHeader(row []string) bool {
	return strings.EqualFold(cell(row, 0), Columns[0])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
