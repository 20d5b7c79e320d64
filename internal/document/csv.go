package document

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// csvBatch is the number of data rows per section.
const csvBatch = 20

// CSVExtractor renders rows as "header: value" lines, batched into sections.
type CSVExtractor struct{}

func (e *CSVExtractor) Extract(r io.Reader, filename string) (*Outline, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	o := &Outline{Title: trimExt(filename, ".csv")}
	if len(records) == 0 {
		return o, nil
	}
	headers := records[0]
	rows := records[1:]
	if len(rows) == 0 {
		o.Sections = append(o.Sections, &Section{Text: strings.Join(headers, ", ")})
		return o, nil
	}

	for i := 0; i < len(rows); i += csvBatch {
		end := min(i+csvBatch, len(rows))
		var text strings.Builder
		for _, row := range rows[i:end] {
			cells := make([]string, 0, len(row))
			for j, cell := range row {
				if j < len(headers) && headers[j] != "" {
					cells = append(cells, headers[j]+": "+cell)
				} else {
					cells = append(cells, cell)
				}
			}
			text.WriteString(strings.Join(cells, ", "))
			text.WriteString("\n")
		}
		o.Sections = append(o.Sections, &Section{
			// Row numbers are 1-indexed and count the header line.
			Heading: fmt.Sprintf("Rows %d-%d", i+2, end+1),
			Text:    strings.TrimSpace(text.String()),
		})
	}
	return o, nil
}
