// Package pdfinfo extracts lightweight structural information from PDF
// bytes without a full parser.
package pdfinfo

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
)

var (
	// ErrNotPDF is returned when the data lacks a PDF header.
	ErrNotPDF = errors.New("data is not a PDF document")

	pageTypeRe  = regexp.MustCompile(`/Type\s*/Page[^s]`)
	pageCountRe = regexp.MustCompile(`/Count\s+(\d+)`)
)

// PageCount returns the number of pages in the PDF. It counts page
// objects directly and falls back to the page tree /Count entry when
// the page objects live inside compressed object streams.
func PageCount(data []byte) (int, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return 0, ErrNotPDF
	}

	if n := len(pageTypeRe.FindAll(data, -1)); n > 0 {
		return n, nil
	}

	max := 0
	for _, m := range pageCountRe.FindAllSubmatch(data, -1) {
		n, err := strconv.Atoi(string(m[1]))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	if max == 0 {
		return 0, errors.New("could not determine page count")
	}
	return max, nil
}
