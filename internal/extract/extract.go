// Package extract inspects uploaded resumes before they are sent for review.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"
)

const mimePDF = "application/pdf"

var (
	ErrEmpty  = errors.New("empty document")
	ErrNotPDF = errors.New("document is not a PDF")
)

// Info describes a readable PDF.
type Info struct {
	Pages int
	// Text is best effort; scanned resumes have none.
	Text string
}

// Words counts whitespace separated tokens in the extracted text.
func (i Info) Words() int {
	return len(strings.Fields(i.Text))
}

// IsPDF reports whether data starts like a PDF file.
func IsPDF(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return http.DetectContentType(head) == mimePDF
}

// InspectPDF opens data as a PDF and reports its page count and plain text.
// Only a document that cannot be opened at all is an error.
func InspectPDF(ctx context.Context, data []byte) (info Info, err error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	if len(data) == 0 {
		return Info{}, ErrEmpty
	}
	if !IsPDF(data) {
		return Info{}, ErrNotPDF
	}

	// The pdf reader panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			info = Info{}
			err = fmt.Errorf("read pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, fmt.Errorf("read pdf: %w", err)
	}
	info.Pages = reader.NumPage()
	info.Text = plainText(reader)
	return info, nil
}

func plainText(reader *pdf.Reader) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	plain, err := reader.GetPlainText()
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}
