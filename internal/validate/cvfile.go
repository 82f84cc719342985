package validate

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

const MaxCVSize = 10 * 1024 * 1024

var pdfMagic = []byte("%PDF-")

// CVFile checks name, size and the first bytes of an upload candidate.
func CVFile(name string, size int64, head []byte) error {
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return invalid("file", "please upload a PDF file")
	}
	if size <= 0 {
		return invalid("file", "file is empty")
	}
	if size > MaxCVSize {
		return invalid("file", fmt.Sprintf("file is larger than %d MB", MaxCVSize/(1024*1024)))
	}
	if !bytes.HasPrefix(head, pdfMagic) {
		return invalid("file", "file is not a PDF document")
	}
	return nil
}
