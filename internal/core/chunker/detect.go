package chunker

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ragstack/ragserve/internal/core"
)

// ContentType selects the chunking strategy for a document.
type ContentType int

const (
	ContentUnknown ContentType = iota
	ContentText
	ContentPDF
)

var pdfMagic = []byte("%PDF")

// Detect picks the content type from the filename extension and the leading
// byte signature. Only PDF, TXT and MD uploads are accepted; a .pdf without
// the %PDF signature is rejected before any parsing happens. A text-named
// file that carries the PDF signature is still processed as a PDF, matching
// how the signature takes precedence on the ingest path.
func Detect(filename string, content []byte) (ContentType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		if !bytes.HasPrefix(content, pdfMagic) {
			return ContentUnknown, fmt.Errorf("%w: invalid PDF file", core.ErrInvalidInput)
		}
		return ContentPDF, nil
	case ".txt", ".md":
		if bytes.HasPrefix(content, pdfMagic) {
			return ContentPDF, nil
		}
		return ContentText, nil
	default:
		return ContentUnknown, fmt.Errorf("%w: only PDF, TXT, and MD files are supported", core.ErrInvalidInput)
	}
}
