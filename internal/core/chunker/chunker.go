package chunker

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/ragstack/ragserve/internal/core"
)

// Piece is one produced chunk: its trimmed text and the 1-based source page.
// Flat text has no page concept, so every text chunk is tagged page 1.
type Piece struct {
	Text string
	Page int
}

// Chunk splits document bytes into ordered, page-tagged pieces.
//
// Text/markdown honors size and overlap with a whitespace backoff at the cut
// point. PDFs are split on blank-line paragraph boundaries per physical page
// and ignore size/overlap entirely; the paragraph is the atomic unit there.
//
// Producing zero non-empty pieces is an error, never an empty success.
func Chunk(content []byte, contentType ContentType, size, overlap int) ([]Piece, error) {
	var (
		pieces []Piece
		err    error
	)
	switch contentType {
	case ContentText:
		pieces, err = chunkText(content, size, overlap)
	case ContentPDF:
		pieces, err = chunkPDF(content)
	default:
		return nil, fmt.Errorf("%w: unknown content type", core.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, core.ErrEmptyDocument
	}
	return pieces, nil
}

// chunkText greedily accumulates up to size runes per chunk, backing off to
// the last whitespace before the cut so words are never split. The cursor
// always advances by at least one rune, so the loop terminates even when
// overlap >= size.
func chunkText(content []byte, size, overlap int) ([]Piece, error) {
	if !utf8.Valid(content) {
		return nil, core.ErrEncoding
	}
	if size < 1 {
		size = 1
	}
	if overlap < 0 {
		overlap = 0
	}

	text := []rune(string(content))
	var out []Piece

	pos := 0
	for pos < len(text) {
		end := pos + size
		if end > len(text) {
			end = len(text)
		}
		atEOF := end == len(text)
		if !atEOF {
			if ws := lastWhitespace(text, pos, end); ws != -1 {
				end = ws
			}
		}

		piece := strings.TrimSpace(string(text[pos:end]))
		if piece != "" {
			out = append(out, Piece{Text: piece, Page: 1})
		}
		if atEOF {
			break
		}
		if next := end - overlap; next > pos {
			pos = next
		} else {
			pos++
		}
	}
	return out, nil
}

// lastWhitespace returns the index of the last whitespace rune in [from, to),
// or -1 when there is none.
func lastWhitespace(text []rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		if unicode.IsSpace(text[i]) {
			return i
		}
	}
	return -1
}

// chunkPDF extracts text per physical page and emits one piece per non-empty
// paragraph, tagged with its true page number. The pdf library panics on some
// malformed inputs, so parsing runs behind a recover.
func chunkPDF(content []byte) (pieces []Piece, err error) {
	defer func() {
		if r := recover(); r != nil {
			pieces = nil
			err = fmt.Errorf("%w: %v", core.ErrUnreadableDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnreadableDocument, err)
	}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", core.ErrUnreadableDocument, pageNum, err)
		}
		for _, paragraph := range strings.Split(text, "\n\n") {
			if paragraph = strings.TrimSpace(paragraph); paragraph != "" {
				pieces = append(pieces, Piece{Text: paragraph, Page: pageNum})
			}
		}
	}
	return pieces, nil
}
