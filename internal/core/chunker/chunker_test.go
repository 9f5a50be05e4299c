package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ragstack/ragserve/internal/core"
)

func TestChunkTextSizeAndOverlap(t *testing.T) {
	// 500 * "word " = 2500 characters.
	input := strings.Repeat("word ", 500)
	if len(input) != 2500 {
		t.Fatalf("fixture length = %d, want 2500", len(input))
	}

	pieces, err := Chunk([]byte(input), ContentText, 1000, 200)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(pieces) != 3 {
		t.Fatalf("got %d chunks, want 3", len(pieces))
	}
	for i, p := range pieces {
		if p.Text == "" {
			t.Errorf("chunk %d is empty", i)
		}
		if p.Page != 1 {
			t.Errorf("chunk %d page = %d, want 1 for flat text", i, p.Page)
		}
		if len(p.Text) > 1000 {
			t.Errorf("chunk %d length = %d, exceeds chunk size", i, len(p.Text))
		}
	}
	if !strings.HasPrefix(pieces[0].Text, "word") {
		t.Errorf("first chunk should start at the beginning of the input")
	}
	if !strings.HasSuffix(pieces[len(pieces)-1].Text, "word") {
		t.Errorf("last chunk should end with the final word")
	}
}

func TestChunkTextBacksOffToWhitespace(t *testing.T) {
	pieces, err := Chunk([]byte("hello world foo"), ContentText, 8, 0)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	got := make([]string, len(pieces))
	for i, p := range pieces {
		got[i] = p.Text
	}
	want := []string{"hello", "world", "foo"}
	if len(got) != len(want) {
		t.Fatalf("got chunks %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChunkTextProgressWhenOverlapExceedsSize(t *testing.T) {
	// No whitespace, overlap larger than size: the cursor must still move
	// forward on every iteration.
	input := strings.Repeat("x", 200)
	pieces, err := Chunk([]byte(input), ContentText, 10, 50)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(pieces) == 0 {
		t.Fatal("expected chunks from non-empty input")
	}
	if len(pieces) > len(input) {
		t.Fatalf("produced %d chunks for %d characters; cursor did not advance properly", len(pieces), len(input))
	}
}

func TestChunkTextOverlapRepeatsTail(t *testing.T) {
	input := strings.Repeat("abcd ", 20) // 100 chars
	pieces, err := Chunk([]byte(input), ContentText, 40, 10)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(pieces) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(pieces))
	}
	// With a 10-char overlap the second chunk must re-cover the tail of the
	// first one.
	tail := pieces[0].Text[len(pieces[0].Text)-4:]
	if !strings.Contains(pieces[1].Text, tail) {
		t.Errorf("chunk 1 %q does not overlap tail %q of chunk 0", pieces[1].Text, tail)
	}
}

func TestChunkTextReconstructsInput(t *testing.T) {
	// Unique words make every chunk a locatable substring of the input, so a
	// cursor bug that drops text between cut points cannot hide.
	words := make([]string, 120)
	for i := range words {
		words[i] = fmt.Sprintf("w%03d", i)
	}
	input := strings.Join(words, " ")

	t.Run("no overlap", func(t *testing.T) {
		pieces, err := Chunk([]byte(input), ContentText, 50, 0)
		if err != nil {
			t.Fatalf("chunk error: %v", err)
		}
		texts := make([]string, len(pieces))
		for i, p := range pieces {
			texts[i] = p.Text
		}
		if got := strings.Join(texts, " "); got != input {
			t.Fatalf("concatenated chunks do not reconstruct the input:\ngot  %q\nwant %q", got, input)
		}
	})

	t.Run("with overlap", func(t *testing.T) {
		pieces, err := Chunk([]byte(input), ContentText, 50, 10)
		if err != nil {
			t.Fatalf("chunk error: %v", err)
		}
		// After removing the overlapped tails, coverage must be gapless: each
		// chunk starts no later than one rune past the previous chunk's end,
		// and the last chunk reaches the end of the input.
		prevStart, prevEnd := -1, 0
		for i, p := range pieces {
			start := strings.Index(input[prevStart+1:], p.Text)
			if start == -1 {
				t.Fatalf("chunk %d %q is not a substring of the input past offset %d", i, p.Text, prevStart+1)
			}
			start += prevStart + 1
			if start > prevEnd+1 {
				t.Fatalf("chunk %d starts at %d but the previous chunk ended at %d; text was dropped", i, start, prevEnd)
			}
			prevStart, prevEnd = start, start+len(p.Text)
		}
		if prevEnd != len(input) {
			t.Fatalf("last chunk ends at %d, want %d; the input tail was dropped", prevEnd, len(input))
		}
	})
}

func TestChunkEmptyDocument(t *testing.T) {
	for _, input := range []string{"", "   \n\t  "} {
		_, err := Chunk([]byte(input), ContentText, 1000, 200)
		if !errors.Is(err, core.ErrEmptyDocument) {
			t.Errorf("input %q: got %v, want ErrEmptyDocument", input, err)
		}
	}
}

func TestChunkTextInvalidUTF8(t *testing.T) {
	_, err := Chunk([]byte{0xff, 0xfe, 0x41}, ContentText, 1000, 200)
	if !errors.Is(err, core.ErrEncoding) {
		t.Fatalf("got %v, want ErrEncoding", err)
	}
}

func TestChunkPDFUnreadable(t *testing.T) {
	_, err := Chunk([]byte("%PDF-1.4 this is not a real pdf body"), ContentPDF, 1000, 200)
	if !errors.Is(err, core.ErrUnreadableDocument) {
		t.Fatalf("got %v, want ErrUnreadableDocument", err)
	}
}

func TestChunkUnknownContentType(t *testing.T) {
	_, err := Chunk([]byte("anything"), ContentUnknown, 1000, 200)
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}
