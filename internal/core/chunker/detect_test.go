package chunker

import (
	"errors"
	"testing"

	"github.com/ragstack/ragserve/internal/core"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		want     ContentType
		wantErr  bool
	}{
		{"plain text", "notes.txt", []byte("hello"), ContentText, false},
		{"markdown", "readme.md", []byte("# title"), ContentText, false},
		{"pdf", "doc.pdf", []byte("%PDF-1.7 ..."), ContentPDF, false},
		{"pdf signature wins over text extension", "doc.txt", []byte("%PDF-1.7 ..."), ContentPDF, false},
		{"pdf extension without signature", "doc.pdf", []byte("not a pdf"), ContentUnknown, true},
		{"unsupported extension", "sheet.xlsx", []byte("data"), ContentUnknown, true},
		{"uppercase extension", "NOTES.TXT", []byte("hello"), ContentText, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.filename, tt.content)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidInput) {
					t.Fatalf("got err %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got content type %v, want %v", got, tt.want)
			}
		})
	}
}
