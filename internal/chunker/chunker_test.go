package chunker

import (
	"strings"
	"testing"
)

func TestPaginate_SmallTextFitsOnePage(t *testing.T) {
	pages := Paginate("hello world", DefaultConfig())
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Number != 1 {
		t.Errorf("expected page number 1, got %d", pages[0].Number)
	}
	if pages[0].Text != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", pages[0].Text)
	}
}

func TestPaginate_LargeTextSplitsContiguously(t *testing.T) {
	text := strings.Repeat("abcdefghij", 600) // 6000 chars
	pages := Paginate(text, Config{ChunkSize: 2500})

	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if len(pages[0].Text) != 2500 || len(pages[1].Text) != 2500 || len(pages[2].Text) != 1000 {
		t.Errorf("unexpected page sizes: %d %d %d", len(pages[0].Text), len(pages[1].Text), len(pages[2].Text))
	}

	var rebuilt strings.Builder
	for i, p := range pages {
		if p.Number != i+1 {
			t.Errorf("page %d: expected number %d, got %d", i, i+1, p.Number)
		}
		rebuilt.WriteString(p.Text)
	}
	if rebuilt.String() != text {
		t.Error("expected pages to reassemble into the original text")
	}
}

func TestPaginate_CountsCharactersNotBytes(t *testing.T) {
	text := strings.Repeat("é", 5)
	pages := Paginate(text, Config{ChunkSize: 2})
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if pages[0].Text != "éé" {
		t.Errorf("expected %q, got %q", "éé", pages[0].Text)
	}
}

func TestPaginate_BlankChunkDroppedWithoutGaps(t *testing.T) {
	// Second chunk is whitespace only.
	text := "abcd" + "    " + "efgh"
	pages := Paginate(text, Config{ChunkSize: 4})
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[1].Number != 2 || pages[1].Text != "efgh" {
		t.Errorf("expected page 2 to be %q, got %d %q", "efgh", pages[1].Number, pages[1].Text)
	}
}

func TestPaginate_EmptyText(t *testing.T) {
	if pages := Paginate("", DefaultConfig()); len(pages) != 0 {
		t.Errorf("expected 0 pages, got %d", len(pages))
	}
}

func TestPaginate_DefaultConfigFallback(t *testing.T) {
	text := strings.Repeat("x", DefaultChunkSize+1)
	pages := Paginate(text, Config{})
	if len(pages) != 2 {
		t.Errorf("expected 2 pages with zero config (defaults applied), got %d", len(pages))
	}
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "One. Two! Three?", []string{"One.", "Two!", "Three?"}},
		{"newline separator", "First line.\n\nSecond line.", []string{"First line.", "Second line."}},
		{"no terminal punctuation", "just words", []string{"just words"}},
		{"decimal stays intact", "Total is 4.50 today. Next.", []string{"Total is 4.50 today.", "Next."}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sentences(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("sentence[%d]: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}
