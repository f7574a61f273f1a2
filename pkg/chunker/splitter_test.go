package chunker

import (
	"strings"
	"testing"
)

func TestNewSplitter(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		wantErr   bool
	}{
		{name: "valid defaults", chunkSize: 1000, overlap: 200, wantErr: false},
		{name: "zero overlap", chunkSize: 500, overlap: 0, wantErr: false},
		{name: "overlap equals chunk size", chunkSize: 200, overlap: 200, wantErr: true},
		{name: "overlap above chunk size", chunkSize: 100, overlap: 200, wantErr: true},
		{name: "zero chunk size", chunkSize: 0, overlap: 0, wantErr: true},
		{name: "negative overlap", chunkSize: 100, overlap: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitter(tt.chunkSize, tt.overlap)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSplitter(%d, %d) error = %v, wantErr %v", tt.chunkSize, tt.overlap, err, tt.wantErr)
			}
		})
	}
}

func TestSplit_OverlappingChunks(t *testing.T) {
	s, err := NewSplitter(1000, 200)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}

	// 3,200-character document
	doc := strings.Repeat("abcdefghijklmnop", 200)
	if len(doc) != 3200 {
		t.Fatalf("fixture length = %d, want 3200", len(doc))
	}

	chunks := s.Split(doc)

	if len(chunks) < 4 {
		t.Fatalf("chunk count = %d, want at least 4", len(chunks))
	}

	for i, c := range chunks {
		if len(c) > 1000 {
			t.Errorf("chunk %d length = %d, want <= 1000", i, len(c))
		}
	}

	// Consecutive chunks share exactly 200 characters
	for i := 0; i < len(chunks)-1; i++ {
		tail := chunks[i][len(chunks[i])-200:]
		head := chunks[i+1][:200]
		if tail != head {
			t.Errorf("chunks %d/%d overlap mismatch:\n tail %q\n head %q", i, i+1, tail, head)
		}
	}

	// Reassembling chunks minus overlaps yields the original document
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		rebuilt.WriteString(c[200:])
	}
	if rebuilt.String() != doc {
		t.Error("reassembled chunks do not match original document")
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s, _ := NewSplitter(100, 20)
	doc := strings.Repeat("workout plan day ", 50)

	first := s.Split(doc)
	second := s.Split(doc)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplit_ShortInput(t *testing.T) {
	s, _ := NewSplitter(1000, 200)

	chunks := s.Split("short document")
	if len(chunks) != 1 || chunks[0] != "short document" {
		t.Errorf("Split(short) = %v, want single identical chunk", chunks)
	}

	if got := s.Split(""); got != nil {
		t.Errorf("Split(empty) = %v, want nil", got)
	}
}
