package adapter

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitTelegramText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		in        string
		limit     int
		parseMode string
		want      []string
	}{
		{
			name:  "short text passes through",
			in:    "hello",
			limit: 10,
			want:  []string{"hello"},
		},
		{
			name:  "hard split without newlines",
			in:    "aaaaabbbbb",
			limit: 5,
			want:  []string{"aaaaa", "bbbbb"},
		},
		{
			name:  "prefers newline boundary",
			in:    "aaaa\nbbbbbcccc",
			limit: 10,
			want:  []string{"aaaa", "bbbbbcccc"},
		},
		{
			name:  "ignores newline too close to chunk start",
			in:    "ab\ncdefghijkl",
			limit: 10,
			want:  []string{"ab\ncdefghi", "jkl"},
		},
		{
			name:      "never splits inside an html tag",
			in:        "abcdef<a href",
			limit:     10,
			parseMode: "HTML",
			want:      []string{"abcdef", "<a href"},
		},
		{
			name:      "plain mode splits through tags",
			in:        "abcdef<a href",
			limit:     10,
			parseMode: "",
			want:      []string{"abcdef<a h", "ref"},
		},
		{
			name:  "counts runes not bytes",
			in:    "ééééé",
			limit: 3,
			want:  []string{"ééé", "éé"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := splitTelegramText(tt.in, tt.limit, tt.parseMode)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("splitTelegramText(%q, %d, %q) = %q, want %q", tt.in, tt.limit, tt.parseMode, got, tt.want)
			}
		})
	}
}

func TestSplitTelegramTextChunkSizes(t *testing.T) {
	t.Parallel()
	// A long multi-line message: every chunk must respect the limit and
	// reassemble (modulo collapsed blank lines) into the original lines.
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("line with some menu answer text that repeats\n")
	}
	in := strings.TrimRight(b.String(), "\n")

	const limit = 300
	chunks := splitTelegramText(in, limit, "HTML")

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	var lines []string
	for i, c := range chunks {
		if c == "" {
			t.Fatalf("chunk %d is empty", i)
		}
		if n := len([]rune(c)); n > limit {
			t.Fatalf("chunk %d has %d runes, limit %d", i, n, limit)
		}
		lines = append(lines, strings.Split(c, "\n")...)
	}
	if got, want := len(lines), 200; got != want {
		t.Fatalf("reassembled %d lines, want %d", got, want)
	}
}
