package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombinePages(t *testing.T) {
	pages := []string{"Alice resume page one", "Alice resume page two", "", "Bob resume"}

	t.Run("wraps each page in start and end markers", func(t *testing.T) {
		got := CombinePages(pages, []int{1, 2}, nil)
		want := "--- Start Page 1 ---\nAlice resume page one\n--- End Page 1 ---\n\n" +
			"--- Start Page 2 ---\nAlice resume page two\n--- End Page 2 ---"
		assert.Equal(t, want, got)
	})

	t.Run("missing page becomes an error marker without failing the rest", func(t *testing.T) {
		got := CombinePages(pages, []int{4, 9}, nil)
		assert.Contains(t, got, "--- Start Page 4 ---\nBob resume\n--- End Page 4 ---")
		assert.Contains(t, got, "--- Error: Page 9 not found ---")
	})

	t.Run("blank page becomes a warning marker", func(t *testing.T) {
		got := CombinePages(pages, []int{3}, nil)
		assert.Equal(t, "--- Warning: Page 3 content is empty ---", got)
	})

	t.Run("page zero is out of range", func(t *testing.T) {
		got := CombinePages(pages, []int{0}, nil)
		assert.Equal(t, "--- Error: Page 0 not found ---", got)
	})

	t.Run("no ocr data at all is a hard failure", func(t *testing.T) {
		got := CombinePages(nil, []int{1, 2}, nil)
		assert.Equal(t, EmptyOCRError, got)
	})
}
