package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageGroups(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    [][]int
		wantErr bool
	}{
		{
			name: "mixed ranges and singles",
			spec: "1-2,3,4-6",
			want: [][]int{{1, 2}, {3}, {4, 5, 6}},
		},
		{
			name: "single page",
			spec: "7",
			want: [][]int{{7}},
		},
		{
			name: "whitespace tolerated",
			spec: " 1-2 , 3 ",
			want: [][]int{{1, 2}, {3}},
		},
		{
			name:    "empty spec",
			spec:    "",
			wantErr: true,
		},
		{
			name:    "trailing comma",
			spec:    "1-2,",
			wantErr: true,
		},
		{
			name:    "reversed range",
			spec:    "5-3",
			wantErr: true,
		},
		{
			name:    "zero page",
			spec:    "0-2",
			wantErr: true,
		},
		{
			name:    "non numeric",
			spec:    "a-b",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePageGroups(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPageRange(t *testing.T) {
	assert.Equal(t, "3-5", FormatPageRange([]int{3, 4, 5}))
	assert.Equal(t, "7", FormatPageRange([]int{7}))
	assert.Equal(t, "", FormatPageRange(nil))
}
