package prefix

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/prefixdiff/internal/model"
)

func TestDetectStructuredOverlap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text1  string
		text2  string
		want   model.SectionOverlap
		wantOK bool
	}{
		{
			name:   "identical system sections",
			text1:  "<|im_start|>system\nS1\n<|im_start|>user\nQ1",
			text2:  "<|im_start|>system\nS1\n<|im_start|>user\nQ2",
			want:   model.SectionOverlap{Identical: true, CommonPrefixLength: 22, Section1Length: 22, Section2Length: 22},
			wantOK: true,
		},
		{
			name:   "different system sections of different lengths",
			text1:  "<|im_start|>system\nS1\n<|im_start|>user\nQ1",
			text2:  "<|im_start|>system\nS22\n<|im_start|>user\nQ1",
			want:   model.SectionOverlap{Identical: false, CommonPrefixLength: 20, Section1Length: 22, Section2Length: 23},
			wantOK: true,
		},
		{
			name:   "start marker missing from one text",
			text1:  "<|im_start|>system\nS1\n<|im_start|>user\nQ1",
			text2:  "plain\n<|im_start|>user\nQ1",
			wantOK: false,
		},
		{
			name:   "end marker missing from one text",
			text1:  "<|im_start|>system\nS1\n<|im_start|>user\nQ1",
			text2:  "<|im_start|>system\nS1\n",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := DetectStructuredOverlap(tt.text1, tt.text2, DefaultSystemMarker, DefaultUserMarker)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("overlap mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("empty markers never apply", func(t *testing.T) {
		t.Parallel()
		if _, ok := DetectStructuredOverlap("a", "a", "", ""); ok {
			t.Error("expected no overlap for empty markers")
		}
	})
}
