package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRecord_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want string
	}{
		{"exactly one MiB", 1_048_576, "a.png (1.00 MB)"},
		{"unknown size", 0, "a.png"},
		{"negative size treated as unknown", -5, "a.png"},
		{"fractional", 1_572_864, "a.png (1.50 MB)"},
		{"small", 1024, "a.png (0.00 MB)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := FileRecord{FileName: "a.png", SizeBytes: tt.size}
			assert.Equal(t, tt.want, rec.DisplayName())
		})
	}
}

func TestFileRecord_IsImage(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{"image/png", true},
		{"image/jpeg", true},
		{"audio/mp3", false},
		{"unknown", false},
		{"", false},
		{"image", false},
		{"video/image/png", false},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, FileRecord{MimeType: tt.mime}.IsImage())
		})
	}
}

func TestErrorRecord(t *testing.T) {
	rec := ErrorRecord(errors.New("backend unavailable"))

	assert.True(t, rec.Synthetic)
	assert.Equal(t, "backend unavailable", rec.DisplayName())
	assert.False(t, rec.IsImage())
}

func TestDecodedImage_BoundsNil(t *testing.T) {
	var img *DecodedImage
	assert.True(t, img.Bounds().Empty())
}

func TestParseFilter(t *testing.T) {
	for _, f := range Filters {
		t.Run(f.String(), func(t *testing.T) {
			parsed, err := ParseFilter(f.String())
			require.NoError(t, err)
			assert.Equal(t, f, parsed)
			assert.True(t, parsed.Valid())
		})
	}

	t.Run("empty is all", func(t *testing.T) {
		parsed, err := ParseFilter("")
		require.NoError(t, err)
		assert.Equal(t, FilterAll, parsed)
	})

	t.Run("case insensitive", func(t *testing.T) {
		parsed, err := ParseFilter(" Images ")
		require.NoError(t, err)
		assert.Equal(t, FilterImages, parsed)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseFilter("documents")
		assert.Error(t, err)
		assert.False(t, FilterCategory(42).Valid())
		assert.Equal(t, "filter(42)", FilterCategory(42).String())
	})
}
