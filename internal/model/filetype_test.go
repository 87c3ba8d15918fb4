package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		filename string
		wantType string
		wantExt  string
	}{
		{"photo.JPG", TypeImage, "jpg"},
		{"report.pdf", TypeDocument, "pdf"},
		{"clip.mp4", TypeVideo, "mp4"},
		{"song.flac", TypeAudio, "flac"},
		{"archive.tar.gz", TypeOther, "gz"},
		{"binary.xyz", TypeOther, "xyz"},
		{"noextension", TypeOther, ""},
		{".gitignore", TypeOther, "gitignore"},
	}

	for _, tt := range tests {
		gotType, gotExt := DetectFileType(tt.filename)
		assert.Equal(t, tt.wantType, gotType, "filename %q", tt.filename)
		assert.Equal(t, tt.wantExt, gotExt, "filename %q", tt.filename)
	}
}

func TestIsValidFileType(t *testing.T) {
	for _, v := range FileTypes {
		assert.True(t, IsValidFileType(v))
	}
	assert.False(t, IsValidFileType("spreadsheet"))
	assert.False(t, IsValidFileType(""))
}

func TestSharedWithContains(t *testing.T) {
	f := &File{SharedWith: []string{"a@example.com", "b@example.com"}}
	assert.True(t, f.SharedWithContains("a@example.com"))
	assert.False(t, f.SharedWithContains("A@example.com"), "matching is exact")
	assert.False(t, f.SharedWithContains("c@example.com"))

	empty := &File{}
	assert.False(t, empty.SharedWithContains("a@example.com"))
}
