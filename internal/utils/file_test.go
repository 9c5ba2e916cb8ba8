package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	resume := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(resume, []byte("Go developer with five years of experience"), 0600))

	tests := []struct {
		name    string
		path    string
		maxSize int64
		wantErr bool
	}{
		{"readable file", resume, 0, false},
		{"within limit", resume, 1024, false},
		{"over limit", resume, 10, true},
		{"missing", filepath.Join(dir, "nope.txt"), 0, true},
		{"directory", dir, 0, true},
		{"empty name", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputFile(tt.path, tt.maxSize)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOutputFileCreatesDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "reports", "jobs.md")
	require.NoError(t, ValidateOutputFile(target))

	info, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoError(t, ValidateOutputFile(""))
}

func TestIsResumeFile(t *testing.T) {
	for name, want := range map[string]bool{
		"cv.PDF":       true,
		"resume.docx":  true,
		"notes.md":     true,
		"photo.png":    false,
		"archive.doc":  false,
		"no-extension": false,
	} {
		assert.Equal(t, want, IsResumeFile(name), name)
	}
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "10.0 MB", FormatFileSize(10*1024*1024))
}
