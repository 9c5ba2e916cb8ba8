package documents

import (
	"archive/zip"
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"testing"
	"time"

	"dreamforge/internal/config"
	"dreamforge/internal/errors"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		want        string
	}{
		{"pdf extension", "cv.PDF", "", nil, FormatPDF},
		{"docx extension", "cv.docx", "application/octet-stream", nil, FormatDOCX},
		{"markdown", "cv.md", "", nil, FormatText},
		{"pdf content type", "upload", "application/pdf", nil, FormatPDF},
		{"docx content type", "upload", mimeDOCX, nil, FormatDOCX},
		{"text with charset", "upload", "text/plain; charset=utf-8", nil, FormatText},
		{"pdf magic", "upload.bin", "application/octet-stream", []byte("%PDF-1.7 ..."), FormatPDF},
		{"legacy doc", "cv.doc", "application/msword", nil, ""},
		{"image", "me.png", "image/png", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.filename, tt.contentType, tt.data))
		})
	}
}

func TestExtractText(t *testing.T) {
	doc, err := Extract("resume.txt", "text/plain", []byte("  Jane Doe \r\n\r\n\r\n Go   developer\n"))
	require.NoError(t, err)
	assert.Equal(t, FormatText, doc.Format)
	assert.Equal(t, "Jane Doe\n\nGo developer", doc.Text)
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		code     string
	}{
		{"unsupported", "photo.png", []byte{0x89, 'P', 'N', 'G'}, errors.ErrCodeUnsupportedFile},
		{"empty text", "blank.txt", []byte(" \n\t \n"), errors.ErrCodeEmptyDocument},
		{"broken pdf", "cv.pdf", []byte("not a pdf at all"), errors.ErrCodeInvalidFormat},
		{"broken docx", "cv.docx", []byte("not a zip"), errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.filename, "", tt.data)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
<w:p><w:r><w:t>Senior</w:t></w:r><w:r><w:t xml:space="preserve"> Go Engineer</w:t></w:r></w:p>
<w:p><w:r><w:t>Skills:</w:t><w:tab/><w:t>Go, Kubernetes &amp; SQL</w:t></w:r></w:p>
</w:body>
</w:document>`

func buildDOCX(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/document.xml":            documentXML,
		"word/_rels/document.xml.rels": `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	doc, err := Extract("resume.docx", "", buildDOCX(t))
	require.NoError(t, err)
	assert.Equal(t, FormatDOCX, doc.Format)
	assert.Equal(t, "Jane Doe\nSenior Go Engineer\nSkills: Go, Kubernetes & SQL", doc.Text)
}

func TestDocxXMLToText(t *testing.T) {
	got := docxXMLToText(`<w:p><w:r><w:t>a</w:t><w:br/><w:t>b</w:t></w:r></w:p><w:p><w:r><w:t>c</w:t></w:r></w:p>`)
	assert.Equal(t, "a\nb\nc\n", got)
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3ArchiverArchive(t *testing.T) {
	putter := &fakePutter{}
	archiver := newS3Archiver(putter, config.S3Config{Bucket: "uploads"})
	archiver.now = func() time.Time { return time.UnixMilli(1700000000123) }

	key, err := archiver.Archive(context.Background(), "user-1", "My CV (final).pdf", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	assert.Equal(t, "resumes/user-1/1700000000123-My-CV--final-.pdf", key)
	assert.Equal(t, "uploads", *putter.input.Bucket)
	assert.Equal(t, key, *putter.input.Key)
	assert.Equal(t, "application/pdf", *putter.input.ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), putter.body)
}

func TestS3ArchiverPrefixAndFailure(t *testing.T) {
	putter := &fakePutter{err: stderrors.New("access denied")}
	archiver := newS3Archiver(putter, config.S3Config{Bucket: "b", Prefix: "/archive/"})
	archiver.now = func() time.Time { return time.UnixMilli(5) }

	assert.Equal(t, "archive/u/5-resume", archiver.objectKey("u", ""))
	assert.Equal(t, "archive/u/5-passwd", archiver.objectKey("u", "../../etc/passwd"))

	_, err := archiver.Archive(context.Background(), "u", "cv.txt", "", []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
	assert.Nil(t, putter.input.ContentType)
}

func TestNewS3ArchiverDisabled(t *testing.T) {
	archiver, err := NewS3Archiver(context.Background(), config.S3Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, archiver)

	_, err = NewS3Archiver(context.Background(), config.S3Config{Enabled: true})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
