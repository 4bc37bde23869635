package pinning

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

type formField struct {
	name  string
	value string
}

type formFile struct {
	field       string
	filename    string
	contentType string
	content     io.Reader
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody encodes one file part followed by plain form fields.
func multipartBody(file formFile, fields ...formField) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(file.field), quoteEscaper.Replace(file.filename)))
	h.Set("Content-Type", file.contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file.content); err != nil {
		return nil, "", err
	}

	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

// fileBody opens path and encodes it as the single file part of a multipart body.
// Local failures are classified as malformed since retrying cannot fix them.
func fileBody(field, path string, fields ...formField) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", NewErrMalformed(0, fmt.Errorf("failed to open %s: %w", path, err))
	}
	defer f.Close()

	body, contentType, err := multipartBody(formFile{
		field:       field,
		filename:    filepath.Base(path),
		contentType: mediaType(path),
		content:     f,
	}, fields...)
	if err != nil {
		return nil, "", NewErrMalformed(0, fmt.Errorf("failed to encode %s: %w", path, err))
	}
	return body, contentType, nil
}
