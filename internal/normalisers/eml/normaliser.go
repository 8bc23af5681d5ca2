// Package eml extracts recruiter emails and forwarded job posts saved
// as .eml files.
package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/normalisers/base"
	"github.com/custodia-labs/qpro/internal/normalisers/html"
	"github.com/custodia-labs/qpro/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// maxParts bounds how many MIME parts are inspected.
const maxParts = 64

// Normaliser handles RFC 5322 messages.
type Normaliser struct{}

// New creates a new EML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"message/rfc822"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".eml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise returns the message body, preferring a text/plain part over
// HTML. Subject, sender and date become candidate metadata; the subject
// also titles the document unless the caller gave one.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, base.ReadError(raw, "EML", err)
	}

	body, err := messageBody(msg)
	if err != nil {
		return nil, base.ReadError(raw, "EML", err)
	}

	subject := decodeHeader(msg.Header.Get("Subject"))
	doc := base.Document(raw, "eml", strings.TrimSpace(body))
	if _, given := raw.Metadata["title"]; !given && subject != "" {
		doc.Title = subject
	}

	fields := map[string]any{}
	for key, header := range map[string]string{"subject": "Subject", "from": "From", "date": "Date"} {
		if v := decodeHeader(msg.Header.Get(header)); v != "" {
			fields[key] = v
		}
	}
	if date, err := msg.Header.Date(); err == nil {
		fields["date"] = date
	}
	return &driven.NormaliseResult{Document: doc, Fields: fields}, nil
}

func decodeHeader(v string) string {
	if v == "" {
		return ""
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(v)
	if err != nil {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(decoded)
}

func messageBody(msg *mail.Message) (string, error) {
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		mediaType = "text/plain"
	}
	encoding := msg.Header.Get("Content-Transfer-Encoding")

	if strings.HasPrefix(mediaType, "multipart/") {
		plain, markup, err := walkParts(msg.Body, params["boundary"])
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(plain) != "" {
			return plain, nil
		}
		return htmlText(markup)
	}

	data, err := io.ReadAll(decodeTransfer(msg.Body, encoding))
	if err != nil {
		return "", err
	}
	if mediaType == "text/html" {
		return htmlText(string(data))
	}
	return plaintext.Decode(data), nil
}

// walkParts collects text/plain and text/html parts, descending into
// nested multiparts. Attachments are skipped.
func walkParts(r io.Reader, boundary string) (plain, markup string, err error) {
	if boundary == "" {
		return "", "", errors.New("multipart message without boundary")
	}

	var plains, htmls []string
	mr := multipart.NewReader(r, boundary)
	for i := 0; i < maxParts; i++ {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", "", fmt.Errorf("reading part: %w", err)
		}

		mediaType, params, perr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if perr != nil {
			mediaType = "text/plain"
		}
		if disp, _, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition")); disp == "attachment" {
			continue
		}

		switch {
		case strings.HasPrefix(mediaType, "multipart/"):
			p, h, err := walkParts(part, params["boundary"])
			if err != nil {
				return "", "", err
			}
			plains = append(plains, p)
			htmls = append(htmls, h)
		case mediaType == "text/plain" || mediaType == "text/html":
			data, err := io.ReadAll(decodeTransfer(part, part.Header.Get("Content-Transfer-Encoding")))
			if err != nil {
				return "", "", fmt.Errorf("reading part: %w", err)
			}
			if mediaType == "text/plain" {
				plains = append(plains, plaintext.Decode(data))
			} else {
				htmls = append(htmls, string(data))
			}
		}
	}
	return strings.Join(plains, "\n"), strings.Join(htmls, "\n"), nil
}

// decodeTransfer undoes a Content-Transfer-Encoding. multipart.Reader
// decodes quoted-printable parts itself and drops the header.
func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

func htmlText(markup string) (string, error) {
	if strings.TrimSpace(markup) == "" {
		return "", nil
	}
	return html.Text([]byte(markup))
}
