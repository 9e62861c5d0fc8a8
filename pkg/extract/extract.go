package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// Text extracts plain text from an uploaded document. Unsupported content
// types yield a placeholder string rather than an error so ingestion still
// records the upload.
func Text(data []byte, contentType, filename string) (string, error) {
	switch {
	case contentType == "application/pdf":
		return pdfText(data)
	case contentType == "text/html" || strings.HasSuffix(filename, ".html") || strings.HasSuffix(filename, ".htm"):
		return htmlText(data)
	case strings.HasPrefix(contentType, "text/"):
		return string(data), nil
	case contentType == "application/json":
		return string(data), nil
	case strings.Contains(contentType, "markdown") || strings.HasSuffix(filename, ".md"):
		return string(data), nil
	default:
		return fmt.Sprintf("Document %s - extraction not implemented", contentType), nil
	}
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

func htmlText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}

	return strings.Join(strings.Fields(text), " "), nil
}

// Summarize builds a short head summary of extracted text, prepending the
// first line that looks like a title when one exists.
func Summarize(content string) string {
	runes := []rune(content)
	if len(runes) <= 200 {
		return content
	}

	summary := string(runes[:200]) + "..."

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) >= 100 {
			continue
		}
		if strings.ContainsAny(line, "#=-*") {
			summary = line + " - " + summary
			break
		}
	}

	return summary
}
