package htmlconv

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ErrNoMainContent is returned when the exported page has no main content
// container to convert.
var ErrNoMainContent = errors.New("no main content found")

// headerDatePattern matches human date tokens like "11 Mar 2024" in headers.
var headerDatePattern = regexp.MustCompile(`\d{1,2}\s+[A-Za-z]+\s+\d{4}`)

// Convert turns an exported daily-notes HTML page into structured markdown.
// The page title becomes a level-1 header, content headers keep their levels
// with dates normalized to ISO form, paragraphs become plain text, and task
// lists become markdown checkboxes.
func Convert(r io.Reader) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	if title := findByID(root, "span", "title-text"); title != nil {
		b.WriteString("# " + text(title) + "\n")
	}

	main := findByID(root, "div", "main-content")
	if main == nil {
		return "", ErrNoMainContent
	}

	renderContent(&b, main)
	return b.String(), nil
}

// ConvertFile converts one HTML file and writes the markdown next to it, or
// into outDir when given. Returns the output path.
func ConvertFile(path, outDir string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	markdown, err := Convert(f)
	f.Close()
	if err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var outPath string
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return "", err
		}
		outPath = filepath.Join(outDir, base+".md")
	} else {
		outPath = filepath.Join(filepath.Dir(path), base+".md")
	}

	if err := os.WriteFile(outPath, []byte(markdown), 0644); err != nil {
		return "", err
	}

	logger.Info("converted file", "in", path, "out", outPath)
	return outPath, nil
}

// renderContent walks the content tree in document order and emits markdown
// for headers, paragraphs, and lists.
func renderContent(b *strings.Builder, n *html.Node) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			switch child.Data {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				level := int(child.Data[1] - '0')
				header := normalizeHeaderDates(text(child))
				b.WriteString(strings.Repeat("#", level) + " " + header + "\n")
				continue
			case "p":
				if t := text(child); t != "" {
					b.WriteString(t + "\n\n")
				}
				continue
			case "ul":
				renderList(b, child)
				// Nested lists inside items are rendered by renderList
				continue
			}
		}
		renderContent(b, child)
	}
}

// renderList emits one markdown line per direct list item.
// Items of an inline task list become checkboxes, checked or not.
func renderList(b *strings.Builder, ul *html.Node) {
	isTaskList := hasClass(ul, "inline-task-list")

	for li := ul.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}

		prefix := "-"
		if isTaskList {
			if hasClass(li, "checked") {
				prefix = "- [x]"
			} else {
				prefix = "- [ ]"
			}
		}

		if t := text(li); t != "" {
			b.WriteString(prefix + " " + t + "\n")
		}

		// Render nested lists under this item
		for sub := li.FirstChild; sub != nil; sub = sub.NextSibling {
			if sub.Type == html.ElementNode && sub.Data == "ul" {
				renderList(b, sub)
			}
		}
	}
	b.WriteString("\n")
}

// normalizeHeaderDates rewrites "11 Mar 2024" style dates in a header to ISO
// form. Dates that do not parse are left untouched.
func normalizeHeaderDates(header string) string {
	return headerDatePattern.ReplaceAllStringFunc(header, func(match string) string {
		fields := strings.Fields(match)
		parsed, err := time.Parse("2 Jan 2006", strings.Join(fields, " "))
		if err != nil {
			return match
		}
		return parsed.Format("2006-01-02")
	})
}

// findByID finds the first element with the given tag and id attribute.
func findByID(n *html.Node, tag, id string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByID(child, tag, id); found != nil {
			return found
		}
	}
	return nil
}

// hasClass reports whether an element's class attribute contains the value.
func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// text collects an element's text content with whitespace collapsed.
func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
