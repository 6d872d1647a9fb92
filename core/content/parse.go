package content

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// newRenderer allows raw HTML in bodies: files are author-written.
func newRenderer() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

// splitFrontmatter separates the block between the leading and closing
// "---" lines from the body. A file not starting with "---" is all body.
func splitFrontmatter(src []byte) (meta []byte, body []byte, err error) {
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))

	first, rest, found := bytes.Cut(src, []byte("\n"))
	if string(bytes.TrimSpace(first)) != delimiter {
		return nil, src, nil
	}
	if !found {
		return nil, nil, errors.New("unterminated frontmatter")
	}

	var off int
	for off <= len(rest) {
		line := rest[off:]
		end := bytes.IndexByte(line, '\n')
		if end >= 0 {
			line = line[:end]
		}

		if string(bytes.TrimSpace(line)) == delimiter {
			meta = rest[:off]
			if end < 0 {
				return meta, nil, nil
			}
			return meta, rest[off+end+1:], nil
		}

		if end < 0 {
			break
		}
		off += end + 1
	}

	return nil, nil, errors.New("unterminated frontmatter")
}

func parse(md goldmark.Markdown, slug string, src []byte) (Item, error) {
	meta, body, err := splitFrontmatter(src)
	if err != nil {
		return Item{}, err
	}

	var fm Frontmatter
	if len(bytes.TrimSpace(meta)) > 0 {
		if err := yaml.Unmarshal(meta, &fm); err != nil {
			return Item{}, fmt.Errorf("invalid frontmatter: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return Item{}, fmt.Errorf("rendering markdown: %w", err)
	}

	return Item{
		Slug:        slug,
		Frontmatter: fm,
		Content:     buf.String(),
	}, nil
}
