package content

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Item is one parsed markdown file. Content holds the rendered HTML.
type Item struct {
	Slug        string      `json:"slug"`
	Frontmatter Frontmatter `json:"frontmatter"`
	Content     string      `json:"content"`
}

// Frontmatter is the fixed metadata schema. Keys outside the schema are
// kept in Extra.
type Frontmatter struct {
	Title       string         `json:"title"`
	Date        *time.Time     `json:"date,omitempty"`
	Description string         `json:"description,omitempty"`
	Thumbnail   string         `json:"thumbnail,omitempty"`
	Published   *bool          `json:"published,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// IsPublished is false only when the file explicitly sets published: false.
func (f Frontmatter) IsPublished() bool {
	return f.Published == nil || *f.Published
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (f *Frontmatter) UnmarshalYAML(n *yaml.Node) error {
	var raw struct {
		Title       string         `yaml:"title"`
		Date        string         `yaml:"date"`
		Description string         `yaml:"description"`
		Thumbnail   string         `yaml:"thumbnail"`
		Published   *bool          `yaml:"published"`
		Extra       map[string]any `yaml:",inline"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}

	*f = Frontmatter{
		Title:       raw.Title,
		Description: raw.Description,
		Thumbnail:   raw.Thumbnail,
		Published:   raw.Published,
	}
	if len(raw.Extra) > 0 {
		f.Extra = raw.Extra
	}

	if raw.Date != "" {
		d, err := parseDate(raw.Date)
		if err != nil {
			return err
		}
		f.Date = &d
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
