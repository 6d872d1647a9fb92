package course

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type Slide struct {
	ID    string         `json:"id" yaml:"id"`
	Title string         `json:"title" yaml:"title"`
	Video string         `json:"video,omitempty" yaml:"video"`
	Extra map[string]any `json:"extra,omitempty" yaml:",inline"`
}

type Chapter struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title" yaml:"title"`
	Part   int     `json:"part" yaml:"part"`
	Slides []Slide `json:"slides" yaml:"slides"`
}

// Catalog is the read-only chapter list of the course.
type Catalog struct {
	chapters []Chapter
	byID     map[string]int
	bySlide  map[string][]int
}

// Load reads a YAML document of the form {chapters: [...]}.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc struct {
		Chapters []Chapter `yaml:"chapters"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return New(doc.Chapters)
}

// New orders chapters by part, keeping input order within a part.
func New(chapters []Chapter) (*Catalog, error) {
	cs := make([]Chapter, len(chapters))
	copy(cs, chapters)
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Part < cs[j].Part })

	c := &Catalog{
		chapters: cs,
		byID:     make(map[string]int, len(cs)),
		bySlide:  make(map[string][]int),
	}

	for i, ch := range cs {
		if ch.ID == "" {
			return nil, errors.New("chapter without id")
		}
		if _, dup := c.byID[ch.ID]; dup {
			return nil, fmt.Errorf("duplicate chapter id %q", ch.ID)
		}
		c.byID[ch.ID] = i

		seen := make(map[string]bool, len(ch.Slides))
		for _, s := range ch.Slides {
			if s.ID == "" {
				return nil, fmt.Errorf("chapter %q has a slide without id", ch.ID)
			}
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			c.bySlide[s.ID] = append(c.bySlide[s.ID], i)
		}
	}

	return c, nil
}

func (c *Catalog) Chapters() []Chapter {
	out := make([]Chapter, len(c.chapters))
	copy(out, c.chapters)
	return out
}

func (c *Catalog) Chapter(id string) (Chapter, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Chapter{}, false
	}
	return c.chapters[i], true
}

// ChaptersContaining lists every chapter that has the slide. A slide may
// be shared between chapters.
func (c *Catalog) ChaptersContaining(slideID string) []Chapter {
	idx := c.bySlide[slideID]
	out := make([]Chapter, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.chapters[i])
	}
	return out
}

func (c *Catalog) HasSlide(slideID string) bool {
	return len(c.bySlide[slideID]) > 0
}
