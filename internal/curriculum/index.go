// Package curriculum holds the read-only table of textbook chapter titles
// used to corroborate chapters a learner mentions. Lookups are advisory: a
// missing entry means the title is unknown, not that the learner is wrong.
package curriculum

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	MinGrade = 1
	MaxGrade = 10
)

//go:embed curriculum.yaml
var embeddedTable []byte

// Entry is one chapter of one textbook.
type Entry struct {
	Grade   int    `json:"grade"`
	Subject string `json:"subject"`
	Medium  Medium `json:"medium"`
	Chapter int    `json:"chapter"`
	Title   string `json:"title"`
}

// Index maps grade → subject → medium → chapter → title.
// It is never modified after Load returns.
type Index struct {
	titles map[int]map[string]map[Medium]map[int]string
	size   int
}

type bookDoc struct {
	Grade    int            `yaml:"grade"`
	Subject  string         `yaml:"subject"`
	Medium   string         `yaml:"medium"`
	Chapters map[int]string `yaml:"chapters"`
}

// Default returns the index built from the table compiled into the binary.
func Default() *Index {
	idx, err := Load(bytes.NewReader(embeddedTable))
	if err != nil {
		panic(fmt.Sprintf("embedded curriculum table is invalid: %v", err))
	}
	return idx
}

// LoadFile reads a curriculum table from disk.
func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open curriculum: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a YAML list of textbooks. A repeated
// (grade, subject, medium, chapter) key is an error.
func Load(r io.Reader) (*Index, error) {
	var books []bookDoc
	if err := yaml.NewDecoder(r).Decode(&books); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode curriculum: %w", err)
	}

	idx := &Index{titles: make(map[int]map[string]map[Medium]map[int]string)}
	for i, b := range books {
		if b.Grade < MinGrade || b.Grade > MaxGrade {
			return nil, fmt.Errorf("book %d: grade %d out of range", i, b.Grade)
		}
		subject := strings.TrimSpace(b.Subject)
		if subject == "" {
			return nil, fmt.Errorf("book %d: subject is required", i)
		}
		medium, err := ParseMedium(b.Medium)
		if err != nil {
			return nil, fmt.Errorf("book %d: %w", i, err)
		}
		for ch, title := range b.Chapters {
			if err := idx.add(Entry{Grade: b.Grade, Subject: subject, Medium: medium, Chapter: ch, Title: title}); err != nil {
				return nil, err
			}
		}
	}
	return idx, nil
}

func (x *Index) add(e Entry) error {
	bySubject, ok := x.titles[e.Grade]
	if !ok {
		bySubject = make(map[string]map[Medium]map[int]string)
		x.titles[e.Grade] = bySubject
	}
	byMedium, ok := bySubject[e.Subject]
	if !ok {
		byMedium = make(map[Medium]map[int]string)
		bySubject[e.Subject] = byMedium
	}
	byChapter, ok := byMedium[e.Medium]
	if !ok {
		byChapter = make(map[int]string)
		byMedium[e.Medium] = byChapter
	}
	if _, dup := byChapter[e.Chapter]; dup {
		return fmt.Errorf("duplicate chapter: class %d %s (%s) chapter %d", e.Grade, e.Subject, e.Medium, e.Chapter)
	}
	byChapter[e.Chapter] = e.Title
	x.size++
	return nil
}

// Lookup returns the expected chapter title. The second result is false when
// the table has no entry for the key.
func (x *Index) Lookup(grade int, subject string, medium Medium, chapter int) (string, bool) {
	if x == nil {
		return "", false
	}
	title, ok := x.titles[grade][subject][medium][chapter]
	return title, ok
}

// LookupText is Lookup for unparsed input. Anything that does not parse is
// treated as an unknown title rather than an error.
func (x *Index) LookupText(grade, subject, medium, chapter string) (string, bool) {
	g, err := strconv.Atoi(strings.TrimSpace(grade))
	if err != nil {
		return "", false
	}
	c, err := strconv.Atoi(strings.TrimSpace(chapter))
	if err != nil {
		return "", false
	}
	m, err := ParseMedium(medium)
	if err != nil {
		return "", false
	}
	return x.Lookup(g, strings.TrimSpace(subject), m, c)
}

// Len is the number of chapters in the table.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return x.size
}

// Entries lists every chapter ordered by grade, subject, medium and chapter.
func (x *Index) Entries() []Entry {
	if x == nil {
		return nil
	}
	out := make([]Entry, 0, x.size)
	for g, bySubject := range x.titles {
		for s, byMedium := range bySubject {
			for m, byChapter := range byMedium {
				for c, title := range byChapter {
					out = append(out, Entry{Grade: g, Subject: s, Medium: m, Chapter: c, Title: title})
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Grade != b.Grade {
			return a.Grade < b.Grade
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Medium != b.Medium {
			return a.Medium < b.Medium
		}
		return a.Chapter < b.Chapter
	})
	return out
}
