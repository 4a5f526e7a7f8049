package services

import (
	"sort"
	"strings"

	"github.com/lawyerhours/backend/internal/domain/entities"
)

// PracticeAreaClassifier tags businesses with practice areas by keyword.
// The keyword table is built once and never modified, so a classifier is
// safe for concurrent use.
type PracticeAreaClassifier struct {
	areas []classifierArea
}

type classifierArea struct {
	slug     string
	keywords []string
}

// NewPracticeAreaClassifier builds a classifier over the given taxonomy.
func NewPracticeAreaClassifier(areas []entities.PracticeArea) *PracticeAreaClassifier {
	c := &PracticeAreaClassifier{areas: make([]classifierArea, 0, len(areas))}
	for _, area := range areas {
		entry := classifierArea{slug: area.Slug}
		for _, keyword := range area.Keywords {
			if keyword = strings.ToLower(strings.TrimSpace(keyword)); keyword != "" {
				entry.keywords = append(entry.keywords, keyword)
			}
		}
		if len(entry.keywords) > 0 {
			c.areas = append(c.areas, entry)
		}
	}
	return c
}

// Classify returns the sorted set of area slugs matched by any input.
func (c *PracticeAreaClassifier) Classify(inputs ...string) []string {
	return c.ClassifyWithTags(nil, inputs...)
}

// ClassifyWithTags unions keyword matches with tags already known from the
// query context. The result is never empty.
func (c *PracticeAreaClassifier) ClassifyWithTags(tags []string, inputs ...string) []string {
	matched := make(map[string]struct{})

	for _, input := range inputs {
		text := strings.ToLower(input)
		if text == "" {
			continue
		}
		for _, area := range c.areas {
			for _, keyword := range area.keywords {
				if strings.Contains(text, keyword) {
					matched[area.slug] = struct{}{}
					break
				}
			}
		}
	}

	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			matched[tag] = struct{}{}
		}
	}

	if len(matched) == 0 {
		return []string{entities.GeneralPracticeArea}
	}

	slugs := make([]string, 0, len(matched))
	for slug := range matched {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
