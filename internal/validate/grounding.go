package validate

import (
	"strings"

	"github.com/hyperjump/triage/internal/lexicon"
	"github.com/hyperjump/triage/internal/models"
)

// Grounding resolves names the oracle produced against what the user actually has.
// Lookups are accent- and case-insensitive and follow learned aliases.
type Grounding struct {
	projects map[string]string
	tags     map[string]string
	people   map[string]string
}

// NewGrounding indexes active projects, tags, team members, learned entities and the
// profile vocabulary. Learned project and tag aliases only resolve to names that are
// still active; learned people are accepted as they are.
func NewGrounding(projects, tags, members []string, entities []models.LearnedEntity, vocabulary map[string]string) *Grounding {
	g := &Grounding{
		projects: make(map[string]string),
		tags:     make(map[string]string),
		people:   make(map[string]string),
	}
	for _, p := range projects {
		g.projects[key(p)] = p
	}
	for _, t := range tags {
		g.tags[key(t)] = t
	}
	for _, m := range members {
		g.people[key(m)] = m
	}
	for _, e := range entities {
		var target map[string]string
		switch e.Type {
		case models.EntityProject:
			target = g.projects
		case models.EntityTag:
			target = g.tags
		case models.EntityPerson:
			target = g.people
			if _, ok := target[key(e.Name)]; !ok {
				target[key(e.Name)] = e.Name
			}
		default:
			continue
		}
		canonical, ok := target[key(e.Name)]
		if !ok {
			continue
		}
		for _, a := range e.Aliases {
			if _, taken := target[key(a)]; !taken {
				target[key(a)] = canonical
			}
		}
	}
	for alias, name := range vocabulary {
		for _, target := range []map[string]string{g.projects, g.tags, g.people} {
			if canonical, ok := target[key(name)]; ok {
				if _, taken := target[key(alias)]; !taken {
					target[key(alias)] = canonical
				}
			}
		}
	}
	return g
}

func key(s string) string {
	return lexicon.Fold(strings.TrimPrefix(strings.TrimSpace(s), "#"))
}

func lookup(m map[string]string, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	v, ok := m[key(name)]
	return v, ok
}

// Project returns the canonical active project for name.
func (g *Grounding) Project(name string) (string, bool) {
	if g == nil {
		return "", false
	}
	return lookup(g.projects, name)
}

// Tag returns the canonical tag for name.
func (g *Grounding) Tag(name string) (string, bool) {
	if g == nil {
		return "", false
	}
	return lookup(g.tags, name)
}

// Person returns the canonical team member or learned person for name.
func (g *Grounding) Person(name string) (string, bool) {
	if g == nil {
		return "", false
	}
	return lookup(g.people, name)
}
