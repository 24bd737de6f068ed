// Package index provides per-user full-text search over persisted items using Bleve.
package index

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/triage/internal/lexicon"
	"github.com/hyperjump/triage/internal/models"
)

// Hit is a single search result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// SearchOptions tune a search. Nil means exact term matching.
type SearchOptions struct {
	// FuzzyEnabled matches terms within Fuzziness edits (typos in dictated text).
	FuzzyEnabled bool
	Fuzziness    int // default: 1
	// TitleBoost weights matches in item text and note titles over content.
	TitleBoost float64 // default: 2
}

// ItemIndex indexes items for search.
type ItemIndex interface {
	IndexItem(ctx context.Context, userID string, item *models.Item) error
	Search(ctx context.Context, userID, query string, limit int, opts *SearchOptions) ([]Hit, error)
	Delete(ctx context.Context, id string) error
	DocCount() (uint64, error)
	Close() error
}

// document is the indexed form of an item. Searchable fields hold accent-folded text.
type document struct {
	UserID  string `json:"user_id"`
	Kind    string `json:"kind"`
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"`
	People  string `json:"people"`
}

// BleveIndex implements ItemIndex.
type BleveIndex struct {
	index bleve.Index
}

func newMapping() *bleve.IndexMapping {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", text)
	docMapping.AddFieldMappingsAt("content", text)
	docMapping.AddFieldMappingsAt("people", text)

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("user_id", exact)
	docMapping.AddFieldMappingsAt("kind", exact)
	docMapping.AddFieldMappingsAt("date", exact)

	im.AddDocumentMapping("item", docMapping)
	im.DefaultType = "item"
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex creates or opens a Bleve index at path.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemoryIndex creates an in-memory index.
func NewMemoryIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// IndexItem indexes a persisted item under its ID.
func (b *BleveIndex) IndexItem(ctx context.Context, userID string, item *models.Item) error {
	if item.ID == "" {
		return fmt.Errorf("index item: missing id")
	}
	title := item.Title
	if item.Kind != models.KindNote {
		title = item.Label()
	}
	content := []string{item.Content}
	if item.Location != nil {
		content = append(content, *item.Location)
	}
	if item.Project != nil {
		content = append(content, *item.Project)
	}
	content = append(content, item.Tags...)

	doc := document{
		UserID:  userID,
		Kind:    string(item.Kind),
		Date:    item.Date,
		Title:   lexicon.Fold(title),
		Content: lexicon.Fold(strings.Join(content, " ")),
		People:  lexicon.Fold(strings.Join(item.Metadata.People, " ")),
	}
	return b.index.Index(item.ID, doc)
}

// Search returns up to limit of the user's items matching query, best first.
func (b *BleveIndex) Search(ctx context.Context, userID, query string, limit int, opts *SearchOptions) ([]Hit, error) {
	terms := lexicon.Tokenize(query)
	if len(terms) == 0 {
		return []Hit{}, nil
	}
	fuzzy, fuzziness, titleBoost := false, 1, 2.0
	if opts != nil {
		fuzzy = opts.FuzzyEnabled
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
		if opts.TitleBoost > 0 {
			titleBoost = opts.TitleBoost
		}
	}

	fields := map[string]float64{"title": titleBoost, "content": 1, "people": 1}
	var should []blevequery.Query
	for field, boost := range fields {
		for _, term := range terms {
			if fuzzy {
				q := bleve.NewFuzzyQuery(term)
				q.SetFuzziness(fuzziness)
				q.SetField(field)
				q.SetBoost(boost)
				should = append(should, q)
				continue
			}
			q := bleve.NewMatchQuery(term)
			q.SetField(field)
			q.SetBoost(boost)
			should = append(should, q)
		}
	}

	owner := bleve.NewTermQuery(userID)
	owner.SetField("user_id")
	q := bleve.NewConjunctionQuery(owner, bleve.NewDisjunctionQuery(should...))

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	hits := make([]Hit, len(results.Hits))
	for i, h := range results.Hits {
		hits[i] = Hit{ID: h.ID, Score: h.Score}
	}
	return hits, nil
}

// Delete removes an item from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the number of indexed items.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

var _ ItemIndex = (*BleveIndex)(nil)
