package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/mvp-joe/phpscan/internal/symbols"
)

// SymbolIndex is an in-memory full-text index over every declared symbol in
// a populated table: classes, interfaces, traits, enums and functions. It
// answers ranked name searches for the php_symbol_search tool.
type SymbolIndex struct {
	mu    sync.RWMutex // protects index during rebuilds
	index bleve.Index
	built bool
}

// NewSymbolIndex creates an empty index. Searches return no hits until the
// first Rebuild.
func NewSymbolIndex() (*SymbolIndex, error) {
	index, err := bleve.NewMemOnly(buildSymbolMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create symbol index: %w", err)
	}
	return &SymbolIndex{index: index}, nil
}

// buildSymbolMapping creates the index mapping for symbol documents. Name
// fields use the standard analyzer so namespace segments match separately;
// kind uses the keyword analyzer for exact filtering.
func buildSymbolMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	fqnMapping := bleve.NewTextFieldMapping()
	fqnMapping.Analyzer = "standard"
	fqnMapping.Store = true
	fqnMapping.Index = true

	nameMapping := bleve.NewTextFieldMapping()
	nameMapping.Analyzer = "standard"
	nameMapping.Store = true
	nameMapping.Index = true

	kindMapping := bleve.NewTextFieldMapping()
	kindMapping.Analyzer = "keyword"
	kindMapping.Store = true
	kindMapping.Index = true

	fileMapping := bleve.NewTextFieldMapping()
	fileMapping.Analyzer = "standard"
	fileMapping.Store = true
	fileMapping.Index = true

	lineMapping := bleve.NewNumericFieldMapping()
	lineMapping.Store = true
	lineMapping.Index = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("fqn", fqnMapping)
	docMapping.AddFieldMappingsAt("name", nameMapping)
	docMapping.AddFieldMappingsAt("kind", kindMapping)
	docMapping.AddFieldMappingsAt("file", fileMapping)
	docMapping.AddFieldMappingsAt("line", lineMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Rebuild replaces the index contents with the table's current symbols.
// The new index is built off to the side and swapped in, so concurrent
// searches never observe a half-indexed state.
func (ix *SymbolIndex) Rebuild(ctx context.Context, table *symbols.Table) error {
	if table == nil {
		return fmt.Errorf("no symbol table to index")
	}

	next, err := bleve.NewMemOnly(buildSymbolMapping())
	if err != nil {
		return fmt.Errorf("failed to create symbol index: %w", err)
	}
	if err := indexSymbols(ctx, next, table); err != nil {
		next.Close()
		return fmt.Errorf("failed to index symbols: %w", err)
	}

	ix.mu.Lock()
	old := ix.index
	ix.index = next
	ix.built = true
	ix.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// Built reports whether the index has been populated at least once.
func (ix *SymbolIndex) Built() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.built
}

// indexSymbols adds every class and function to the index in batches.
func indexSymbols(ctx context.Context, index bleve.Index, table *symbols.Table) error {
	const batchSize = 1000

	batch := index.NewBatch()
	flush := func() error {
		if batch.Size() == 0 {
			return nil
		}
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute batch: %w", err)
		}
		batch = index.NewBatch()
		return nil
	}

	docs := 0
	add := func(id string, doc map[string]interface{}) error {
		if docs%batchSize == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		docs++
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("failed to add %s to batch: %w", id, err)
		}
		if batch.Size() >= batchSize {
			return flush()
		}
		return nil
	}

	for _, info := range table.AllClasses() {
		doc := map[string]interface{}{
			"fqn":  info.FullName,
			"name": info.Name,
			"kind": info.Kind.String(),
			"file": info.File,
			"line": info.Line,
		}
		if err := add(classDocID(info.FullName), doc); err != nil {
			return err
		}
	}
	for _, info := range table.AllFunctions() {
		doc := map[string]interface{}{
			"fqn":  info.FullName,
			"name": info.Name,
			"kind": "function",
			"file": info.File,
			"line": info.Line,
		}
		if err := add(functionDocID(info.FullName), doc); err != nil {
			return err
		}
	}

	return flush()
}

// Document IDs carry a kind prefix: PHP allows a class and a function to
// share a fully-qualified name.

func classDocID(fqn string) string {
	return "class:" + strings.ToLower(fqn)
}

func functionDocID(fqn string) string {
	return "function:" + strings.ToLower(fqn)
}

// Search executes a ranked name search using bleve query string syntax.
// An empty kind searches all symbol kinds.
func (ix *SymbolIndex) Search(ctx context.Context, queryStr, kind string, limit int) ([]SymbolHit, error) {
	if limit <= 0 || limit > 100 {
		limit = 15
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.index == nil {
		return nil, fmt.Errorf("symbol index is closed")
	}

	queries := []query.Query{bleve.NewQueryStringQuery(queryStr)}
	if kind != "" {
		kindQuery := bleve.NewMatchQuery(kind)
		kindQuery.SetField("kind")
		queries = append(queries, kindQuery)
	}

	var finalQuery query.Query
	if len(queries) == 1 {
		finalQuery = queries[0]
	} else {
		finalQuery = bleve.NewConjunctionQuery(queries...)
	}

	searchRequest := bleve.NewSearchRequestOptions(finalQuery, limit, 0, false)
	searchRequest.Fields = []string{"fqn", "name", "kind", "file", "line"}

	searchResult, err := ix.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("symbol search failed: %w", err)
	}

	results := make([]SymbolHit, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		fqn, _ := hit.Fields["fqn"].(string)
		name, _ := hit.Fields["name"].(string)
		hitKind, _ := hit.Fields["kind"].(string)
		file, _ := hit.Fields["file"].(string)

		line := 0
		if f, ok := hit.Fields["line"].(float64); ok {
			line = int(f)
		}

		results = append(results, SymbolHit{
			FQN:   fqn,
			Name:  name,
			Kind:  hitKind,
			File:  file,
			Line:  line,
			Score: hit.Score,
		})
	}
	return results, nil
}

// Close releases the index.
func (ix *SymbolIndex) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.index != nil {
		err := ix.index.Close()
		ix.index = nil
		return err
	}
	return nil
}
