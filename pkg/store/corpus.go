// Package store persists filings, section artifacts, count tables and
// run records on the local filesystem and in SQLite.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coolbeans/mdatool/pkg/filing"
)

// FilingExtension is the extension of downloaded filing text files.
const FilingExtension = ".txt"

// Corpus is a directory of filing text files named by identifier.
type Corpus struct {
	dir      string
	encoding filing.Encoding
}

// NewCorpus creates a Corpus over dir. Files are decoded with sourceEncoding.
func NewCorpus(dir string, sourceEncoding filing.Encoding) *Corpus {
	if sourceEncoding == "" {
		sourceEncoding = filing.EncodingUTF8
	}
	return &Corpus{dir: dir, encoding: sourceEncoding}
}

// Dir returns the corpus directory.
func (corpus *Corpus) Dir() string {
	return corpus.dir
}

// List returns the identifiers of all filings in the directory, sorted.
func (corpus *Corpus) List() ([]string, error) {
	entries, err := os.ReadDir(corpus.dir)
	if err != nil {
		return nil, fmt.Errorf("listing corpus %s: %w", corpus.dir, err)
	}

	var identifiers []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), FilingExtension) {
			continue
		}
		identifiers = append(identifiers, entry.Name())
	}
	sort.Strings(identifiers)

	return identifiers, nil
}

// Load reads and decodes one filing. The identifier is taken relative to
// the corpus directory.
func (corpus *Corpus) Load(ctx context.Context, identifier string) (filing.Document, error) {
	if err := ctx.Err(); err != nil {
		return filing.Document{}, err
	}

	data, err := os.ReadFile(filepath.Join(corpus.dir, filepath.Base(identifier)))
	if err != nil {
		return filing.Document{}, fmt.Errorf("reading %s: %w", identifier, err)
	}

	return filing.NewDocument(identifier, data, corpus.encoding)
}

// Contains reports whether a filing with the identifier is present.
func (corpus *Corpus) Contains(identifier string) bool {
	info, err := os.Stat(filepath.Join(corpus.dir, filepath.Base(identifier)))
	return err == nil && !info.IsDir()
}
