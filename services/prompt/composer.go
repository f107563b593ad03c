package prompt

import (
	"fmt"
	"strings"

	"github.com/professor-ai/rag-service/models"
)

// Composer merges retrieved documents into a single augmented prompt with
// numbered citation labels. It is pure composition with no I/O.
type Composer struct {
	includeCitations bool
}

// NewComposer creates a new prompt composer. When includeCitations is set the
// composed prompt instructs the downstream LLM to cite sources using the same
// numeric labels.
func NewComposer(includeCitations bool) *Composer {
	return &Composer{includeCitations: includeCitations}
}

// Compose builds an augmented prompt from the original query and the documents
// retrieved for it, in retrieval order so citation numbers stay stable and
// meaningful. With no documents the original query comes back unchanged; this
// fallback keeps the pipeline functional when retrieval yields nothing.
func (c *Composer) Compose(originalQuery string, docs []*models.Document) (string, []*models.Document) {
	if len(docs) == 0 {
		return originalQuery, []*models.Document{}
	}

	var retrieved strings.Builder
	for i, doc := range docs {
		if i > 0 {
			retrieved.WriteString("\n")
		}
		fmt.Fprintf(&retrieved, "[Document %d] %s\n%s\n", i+1, doc.Title, doc.Content)
	}

	var b strings.Builder
	b.WriteString("I need information about the following question:\n")
	b.WriteString(originalQuery)
	b.WriteString("\n\nHere is some relevant information that might help:\n")
	b.WriteString(retrieved.String())
	b.WriteString("\nBased on this information and your knowledge, please provide a comprehensive answer to the question.")
	if c.includeCitations {
		b.WriteString("\nInclude citations to the documents when appropriate using [Document X] notation.")
	}

	return b.String(), docs
}
