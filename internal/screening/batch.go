package screening

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Document is one uploaded résumé. Name should be unique within a batch.
type Document struct {
	Name    string
	Content []byte
}

// Batch is everything one screening run needs. It replaces any process-wide
// session state: each run gets its own Batch and returns its own Results.
type Batch struct {
	RunID          string
	JobDescription string
	Documents      []Document
}

// NewBatch assigns a fresh run id.
func NewBatch(job string, docs []Document) *Batch {
	return &Batch{RunID: uuid.NewString(), JobDescription: job, Documents: docs}
}

// Content returns the bytes stored under name. With duplicate names the last one wins.
func (b *Batch) Content(name string) ([]byte, bool) {
	for i := len(b.Documents) - 1; i >= 0; i-- {
		if b.Documents[i].Name == name {
			return b.Documents[i].Content, true
		}
	}
	return nil, false
}

func (b *Batch) validate() error {
	if b == nil {
		return errors.New("batch is required")
	}
	if strings.TrimSpace(b.JobDescription) == "" {
		return errors.New("job description is empty")
	}
	if len(b.Documents) == 0 {
		return errors.New("no documents to screen")
	}
	return nil
}
