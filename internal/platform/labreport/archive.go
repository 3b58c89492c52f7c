package labreport

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/fanscosa/cosa-web/internal/platform/blobstore"
)

// Archiver keeps a copy of every printed report.
type Archiver struct {
	store blobstore.BlobStore
}

func NewArchiver(store blobstore.BlobStore) *Archiver {
	return &Archiver{store: store}
}

// Archive stores the rendered HTML under the patient's report prefix.
func (a *Archiver) Archive(ctx context.Context, patientID, labNumber, printedBy string, html []byte) (*blobstore.BlobMetadata, error) {
	name := strings.ReplaceAll(labNumber, "/", "-")
	if name == "" {
		name = "report"
	}
	meta, err := a.store.Upload(ctx, blobstore.BlobMetadata{
		FileName:    name + ".html",
		ContentType: "text/html",
		PatientID:   patientID,
		LabNumber:   labNumber,
		Category:    blobstore.CategoryLabReport,
		CreatedBy:   printedBy,
	}, bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("archive report %s: %w", labNumber, err)
	}
	return meta, nil
}
