// Package archive persists finished run results to blob storage
package archive

import (
	"context"
	"encoding/json"
	"errors"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

// BlobArchiver writes run results to a gocloud.dev/blob bucket,
// supporting S3, GCS, Azure Blob Storage, and S3-compatible stores
type BlobArchiver struct {
	bucket *blob.Bucket
	prefix string
}

var ErrResultNotFound = errors.New("archived result not found")

// NewBlobArchiver opens the bucket at the given URL. Keys are laid out
// as <prefix><workflowID>/<runID>.json
func NewBlobArchiver(
	ctx context.Context, bucketURL, prefix string,
) (*BlobArchiver, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return &BlobArchiver{bucket: bucket, prefix: prefix}, nil
}

// Archive writes the run result as JSON
func (a *BlobArchiver) Archive(
	ctx context.Context, res *api.WorkflowResult,
) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return a.bucket.WriteAll(ctx, a.keyFor(res.WorkflowID, res.RunID),
		data, nil)
}

// Fetch reads back an archived run result
func (a *BlobArchiver) Fetch(
	ctx context.Context, workflowID api.ID, runID api.RunID,
) (*api.WorkflowResult, error) {
	data, err := a.bucket.ReadAll(ctx, a.keyFor(workflowID, runID))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrResultNotFound
		}
		return nil, err
	}

	var res api.WorkflowResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Close releases the bucket handle
func (a *BlobArchiver) Close() error {
	return a.bucket.Close()
}

func (a *BlobArchiver) keyFor(workflowID api.ID, runID api.RunID) string {
	return a.prefix + string(workflowID) + "/" + string(runID) + ".json"
}
