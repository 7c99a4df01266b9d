package qrcodec

import (
	"github.com/sourcegraph/conc/iter"
)

// BatchItem is one payload of a batch print run.
type BatchItem struct {
	Data  any    `json:"data"`
	Label string `json:"label,omitempty"`
}

// BatchResult pairs an encoded image with its item's label.
type BatchResult struct {
	DataURL string `json:"dataUrl"`
	Label   string `json:"label,omitempty"`
}

// EncodeBatch encodes all items concurrently. Results keep input order. If any
// item fails, the whole batch fails and no results are returned.
func (e *Encoder) EncodeBatch(items []BatchItem) ([]BatchResult, error) {
	results, err := iter.MapErr(items, func(item *BatchItem) (BatchResult, error) {
		dataURL, err := e.Encode(item.Data)
		if err != nil {
			return BatchResult{}, err
		}
		return BatchResult{DataURL: dataURL, Label: item.Label}, nil
	})
	if err != nil {
		return nil, &EncodingError{Op: "batch", Err: err}
	}
	return results, nil
}
