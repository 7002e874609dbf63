// Package checkpoint persists reader execution contexts between job runs.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Alp4ka/pagereader"
)

// Store loads and saves the execution context of a job. Loading a job that
// was never saved returns an empty context, not an error.
type Store interface {
	Load(ctx context.Context, job string) (pagereader.ExecutionContext, error)
	Save(ctx context.Context, job string, ec pagereader.ExecutionContext) error
	Close() error
}

func encode(ec pagereader.ExecutionContext) ([]byte, error) {
	if ec == nil {
		ec = pagereader.ExecutionContext{}
	}

	data, err := json.Marshal(ec)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal execution context: %w", err)
	}

	return data, nil
}

func decode(data []byte) (pagereader.ExecutionContext, error) {
	ec := pagereader.ExecutionContext{}
	if err := json.Unmarshal(data, &ec); err != nil {
		return nil, fmt.Errorf("%w: %w", pagereader.ErrInvalidCheckpoint, err)
	}

	return ec, nil
}
