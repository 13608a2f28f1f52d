package writer

import (
	"context"

	"quoteflow/models"
)

// Sink accepts one batch of Records per call. A batch is either stored
// whole or reported as failed; there are no partial-batch semantics and no
// retry. Implementations must be safe for concurrent use, since the polling
// and chat paths write independently.
type Sink interface {
	Write(ctx context.Context, batch []models.Record) error
}
