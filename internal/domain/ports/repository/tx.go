package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repository calls. The
// concrete type is infra-defined (pgx.Tx for Postgres). Repositories MUST
// accept a nil handle and fall back to their non-transactional path.
type Tx interface{}

// NoTX marks an explicitly non-transactional call site.
var NoTX Tx

// TransactionManager executes a function within a database transaction,
// passing the transaction handle to repositories via Tx. Keeping the handle
// opaque stops storage types from leaking into use-case signatures while
// still letting repositories run SELECT ... FOR UPDATE inside a tx.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
