package logging

import (
	"log/slog"

	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/txn"
)

// WithTx creates a logger with transaction context.
// Use this to automatically include transaction ID in all logs.
//
// Example:
//
//	log := logging.WithTx(tx.ID())
//	log.Info("starting operation")
//	log.Debug("processing", "tuples", count)
func WithTx(id *txn.ID) *slog.Logger {
	return GetLogger().With("tx_id", id.Value())
}

// WithEntity creates a logger with entity context.
// Use this for catalogue and entity operations.
//
// Example:
//
//	log := logging.WithEntity("warehouse.products")
//	log.Info("entity operation", "action", "create")
func WithEntity(entityName string) *slog.Logger {
	return GetLogger().With("entity", entityName)
}

// WithEntityTx creates a logger with both transaction and entity context.
//
// Example:
//
//	log := logging.WithEntityTx(tx.ID(), "warehouse.orders")
//	log.Info("inserting tuples", "count", 10)
func WithEntityTx(id *txn.ID, entityName string) *slog.Logger {
	return GetLogger().With("tx_id", id.Value(), "entity", entityName)
}

// WithColumn creates a logger with column context.
//
// Example:
//
//	log := logging.WithColumn("warehouse.products.price")
//	log.Debug("column scan", "tuples", count)
func WithColumn(columnName string) *slog.Logger {
	return GetLogger().With("column", columnName)
}

// WithIndex creates a logger with index context.
//
// Example:
//
//	log := logging.WithIndex("idx_user_email")
//	log.Debug("index lookup", "key", email)
func WithIndex(indexName string) *slog.Logger {
	return GetLogger().With("index", indexName)
}

// WithPage creates a logger with page context.
// Useful for buffer pool and disk manager operations.
//
// Example:
//
//	log := logging.WithPage(pageID)
//	log.Debug("page pinned", "dirty", isDirty)
func WithPage(pageID primitives.PageID) *slog.Logger {
	return GetLogger().With("page_id", uint64(pageID))
}

// WithLock creates a logger with lock context.
//
// Example:
//
//	log := logging.WithLock(tx.ID(), "warehouse.products")
//	log.Info("lock acquired", "lock_type", "exclusive")
func WithLock(id *txn.ID, resource string) *slog.Logger {
	return GetLogger().With("tx_id", id.Value(), "resource", resource)
}

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("catalogue")
//	log.Info("component initialized")
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithError creates a logger with error context.
// Use this when logging errors to include the error in structured format.
//
// Example:
//
//	log := logging.WithError(err)
//	log.Error("operation failed", "operation", "insert")
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
