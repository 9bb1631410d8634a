// Package logging provides a process-wide structured logger for Cottontail.
//
// The package wraps [log/slog] and exposes a single global logger instance
// that is initialized once and then retrieved via GetLogger. All subsystems
// should obtain a logger through this package rather than constructing their
// own slog.Logger values, so that log level and output destination are
// controlled from a single place.
//
// # Initialisation
//
// Call InitDefault once at program startup, before any goroutines that
// might call GetLogger are spawned. It writes INFO-level text logs to
// stdout and is safe to call more than once.
//
//	logging.InitDefault()
//
// # Retrieving the logger
//
//	logger := logging.GetLogger()
//	logger.Info("catalogue opened", "root", root)
//
// If GetLogger is called before InitDefault, a default stdout logger is
// created lazily (via sync.Once) so that packages that log during init
// are safe.
//
// # Context helpers
//
// Several helpers return child loggers pre-populated with structured fields,
// reducing repetition in hot paths:
//
//	log := logging.WithTx(tx.ID())          // adds tx_id field
//	log := logging.WithEntity(name)         // adds entity field
//	log := logging.WithColumn(name)         // adds column field
//	log := logging.WithIndex(name)          // adds index field
//	log := logging.WithPage(pageID)         // adds page_id field
package logging
