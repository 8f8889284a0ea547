package database

// DataStore defines the unified interface for all remote document operations.
// Consumers can depend on the smaller interfaces (SectionStore, TaskWriter, ...)
// for better testability and clearer dependencies.
//
// Implementations perform no caching and no retries: every call is one
// side effect against the store, and failures surface as
// models.ErrStoreUnavailable or models.ErrNotFound.
type DataStore interface {
	SectionStore
	TaskStore
}
