package build

// Builder is the interface that wraps the Build method.
type Builder interface {
	// Build imports data from CSV files to a store.
	Build() error
}
