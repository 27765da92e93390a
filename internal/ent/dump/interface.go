package dump

// Dumper is the interface that wraps the Dump method.
type Dumper interface {
	// Dump dumps the legacy catalog from MySQL to CSV files.
	Dump() error
}
