package fixture

import "context"

// Item is one unit of a fixture definition: a repository, a file, or a
// build-time command. Every concrete variant provides both operations;
// there is no partial default that fails at call time.
type Item interface {
	// Path is the absolute path the item is associated with. For commands
	// it is the working directory they run in.
	Path() string

	// Materialize performs the item's side effect: write the file, run
	// init/clone, run the tool command. Materializing onto an occupied
	// target is a contract violation reported as a CreationError.
	Materialize(ctx context.Context) error

	// CheckIntegrity independently re-derives the item's expected
	// properties from disk and tool output and compares them to the
	// stored object. Divergence is reported as an IntegrityError.
	CheckIntegrity(ctx context.Context) error
}
