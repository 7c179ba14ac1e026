package domain

// CorpusChange is one debounced batch of corpus mutations observed by a
// watcher. A document appears in at most one of the two lists.
type CorpusChange struct {
	// Changed lists documents created or modified since the last batch.
	Changed []string

	// Removed lists documents deleted since the last batch.
	Removed []string
}

// Empty reports whether the batch carries no mutations.
func (c CorpusChange) Empty() bool {
	return len(c.Changed) == 0 && len(c.Removed) == 0
}
