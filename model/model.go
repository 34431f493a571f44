package model

// Summary holds the results of an operation for display.
type Summary struct {
	Modified   []string // files whose attributes changed
	Unchanged  []string // files saved with no effective change
	Skipped    []string // files whose block was removed from the edited text
	Failed     []string
	Operations []string // backend calls a dry run would have issued
	Message    string
}

// Empty reports whether the summary carries nothing worth displaying.
func (s Summary) Empty() bool {
	return len(s.Modified) == 0 && len(s.Unchanged) == 0 && len(s.Skipped) == 0 &&
		len(s.Failed) == 0 && len(s.Operations) == 0 && s.Message == ""
}
