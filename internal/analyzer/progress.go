package analyzer

// Progress receives analysis lifecycle callbacks. Callbacks arrive
// from one goroutine at a time.
type Progress interface {
	// OnAnalysisStart is called once the set of files to check is known.
	OnAnalysisStart(totalFiles int)

	// OnFileAnalyzed is called after each file finishes, including
	// files served from cache.
	OnFileAnalyzed(path string)

	// OnAnalysisComplete is called when the run ends.
	OnAnalysisComplete()
}

type nopProgress struct{}

func (nopProgress) OnAnalysisStart(int) {}
func (nopProgress) OnFileAnalyzed(string) {}
func (nopProgress) OnAnalysisComplete() {}
