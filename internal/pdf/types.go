package pdf

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
	Problem      string `json:"problem,omitempty"`
}

// PDFSearchDirectoryRequest describes where to look for PDF files
type PDFSearchDirectoryRequest struct {
	Directory string   `json:"directory"`
	Recursive bool     `json:"recursive,omitempty"`
	Exclude   []string `json:"exclude,omitempty"`
}

// PDFSearchDirectoryResult lists the PDF files found in a directory, sorted
// by path.
type PDFSearchDirectoryResult struct {
	Files      []FileInfo `json:"files"`
	TotalCount int        `json:"total_count"`
	Directory  string     `json:"directory"`
	Recursive  bool       `json:"recursive"`
}
