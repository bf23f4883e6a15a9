package pdf

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Search handles PDF discovery for batch runs
type Search struct {
	validator *Validator
}

// NewSearch creates a new PDF search handler with the specified constraints
func NewSearch(maxFileSize int64) *Search {
	return &Search{
		validator: NewValidator(maxFileSize),
	}
}

// isPathWithinDirectory checks if a path is within the specified directory
func isPathWithinDirectory(path, directory string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}

	absDir, err := filepath.Abs(directory)
	if err != nil {
		return false, fmt.Errorf("failed to resolve directory: %w", err)
	}

	// Evaluate any symlinks to get the real path
	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return false, fmt.Errorf("failed to evaluate symlinks: %w", err)
		}
		realPath = absPath
	}

	realDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return false, fmt.Errorf("failed to evaluate directory symlinks: %w", err)
		}
		realDir = absDir
	}

	realPath = filepath.Clean(realPath)
	realDir = filepath.Clean(realDir)
	if realPath == realDir {
		return true, nil
	}

	if !strings.HasSuffix(realDir, string(filepath.Separator)) {
		realDir += string(filepath.Separator)
	}
	return strings.HasPrefix(realPath, realDir), nil
}

// SearchDirectory lists the .pdf files (case-insensitive suffix) in
// req.Directory, descending into subdirectories when req.Recursive is set.
// Hidden subdirectories and the directories in req.Exclude are skipped,
// except an excluded directory that is the search root itself. Symlinked
// files are skipped: rewriting one would replace the link, not its target,
// and a target inside the directory is listed under its own name. Files that
// would fail validation are listed with a Problem so the caller can report
// them.
func (s *Search) SearchDirectory(req PDFSearchDirectoryRequest) (*PDFSearchDirectoryResult, error) {
	if req.Directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	absDirectory, err := filepath.Abs(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	info, err := os.Stat(absDirectory)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", req.Directory)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", req.Directory)
	}

	excluded := make([]string, 0, len(req.Exclude))
	for _, dir := range req.Exclude {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve excluded directory: %w", err)
		}
		if abs != absDirectory {
			excluded = append(excluded, abs)
		}
	}

	pdfFiles := []FileInfo{}
	err = filepath.WalkDir(absDirectory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Continue walking even if we encounter an error with a specific file
			return nil
		}

		if d.IsDir() {
			if path == absDirectory {
				return nil
			}
			if !req.Recursive || strings.HasPrefix(d.Name(), ".") || isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isPDFFile(d.Name()) || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		// Security check: symlinks must not lead outside the searched directory
		withinDir, err := isPathWithinDirectory(path, absDirectory)
		if err != nil || !withinDir {
			return nil
		}

		pdfFiles = append(pdfFiles, s.describe(path, d.Name()))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	sort.Slice(pdfFiles, func(i, j int) bool {
		return pdfFiles[i].Path < pdfFiles[j].Path
	})

	return &PDFSearchDirectoryResult{
		Files:      pdfFiles,
		TotalCount: len(pdfFiles),
		Directory:  absDirectory,
		Recursive:  req.Recursive,
	}, nil
}

// FindPDFs returns the sorted paths of the PDF files in directory
func (s *Search) FindPDFs(directory string, recursive bool, exclude ...string) ([]string, error) {
	result, err := s.SearchDirectory(PDFSearchDirectoryRequest{
		Directory: directory,
		Recursive: recursive,
		Exclude:   exclude,
	})
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(result.Files))
	for i, f := range result.Files {
		paths[i] = f.Path
	}
	return paths, nil
}

// Validator returns the validator used to flag problem files
func (s *Search) Validator() *Validator {
	return s.validator
}

func (s *Search) describe(path, name string) FileInfo {
	fileInfo := FileInfo{
		Path: path,
		Name: name,
	}

	info, err := os.Stat(path)
	if err != nil {
		fileInfo.Problem = err.Error()
		return fileInfo
	}

	fileInfo.Size = info.Size()
	fileInfo.ModifiedTime = info.ModTime().Format("2006-01-02 15:04:05")
	if err := s.validator.ValidateFileInfo(path, info); err != nil {
		fileInfo.Problem = err.Error()
	}
	return fileInfo
}

func isExcluded(path string, excluded []string) bool {
	for _, dir := range excluded {
		if path == dir {
			return true
		}
	}
	return false
}
