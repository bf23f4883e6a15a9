package descriptions

import "sort"

// Tool names exposed over MCP
const (
	ToolListFiles  = "pdf_list_files"
	ToolScanPages  = "pdf_scan_pages"
	ToolPurgePages = "pdf_purge_pages"
)

// Tool descriptions with practical examples and use cases

const (
	PDFListFilesDescription = `List the PDF files a purge would process.

**When to use:** Before scanning or purging, to check which files are in scope and which will be skipped.

**Why it's useful:** Shows every .pdf file (any letter case) in the directory, and flags empty or oversized files that a purge would report as unreadable instead of processing.

**Examples:**
• Check a drop folder: "List the PDFs in inbox/ before cleaning them"
• Include subfolders: "List every PDF under scans/ recursively"

**Best practices:** Directories are resolved inside the configured root; paths outside it are refused.`

	PDFScanPagesDescription = `Find the pages that contain a phrase without changing any file.

**When to use:** To preview what pdf_purge_pages would remove.

**Why it's useful:** Matching is a case-insensitive literal substring search on each page's extracted text. The report lists, per file, the 1-based page numbers that match and flags files where every page matches, which a purge leaves untouched.

**Examples:**
• Preview a cleanup: "Which pages in reports/ say 'Information Missing'?"
• Audit drafts: "Scan contracts/ for pages marked DRAFT"

**Best practices:** Run this first; pages whose text cannot be extracted never match.`

	PDFPurgePagesDescription = `Remove every page containing a phrase from the PDF files in a directory.

**When to use:** To strip placeholder, draft or cover pages from a batch of documents.

**Why it's useful:** Files are processed one at a time and a failure on one file never stops the batch. A file whose pages all match is left untouched and reported, so no document is ever emptied.

**Write modes:**
• replace (default): the result is written next to the source and renamed over it; the original is intact until the new file is complete
• overwrite: same as replace with the current engine
• outdir: results go to output_directory; sources are never modified and files without matches are copied unchanged

**Examples:**
• In place: "Remove pages containing 'Information Missing' from reports/"
• Keep originals: "Purge DRAFT pages from contracts/ into contracts/clean"

**Best practices:** Use dry_run or pdf_scan_pages first. The output directory is excluded from recursive runs.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolListFiles:  PDFListFilesDescription,
	ToolScanPages:  PDFScanPagesDescription,
	ToolPurgePages: PDFPurgePagesDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the sorted names of all tools
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
