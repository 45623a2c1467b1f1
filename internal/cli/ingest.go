package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragserver/internal/adapter/fs"
	"ragserver/internal/app"
	"ragserver/internal/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Bulk-index local files",
	Long: `Walk a directory and index every matching file.

File selection uses the ingest include/exclude glob patterns from the
configuration. Each file becomes one document named after its path
relative to the ingest root.

Examples:
  ragserver ingest .              # Index current directory
  ragserver ingest /path/to/docs  # Index specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", root)
	}

	a := app.New(GetConfig())
	defer a.Close()

	pipeline, err := a.Pipeline()
	if err != nil {
		return fmt.Errorf("failed to start indexing pipeline: %w", err)
	}
	extractor := a.Extractor()
	tracker := a.Tracker()

	walker := fs.NewWalker(a.Config().Ingest.Includes, a.Config().Ingest.Excludes)
	paths, err := walker.Walk(root)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", root, err)
	}
	if len(paths) == 0 {
		fmt.Println("No matching files found.")
		return nil
	}

	fmt.Printf("Indexing %d files from %s...\n", len(paths), root)
	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Indexing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
	)

	var submitted []string
	docPaths := make(map[string]string)
	var skipped int
	for _, path := range paths {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		extraction, err := extractor.Extract(path, false, 0)
		if err != nil {
			skipped++
			bar.Add(1)
			continue
		}

		docID := docIDForPath(rel)
		err = pipeline.Submit(docID, extraction.Text, map[string]string{"source_filename": rel})
		if err != nil {
			skipped++
			bar.Add(1)
			continue
		}
		submitted = append(submitted, docID)
		docPaths[docID] = rel

		// Throttle submissions so a small queue never rejects a bulk run.
		for tracker.Status(docID).State == domain.StatePending {
			time.Sleep(10 * time.Millisecond)
		}
		bar.Add(1)
	}

	var failed int
	for _, docID := range submitted {
		for !tracker.Status(docID).Terminal() {
			time.Sleep(20 * time.Millisecond)
		}
		if st := tracker.Status(docID); st.State == domain.StateFailed {
			failed++
			fmt.Fprintf(os.Stderr, "\n%s: %s\n", docPaths[docID], st.String())
		}
	}

	fmt.Printf("\nDone: %d indexed, %d failed, %d skipped\n", len(submitted)-failed, failed, skipped)
	return nil
}

// docIDForPath derives a stable document id from a relative path. Chunk
// ids reserve the underscore separator, so path characters that would
// collide with it are replaced.
func docIDForPath(rel string) string {
	id := strings.ToLower(rel)
	id = strings.NewReplacer("/", "-", "\\", "-", "_", "-", " ", "-", ".", "-").Replace(id)
	return id
}
