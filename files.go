package dnexif

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// FileJob is one unit of work for WriteFiles.
type FileJob struct {
	// Path of the input file.
	Path string

	// OutputPath of the rewritten file. Empty means rewrite in place.
	OutputPath string

	// Tags to write into the file.
	Tags Request
}

// WriteFile rewrites the metadata of a file on disk.
//
// This is an atomic operation: the rewritten bytes go to a temporary file
// in the destination directory first, are synced, and then renamed over
// outputPath. If any step fails, the destination remains unchanged.
//
// Options can be provided to customize behavior:
//
//	err := dnexif.WriteFile("song.flac", "song.flac", req,
//	    dnexif.WithBackup(".bak"),
//	    dnexif.WithVendor("myapp 1.0"),
//	)
func WriteFile(path, outputPath string, req Request, opts ...Option) error {
	options := defaultWriteOptions()
	for _, opt := range opts {
		opt(options)
	}
	if outputPath == "" {
		outputPath = path
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	out, err := Write(data, req, opts...)
	if err != nil {
		return err
	}

	// Create temp file in same directory as output (for atomic rename)
	outputDir := filepath.Dir(outputPath)
	tempFile, err := os.CreateTemp(outputDir, ".dnexif-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	// Ensure cleanup on any error
	success := false
	defer func() {
		if !success {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(out); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	// Sync temp file (fsync) to ensure data is on disk
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	// Close temp file before rename
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Handle backup option (rename destination aside before replace)
	if options.backupSuffix != "" {
		backupPath := outputPath + options.backupSuffix
		if _, err := os.Stat(outputPath); err == nil {
			if err := os.Rename(outputPath, backupPath); err != nil {
				return fmt.Errorf("create backup: %w", err)
			}
		}
	}

	// Atomic rename temp -> output
	if err := os.Rename(tempPath, outputPath); err != nil {
		return fmt.Errorf("rename temp to output: %w", err)
	}

	success = true
	return nil
}

// WriteFiles rewrites multiple files concurrently.
//
// Jobs run in parallel using up to runtime.NumCPU() goroutines. The first
// failure cancels the remaining jobs; files already renamed into place
// stay written.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	err := dnexif.WriteFiles(ctx, []dnexif.FileJob{
//	    {Path: "a.flac", Tags: dnexif.Request{"XMP:Title": "One"}},
//	    {Path: "b.ogg", Tags: dnexif.Request{"XMP:Title": "Two"}},
//	})
func WriteFiles(ctx context.Context, jobs []FileJob, opts ...Option) error {
	if len(jobs) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err := WriteFile(job.Path, job.OutputPath, job.Tags, opts...); err != nil {
				return fmt.Errorf("%s: %w", job.Path, err)
			}
			return nil
		})
	}

	return g.Wait()
}
