package bootstrap

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
)

// CollectStatic copies every file of fsys into dir, replacing files that
// are already there. It returns the number of files copied.
func CollectStatic(fsys fs.FS, dir string) (int, error) {
	files := make([]string, 0)

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("could not list static files: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("could not create %s: %w", dir, err)
	}

	bar := progressbar.Default(int64(len(files)), "Collecting static files...")

	for _, name := range files {
		if err := copyFile(fsys, name, filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			return 0, err
		}

		if err := bar.Add(1); err != nil {
			slog.Error("could not update progress bar", "error", err)
		}
	}

	if err := bar.Finish(); err != nil {
		slog.Error("could not finish progress bar", "error", err)
	}

	slog.Info("Collected static files", "count", len(files), "dir", dir)

	return len(files), nil
}

func copyFile(fsys fs.FS, name, dst string) error {
	src, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", name, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("could not create %s: %w", filepath.Dir(dst), err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()

		return fmt.Errorf("could not copy %s: %w", name, err)
	}

	return out.Close()
}
