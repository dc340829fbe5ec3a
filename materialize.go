// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spvbuild

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	// Extension is the file extension of every materialized module.
	Extension = ".spv"

	// NamespaceSeparator separates path components of entry point names.
	NamespaceSeparator = "::"
)

// SanitizeEntryPoint turns an entry point name into a file name stem by
// replacing every namespace separator with an underscore.
func SanitizeEntryPoint(name string) string {
	return strings.ReplaceAll(name, NamespaceSeparator, "_")
}

// withExtension replaces the extension of a file name with Extension.
// A leading dot does not start an extension, so ".hidden" keeps its name.
func withExtension(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name + Extension
}

// Materializer copies compiler artifacts to their final locations.
type Materializer struct {
	// Logger receives one entry per artifact. Nil disables logging.
	Logger *zap.Logger
}

// Materialize copies the artifacts of result into outputDir, which is
// created if needed. A single module is named after fallbackFileName;
// multimodule artifacts are named after their sanitized entry points.
// Existing files are replaced.
//
// Entries are processed in order and the first failure stops the copy;
// files written before it are left in place and their paths are returned
// along with the error. When two entry points
// sanitize to the same name the later one wins. The returned paths are
// unique and in first-written order.
func (m *Materializer) Materialize(result Result, outputDir, fallbackFileName string) ([]string, error) {
	log := m.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, &MaterializeError{Op: "mkdir", Dest: outputDir, Err: err}
	}

	switch r := result.(type) {
	case *MultiModule:
		var (
			paths []string
			from  = make(map[string]string, len(r.Entries))
		)
		for _, e := range r.Entries {
			stem := SanitizeEntryPoint(e.Name)
			if err := checkStem(stem); err != nil {
				return paths, &MaterializeError{Op: "copy", Artifact: e.Path, Dest: outputDir, Err: fmt.Errorf("entry point %q: %w", e.Name, err)}
			}
			dest := filepath.Join(outputDir, withExtension(stem))
			if err := copyFile(dest, e.Path); err != nil {
				return paths, &MaterializeError{Op: "copy", Artifact: e.Path, Dest: dest, Err: err}
			}
			if prev, ok := from[dest]; ok {
				log.Warn("entry points collide after sanitizing; keeping the later one",
					zap.String("first", prev), zap.String("second", e.Name), zap.String("dest", dest))
			} else {
				paths = append(paths, dest)
			}
			from[dest] = e.Name
			log.Debug("wrote module", zap.String("entry_point", e.Name), zap.String("dest", dest))
		}
		return paths, nil

	case *SingleModule:
		dest := filepath.Join(outputDir, withExtension(fallbackFileName))
		if err := copyFile(dest, r.Path); err != nil {
			return nil, &MaterializeError{Op: "copy", Artifact: r.Path, Dest: dest, Err: err}
		}
		log.Debug("wrote module", zap.String("dest", dest))
		return []string{dest}, nil

	default:
		panic(fmt.Sprintf("spvbuild: unknown result type %T", result))
	}
}

// Materialize is shorthand for (&Materializer{}).Materialize.
func Materialize(result Result, outputDir, fallbackFileName string) ([]string, error) {
	var m Materializer
	return m.Materialize(result, outputDir, fallbackFileName)
}

// checkStem rejects stems that would not land directly in the output
// directory.
func checkStem(stem string) error {
	switch {
	case stem == "":
		return errors.New("empty name")
	case strings.ContainsAny(stem, `/\`) || stem == "." || stem == "..":
		return errors.New("name is not a plain file name")
	}
	return nil
}

// copyFile copies src to dst through a temporary file in dst's directory,
// so readers of dst never see a partial write. dst takes src's permissions.
// If dst is a symlink the file it points to is replaced, not the link.
func copyFile(dst, src string) error {
	if resolved, err := filepath.EvalSymlinks(dst); err == nil {
		dst = resolved
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".spvbuild-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
