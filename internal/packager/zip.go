package packager

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"

	"github.com/emberforge/pyrite/pkg/includes"
	"github.com/emberforge/pyrite/pkg/ppj"
)

// BuildArchives writes every declared zip, reading sources in place with
// no staging step. A relative root that does not resolve to an existing
// directory stops the run; a resolved include that falls outside the root
// is skipped with a warning.
func (p *Packager) BuildArchives(zips []ppj.ZipDecl) error {
	if len(zips) == 0 {
		return nil
	}

	if err := os.MkdirAll(p.opts.ZipOutput, 0o755); err != nil {
		return fmt.Errorf("create zip output folder: %w", err)
	}

	for i, decl := range zips {
		if err := p.buildZip(i, decl); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packager) buildZip(index int, decl ppj.ZipDecl) error {
	fileName := resolveOutputName(p.zipNames, decl.Name, index)
	fileName = fixZipExt(fileName)

	outputPath := filepath.Join(p.opts.ZipOutput, fileName)
	if err := checkWritable(outputPath); err != nil {
		return err
	}

	rootDir := decl.RootDir
	if !filepath.IsAbs(rootDir) {
		resolved := filepath.Clean(filepath.Join(p.opts.ProjectDir, rootDir))
		info, err := os.Stat(resolved)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %q", ErrRootNotFound, decl.RootDir)
		}
		rootDir = resolved
	}

	method := uint16(zip.Deflate)
	if decl.Compression == "store" {
		method = zip.Store
	}

	p.logger.Info("🗜️ creating zip", "file", fileName)

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrOutputNotWritable, outputPath)
	}

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})

	entries, err := p.writeZipEntries(zw, decl, rootDir, method)
	if err != nil {
		zw.Close()
		out.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finalize zip: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}

	p.logger.Info("✅ wrote zip", "path", outputPath, "entries", entries)
	return nil
}

func (p *Packager) writeZipEntries(zw *zip.Writer, decl ppj.ZipDecl, rootDir string, method uint16) (int, error) {
	entries := 0
	for _, inc := range decl.Includes {
		for source := range p.resolver.Resolve(includes.Declaration{
			PathOrPattern: inc.Text,
			NoRecurse:     inc.NoRecurse,
			RootDir:       rootDir,
		}) {
			p.logger.Info("+ including", "path", source)

			// Resolution already enforces containment; re-check before
			// writing so no entry can ever name a path outside the root.
			if !includes.Within(rootDir, source) {
				p.logger.Warn("cannot add file outside root directory",
					"path", source, "root", rootDir)
				continue
			}

			if err := addZipEntry(zw, source, rootDir, method); err != nil {
				return entries, fmt.Errorf("write zip entry: %w", err)
			}
			entries++
		}
	}
	return entries, nil
}

func addZipEntry(zw *zip.Writer, source, rootDir string, method uint16) error {
	rel, err := filepath.Rel(rootDir, source)
	if err != nil {
		return err
	}

	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open %q: %w", source, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(rel)
	header.Method = method

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
