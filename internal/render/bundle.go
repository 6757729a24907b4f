package render

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"

	"github.com/xenking/gtin-catalog/internal/domain/catalog"
)

// Names of the bundle members.
const (
	IndexName = "index.html"
	ImagesDir = "images"
)

// asset is an image copied into a bundle.
type asset struct {
	source string
	name   string
	size   int64
	mode   os.FileMode
}

// Bundle writes a gzip-compressed tar archive holding the rendered document
// as index.html and a copy of every image it references. Images that cannot
// be found are left out of both the archive and the document.
func (r *Renderer) Bundle(ctx context.Context, w io.Writer, name string, entries []catalog.Entry) error {
	lg := zctx.From(ctx)

	assets := make(map[string]*asset)
	var order []*asset
	link := func(p string) string {
		if a, ok := assets[p]; ok {
			if a == nil {
				return ""
			}
			return a.name
		}
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			lg.Warn("Image not found, left out of bundle", zap.String("path", p))
			assets[p] = nil
			return ""
		}
		a := &asset{
			source: p,
			name:   path.Join(ImagesDir, strconv.Itoa(len(order)+1)+"-"+filepath.Base(p)),
			size:   info.Size(),
			mode:   info.Mode().Perm(),
		}
		assets[p] = a
		order = append(order, a)
		return a.name
	}

	var doc bytes.Buffer
	if err := r.execute(&doc, name, newView(entries, link)); err != nil {
		return err
	}

	gz := pgzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	now := time.Now()

	if err := tw.WriteHeader(&tar.Header{
		Name:    IndexName,
		Mode:    0o644,
		Size:    int64(doc.Len()),
		ModTime: now,
	}); err != nil {
		return errors.Wrap(err, "write index header")
	}
	if _, err := tw.Write(doc.Bytes()); err != nil {
		return errors.Wrap(err, "write index")
	}

	for _, a := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := copyAsset(tw, a, now); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "close tar")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "close gzip")
	}

	lg.Debug("Bundle written", zap.Int("images", len(order)))
	return nil
}

func copyAsset(tw *tar.Writer, a *asset, modTime time.Time) error {
	f, err := os.Open(a.source)
	if err != nil {
		return errors.Wrapf(err, "open %s", a.source)
	}
	defer func() { _ = f.Close() }()

	if err := tw.WriteHeader(&tar.Header{
		Name:    a.name,
		Mode:    int64(a.mode),
		Size:    a.size,
		ModTime: modTime,
	}); err != nil {
		return errors.Wrapf(err, "write header %s", a.name)
	}
	if _, err := io.CopyN(tw, f, a.size); err != nil {
		return errors.Wrapf(err, "copy %s", a.source)
	}
	return nil
}
