package catalog

import (
	"path/filepath"
)

// Normalize folds rows into one Entry per distinct page, in first-seen page
// order. Scalar fields come from the first row of a page; later rows only
// contribute images. Rows whose page is not a number never share an entry.
func Normalize(rows []FlatImageRow, imagesBasePath string) []Entry {
	entries := make([]Entry, 0, len(rows))
	byPage := make(map[string]int, len(rows))

	for _, row := range rows {
		image := resolve(imagesBasePath, row.ImageFilename)

		key, keyed := pageKey(row)
		if keyed {
			if i, ok := byPage[key]; ok {
				entries[i].merge(row, image)
				continue
			}
			byPage[key] = len(entries)
		}
		entries = append(entries, seed(row, image, imagesBasePath))
	}

	return entries
}

func seed(row FlatImageRow, image, base string) Entry {
	e := Entry{
		Page:            row.Page,
		Reference:       row.Reference,
		SizeGrid:        row.SizeGrid,
		Features:        row.Features,
		Composition:     row.Composition,
		Price:           row.Price,
		Color:           row.Color,
		IsStaticImage:   row.Type == KindStatic,
		StaticImagePath: image,
		ImagesBasePath:  base,
		ColorVariants:   []ColorVariant{},
	}
	switch row.Type {
	case KindMain:
		e.MainImagePath = image
	case KindDetail:
		e.DetailImagePath = image
	case KindColor:
		e.ColorVariants = append(e.ColorVariants, ColorVariant{Color: row.Color, Type: row.Type, ImagePath: image})
	}
	return e
}

func (e *Entry) merge(row FlatImageRow, image string) {
	switch row.Type {
	case KindMain:
		e.MainImagePath = image
	case KindDetail:
		e.DetailImagePath = image
	case KindColor:
		e.ColorVariants = append(e.ColorVariants, ColorVariant{Color: row.Color, Type: KindColor, ImagePath: image})
	}
}

// pageKey returns the grouping key of a row. Equal numbers map to the same
// key regardless of how they were written ("1" and "1.0").
func pageKey(row FlatImageRow) (string, bool) {
	if !row.Page.Valid {
		return "", false
	}
	return row.Page.Decimal.String(), true
}

// resolve returns the absolute path of name relative to base.
func resolve(base, name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	joined := filepath.Join(base, name)
	if abs, err := filepath.Abs(joined); err == nil {
		return abs
	}
	return joined
}
