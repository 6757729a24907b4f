package catalog

import (
	"github.com/shopspring/decimal"
)

// ImageKind discriminates what a flat image row contributes to its page.
type ImageKind int

// Image kinds as numbered in the input spreadsheet.
const (
	KindUnknown ImageKind = 0
	KindMain    ImageKind = 1
	KindDetail  ImageKind = 2
	KindColor   ImageKind = 3
	KindStatic  ImageKind = 4
)

// FlatImageRow is one spreadsheet row of the catalog input. Numeric cells
// that do not hold a number have Valid set to false.
type FlatImageRow struct {
	Page          decimal.NullDecimal
	Type          ImageKind
	Reference     string
	Features      string
	SizeGrid      string
	Composition   string
	Price         decimal.NullDecimal
	Color         string
	ImageFilename string
}

// Entry is a catalog page aggregated from every row sharing its page number.
type Entry struct {
	Page            decimal.NullDecimal
	Reference       string
	SizeGrid        string
	Features        string
	Composition     string
	Price           decimal.NullDecimal
	Color           string
	MainImagePath   string
	DetailImagePath string
	IsStaticImage   bool
	StaticImagePath string
	ImagesBasePath  string
	ColorVariants   []ColorVariant
}

// ColorVariant is an alternative color shot of the page's product.
type ColorVariant struct {
	Color     string
	Type      ImageKind
	ImagePath string
}
