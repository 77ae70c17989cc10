// Package ingest registers audio files found under the protected storage root as catalog products.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/javajoker/digital-storefront/internal/database"
	"github.com/javajoker/digital-storefront/internal/models"
	"github.com/javajoker/digital-storefront/internal/utils"
)

const (
	DefaultPricePennies = 299
	DefaultDescription  = "Royalty-free demo track"
	fallbackSlug        = "track"
)

var DefaultSubdirs = []string{"products", "samples"}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Options tunes a run. PricePennies applies to newly created products only; nil means
// DefaultPricePennies and zero is a valid price.
type Options struct {
	Subdirs      []string
	Pattern      string
	PricePennies *int64
	Description  string
}

func (o Options) withDefaults() Options {
	if len(o.Subdirs) == 0 {
		o.Subdirs = DefaultSubdirs
	}
	if o.Pattern == "" {
		o.Pattern = "*.mp3"
	}
	if o.PricePennies == nil {
		price := int64(DefaultPricePennies)
		o.PricePennies = &price
	}
	if o.Description == "" {
		o.Description = DefaultDescription
	}
	return o
}

// Run scans each subdirectory of root for matching files and upserts a product and digital asset
// per file. Existing products keep their title, price and description; asset metadata is refreshed.
// It returns the number of files processed.
func Run(ctx context.Context, db *gorm.DB, root string, opts Options) (int, error) {
	opts = opts.withDefaults()
	if *opts.PricePennies < 0 {
		return 0, fmt.Errorf("price must not be negative, got %d", *opts.PricePennies)
	}
	processed := 0

	for _, sub := range opts.Subdirs {
		dir := filepath.Join(root, sub)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			logrus.WithField("dir", dir).Debug("Skipping missing ingest directory")
			continue
		}

		matches, err := filepath.Glob(filepath.Join(dir, opts.Pattern))
		if err != nil {
			return processed, fmt.Errorf("invalid pattern %q: %w", opts.Pattern, err)
		}

		for _, path := range matches {
			if err := ctx.Err(); err != nil {
				return processed, err
			}

			if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
				continue
			}

			if err := ingestFile(db, sub, path, opts); err != nil {
				return processed, err
			}
			processed++
		}
	}

	logrus.WithFields(logrus.Fields{
		"root":      root,
		"processed": processed,
	}).Info("Ingest completed")

	return processed, nil
}

func ingestFile(db *gorm.DB, sub, path string, opts Options) error {
	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	digest, size, err := utils.HashFile(path)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}

	slug := Slugify(stem)
	relPath := sub + "/" + name

	return database.WithTransaction(db, func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where(models.Product{Slug: slug}).
			Attrs(models.Product{
				Title:        TitleFromStem(stem),
				Description:  opts.Description,
				PricePennies: *opts.PricePennies,
				Active:       true,
			}).
			FirstOrCreate(&product).Error; err != nil {
			return fmt.Errorf("failed to upsert product %s: %w", slug, err)
		}

		var asset models.DigitalAsset
		if err := tx.Where(models.DigitalAsset{ProductID: product.ID, FilePath: relPath}).
			Assign(models.DigitalAsset{
				FileName:  name,
				SHA256:    digest,
				SizeBytes: size,
			}).
			FirstOrCreate(&asset).Error; err != nil {
			return fmt.Errorf("failed to upsert asset %s: %w", relPath, err)
		}

		logrus.WithFields(logrus.Fields{
			"slug":   slug,
			"file":   relPath,
			"sha256": digest,
			"size":   size,
		}).Debug("Ingested file")
		return nil
	})
}

// Slugify folds s to ASCII, collapses every run of other characters into a hyphen and lowercases
// the result. An empty result becomes "track".
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(s) {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	slug := strings.ToLower(strings.Trim(nonAlnum.ReplaceAllString(b.String(), "-"), "-"))
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// TitleFromStem turns underscores into spaces and capitalises the first letter of every word.
func TitleFromStem(stem string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range strings.ReplaceAll(stem, "_", " ") {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
