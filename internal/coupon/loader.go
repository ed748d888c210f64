package coupon

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"rentwheels/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading coupon catalogue files from disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based coupon loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "coupon-loader").Logger(),
	}
}

// Load reads a catalogue file with one JSON coupon definition per line.
// Files ending in .gz are decompressed.
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]model.Coupon, error) {
	l.logger.Info().Str("file", filePath).Msg("loading coupon catalogue")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open coupon catalogue")
		return nil, fmt.Errorf("failed to open coupon catalogue %s: %w", filePath, err)
	}
	defer file.Close()

	coupons, err := readCatalogue(ctx, file, filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read coupon catalogue")
		return nil, err
	}

	l.logger.Info().
		Str("file", filePath).
		Int("coupons_loaded", len(coupons)).
		Msg("coupon catalogue loaded successfully")

	return coupons, nil
}

// readCatalogue decodes JSON-lines coupon definitions from r, decompressing when name ends in .gz.
// Every definition is normalised and validated; the first invalid line fails the whole file.
func readCatalogue(ctx context.Context, r io.Reader, name string) ([]model.Coupon, error) {
	if strings.HasSuffix(name, ".gz") {
		gzipReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", name, err)
		}
		defer gzipReader.Close()
		r = gzipReader
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var coupons []model.Coupon
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var req model.CouponRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			return nil, fmt.Errorf("%s:%d: invalid JSON: %w", name, lineNo, err)
		}

		c := req.ToCoupon()
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
		coupons = append(coupons, *c)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading coupon catalogue %s: %w", name, err)
	}

	return coupons, nil
}
