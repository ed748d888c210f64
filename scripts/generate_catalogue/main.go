package main

import (
	"compress/gzip"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"rentwheels/internal/model"

	"github.com/shopspring/decimal"
)

// Writes a gzip JSON-lines coupon catalogue that the API seeds from when SEED_ENABLED=true.
// The fixed coupons cover every discount and applicability kind; -bulk adds generated
// fixed-amount coupons for load testing.
func main() {
	out := flag.String("out", "data/coupons/catalogue.jsonl.gz", "catalogue file to write")
	bulk := flag.Int("bulk", 0, "number of extra generated coupons")
	days := flag.Int("days", 90, "validity window in days, starting today")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, *days).Add(-time.Second)

	coupons := sampleCoupons(start, end)
	for i := 1; i <= *bulk; i++ {
		coupons = append(coupons, model.CouponRequest{
			Code:          fmt.Sprintf("BULK%05d", i),
			Description:   "Generated load-test coupon",
			DiscountType:  string(model.DiscountFixed),
			DiscountValue: decimal.NewFromInt(int64(100 + (i%10)*50)),
			ValidityStart: start,
			ValidityEnd:   end,
			UsageLimit:    1000,
			ApplicableTo:  string(model.ApplicableToAny),
		})
	}

	if err := writeCatalogue(*out, coupons); err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}

	fmt.Printf("Created %s with %d coupons\n", *out, len(coupons))
	for _, c := range coupons[:len(coupons)-*bulk] {
		fmt.Printf("  - %-10s %s\n", c.Code, c.Description)
	}
}

func sampleCoupons(start, end time.Time) []model.CouponRequest {
	maxDiscount := decimal.NewFromInt(500)

	return []model.CouponRequest{
		{
			Code:          "WELCOME20",
			Description:   "20% off up to ₹500 on bookings from ₹1,000",
			DiscountType:  string(model.DiscountPercentage),
			DiscountValue: decimal.NewFromInt(20),
			MinAmount:     decimal.NewFromInt(1000),
			MaxDiscount:   &maxDiscount,
			ValidityStart: start,
			ValidityEnd:   end,
			UsageLimit:    500,
			ApplicableTo:  string(model.ApplicableToAny),
		},
		{
			Code:          "FLAT300",
			Description:   "₹300 off on bookings from ₹500",
			DiscountType:  string(model.DiscountFixed),
			DiscountValue: decimal.NewFromInt(300),
			MinAmount:     decimal.NewFromInt(500),
			ValidityStart: start,
			ValidityEnd:   end,
			UsageLimit:    100,
			ApplicableTo:  string(model.ApplicableToAny),
		},
		{
			Code:          "SUVWEEKEND",
			Description:   "15% off selected SUVs",
			DiscountType:  string(model.DiscountPercentage),
			DiscountValue: decimal.NewFromInt(15),
			MinAmount:     decimal.NewFromInt(3000),
			ValidityStart: start,
			ValidityEnd:   end,
			UsageLimit:    50,
			ApplicableTo:  string(model.ApplicableToCar),
			CarIDs:        []string{"CAR-SUV-001", "CAR-SUV-002", "CAR-SUV-003"},
		},
		{
			Code:          "LOYAL1000",
			Description:   "₹1,000 off for a returning customer",
			DiscountType:  string(model.DiscountFixed),
			DiscountValue: decimal.NewFromInt(1000),
			MinAmount:     decimal.NewFromInt(5000),
			ValidityStart: start,
			ValidityEnd:   end,
			UsageLimit:    1,
			ApplicableTo:  string(model.ApplicableToUser),
			UserID:        "USER-0001",
		},
	}
}

func writeCatalogue(path string, coupons []model.CouponRequest) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	enc := json.NewEncoder(gzipWriter)
	for i := range coupons {
		if err := enc.Encode(&coupons[i]); err != nil {
			return fmt.Errorf("failed to write coupon %s: %w", coupons[i].Code, err)
		}
	}

	return gzipWriter.Close()
}
