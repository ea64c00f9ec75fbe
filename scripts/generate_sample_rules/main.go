package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"storefront/internal/model"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// generate_sample_rules writes rule documents for RULES_SOURCE=file:
//
//	rules.json           JSON array with one rule of every type
//	seasonal.jsonl.gz    gzipped JSON lines with time-boxed rules
//
// The product and category IDs match the seed_catalog script.
func main() {
	dataDir := flag.String("dir", "data/rules", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	standing := []model.DiscountRule{
		{
			ID:       "sneaker-bogo",
			Name:     "Sneaker BOGO",
			Type:     model.RuleTypeBOGO,
			Product:  &model.RuleRef{ID: "P001", Name: "Canvas Sneaker"},
			Priority: 10,
			Active:   true,
		},
		{
			ID:       "mug-2for1",
			Name:     "Mugs 2 for 1",
			Type:     model.RuleTypeTwoForOne,
			Product:  &model.RuleRef{ID: "P003", Name: "Coffee Mug"},
			Priority: 8,
			Active:   true,
		},
		{
			ID:         "kitchen-10",
			Name:       "Kitchen 10% off",
			Type:       model.RuleTypePercentCategory,
			Category:   &model.RuleRef{ID: "C002", Name: "Kitchen"},
			Percentage: dec("10"),
			Priority:   5,
			Active:     true,
		},
		{
			ID:          "boot-15",
			Name:        "Leather Boot 15% off",
			Type:        model.RuleTypePercentProduct,
			Product:     &model.RuleRef{ID: "P002", Name: "Leather Boot"},
			Percentage:  dec("15"),
			MinQuantity: intp(1),
			MaxDiscount: dec("500"),
			Priority:    4,
			Active:      true,
		},
		{
			ID:           "flat-100",
			Name:         "₹100 off orders over ₹1000",
			Type:         model.RuleTypeFixedAmount,
			FixedAmount:  dec("100"),
			MinCartValue: dec("1000"),
			MaxUses:      intp(500),
			Priority:     1,
			Active:       true,
		},
		{
			ID:          "socks-3for2",
			Name:        "Buy 3 socks, get 1 free",
			Type:        model.RuleTypeBuyXGetY,
			Category:    &model.RuleRef{ID: "C003", Name: "Accessories"},
			BuyQuantity: intp(3),
			GetQuantity: intp(1),
			Priority:    6,
			Active:      true,
		},
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 1, 0)
	seasonal := []model.DiscountRule{
		{
			ID:         "festive-footwear",
			Name:       "Festive footwear 20% off",
			Type:       model.RuleTypePercentCategory,
			Category:   &model.RuleRef{ID: "C001", Name: "Footwear"},
			Percentage: dec("20"),
			StartDate:  &start,
			EndDate:    &end,
			Priority:   7,
			Active:     true,
		},
		{
			ID:           "festive-flat-250",
			Name:         "₹250 off orders over ₹5000",
			Type:         model.RuleTypeFixedAmount,
			FixedAmount:  dec("250"),
			MinCartValue: dec("5000"),
			StartDate:    &start,
			EndDate:      &end,
			Priority:     2,
			Active:       true,
		},
	}

	if err := writeFile(filepath.Join(*dataDir, "rules.json"), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(standing)
	}); err != nil {
		log.Fatalf("Failed to create rules.json: %v", err)
	}

	if err := writeFile(filepath.Join(*dataDir, "seasonal.jsonl.gz"), func(w io.Writer) error {
		gzipWriter := gzip.NewWriter(w)
		enc := json.NewEncoder(gzipWriter)
		for _, rule := range seasonal {
			if err := enc.Encode(rule); err != nil {
				return fmt.Errorf("failed to write rule %s: %w", rule.ID, err)
			}
		}
		return gzipWriter.Close()
	}); err != nil {
		log.Fatalf("Failed to create seasonal.jsonl.gz: %v", err)
	}

	fmt.Printf("Created %d standing and %d seasonal rules in %s\n", len(standing), len(seasonal), *dataDir)
	fmt.Printf("\nRULES_SOURCE=file RULES_FILES=%s,%s\n",
		filepath.Join(*dataDir, "rules.json"), filepath.Join(*dataDir, "seasonal.jsonl.gz"))
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := write(file); err != nil {
		return err
	}
	return file.Close()
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intp(n int) *int {
	return &n
}
