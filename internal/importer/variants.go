package importer

import (
	"strings"

	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// ParseVariantOptions parses the option mini-language used in import sheets:
// comma-separated entries of the form Name:PriceModifier:PricingType.
//
//	"Small:249:standalone,Medium:299:s,Large:349:standalone"
//	"Thin:0,Stuffed:60:a"
//
// The pricing type accepts "additive"/"standalone" or the shorthands "a"/"s".
// A missing modifier defaults to 0 and a missing or unrecognized type to
// additive. Entries with an empty name are dropped.
func ParseVariantOptions(s string) []database.VariantOption {
	var options []database.VariantOption

	for _, entry := range strings.Split(s, ",") {
		parts := strings.Split(entry, ":")
		name := strings.TrimSpace(parts[0])
		if name == "" {
			continue
		}

		opt := database.VariantOption{
			Name:          name,
			PriceModifier: "0",
			PricingType:   enum.PricingTypeAdditive,
		}

		if len(parts) > 1 {
			if mod := strings.TrimSpace(parts[1]); mod != "" {
				if d, err := decimal.NewFromString(mod); err == nil {
					opt.PriceModifier = d.String()
				}
			}
		}
		if len(parts) > 2 {
			switch strings.ToLower(strings.TrimSpace(parts[2])) {
			case enum.PricingTypeStandalone, "s":
				opt.PricingType = enum.PricingTypeStandalone
			case enum.PricingTypeAdditive, "a":
				opt.PricingType = enum.PricingTypeAdditive
			}
		}

		options = append(options, opt)
	}

	return options
}
