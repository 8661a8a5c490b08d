package subscription

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var plansYAML []byte

// Plan is one entry of the public price list. Price is nil for plans sold
// through the sales team.
type Plan struct {
	ID           PlanID   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Price        *float64 `yaml:"price" json:"price"`
	Currency     string   `yaml:"currency" json:"currency"`
	Interval     string   `yaml:"interval" json:"interval"`
	ContactSales bool     `yaml:"contact_sales" json:"contact_sales"`
	Features     []string `yaml:"features" json:"features"`
	PriceID      string   `yaml:"-" json:"price_id,omitempty"`
}

// Catalog maps provider price ids onto plans.
type Catalog struct {
	plans []Plan
}

// LoadCatalog parses the embedded plan list and attaches the configured
// provider price ids to BASIC and PRO.
func LoadCatalog(basicPriceID, proPriceID string) (*Catalog, error) {
	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(plansYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse plans: %w", err)
	}
	for i := range doc.Plans {
		switch doc.Plans[i].ID {
		case PlanBasic:
			doc.Plans[i].PriceID = basicPriceID
		case PlanPro:
			doc.Plans[i].PriceID = proPriceID
		}
	}
	return &Catalog{plans: doc.Plans}, nil
}

func (c *Catalog) Plans() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// PlanForPrice resolves a provider price id. Unknown prices fall back to
// BASIC.
func (c *Catalog) PlanForPrice(priceID string) PlanID {
	if priceID == "" {
		return PlanBasic
	}
	for _, p := range c.plans {
		if p.PriceID == priceID {
			return p.ID
		}
	}
	return PlanBasic
}
