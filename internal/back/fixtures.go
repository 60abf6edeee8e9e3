package back

import (
	"context"
	"ratemycompany/internal/util"

	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

func (b *Back) LoadFixtures(ctx context.Context) error {
	companies := []struct {
		name, description string
		rating            float64
		tags              []string
	}{
		{"Jane Street", "Quantitative trading firm.", 2050, []string{"quant", "trading"}},
		{"Google", "Search, ads and cloud.", 1900, []string{"big tech"}},
		{"Meta", "Social networks and VR.", 1850, []string{"big tech"}},
		{"Stripe", "Payments infrastructure.", 1800, []string{"fintech"}},
		{"Shopify", "Commerce platform.", 1700, []string{"e-commerce"}},
		{"Amazon", "Retail and cloud.", 1650, []string{"big tech"}},
		{"Datadog", "Observability platform.", 1600, []string{"devtools"}},
		{"Wealthsimple", "Consumer investing.", 1550, []string{"fintech"}},
	}

	return b.transaction(ctx, func(tx *sqlx.Tx) error {
		for _, v := range companies {
			company := NewCompany(v.name, v.rating)
			company.Description = null.StringFrom(v.description)
			company.Tags = util.StringArrayAsJSON(v.tags)
			if err := company.insert(tx); err != nil {
				return err
			}
		}

		return nil
	})
}
