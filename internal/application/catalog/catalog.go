package catalog

import (
	"context"
	"math"
	"slices"
	"strings"

	"inmuebles-backend/internal/domain"
	"inmuebles-backend/internal/pkg/currency"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MaxResults is the most listings a search returns.
const MaxResults = 100

// Service answers public catalog searches.
type Service struct {
	DB *gorm.DB
}

// Search loads active listings matching the equality filters the store can
// evaluate (tipo, modo de negocio) and applies the rest in memory. No limit
// is applied to the store query: truncation happens after sorting.
func (s *Service) Search(ctx context.Context, c Criteria) ([]domain.Property, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Property{}).
		Where("estado_publicacion = ?", domain.StatusActive)
	if c.Type != "" {
		q = q.Where("tipo = ?", c.Type)
	}
	switch c.BusinessMode {
	case domain.ModeSale, domain.ModeRent:
		q = q.Where("modo_negocio IN ?", []domain.BusinessMode{c.BusinessMode, domain.ModeSaleAndRent})
	case domain.ModeSaleAndRent:
		q = q.Where("modo_negocio = ?", c.BusinessMode)
	}

	var props []domain.Property
	if err := q.Find(&props).Error; err != nil {
		log.Error().Err(err).Str("tipo", string(c.Type)).Str("negocio", string(c.BusinessMode)).
			Msg("catalog: search query failed")
		return nil, err
	}
	return Apply(props, c), nil
}

// Apply filters, sorts and truncates props. It is the authority on every
// criterion, including the ones Search already pushed to the store.
func Apply(props []domain.Property, c Criteria) []domain.Property {
	target := c.Currency
	if !target.Valid() {
		target = domain.COP
	}
	location := strings.ToLower(strings.TrimSpace(c.Location))

	type row struct {
		p     domain.Property
		price float64
	}
	rows := make([]row, 0, len(props))
	for _, p := range props {
		if p.Status != domain.StatusActive {
			continue
		}
		if c.Type != "" && p.Type != c.Type {
			continue
		}
		if c.BusinessMode != "" && !p.BusinessMode.Matches(c.BusinessMode) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(p.Location.City), location) {
			continue
		}
		price := currency.Convert(p.Price.Amount, p.Price.Currency, target)
		if c.MinPrice != nil && !(price >= *c.MinPrice) {
			continue
		}
		if c.MaxPrice != nil && !(price <= *c.MaxPrice) {
			continue
		}
		if c.MinBedrooms != nil && p.Features.Bedrooms < *c.MinBedrooms {
			continue
		}
		if c.Stratum != nil && (p.Features.Stratum == nil || *p.Features.Stratum != *c.Stratum) {
			continue
		}
		rows = append(rows, row{p: p, price: price})
	}

	byRecent := func(a, b row) int {
		return b.p.UpdatedAt.Compare(a.p.UpdatedAt)
	}
	// NaN prices (unknown currency) sort last in both directions.
	byPrice := func(a, b row, desc bool) int {
		an, bn := math.IsNaN(a.price), math.IsNaN(b.price)
		switch {
		case an && bn:
			return byRecent(a, b)
		case an:
			return 1
		case bn:
			return -1
		}
		if a.price != b.price {
			if (a.price < b.price) != desc {
				return -1
			}
			return 1
		}
		return byRecent(a, b)
	}

	switch c.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(rows, func(a, b row) int { return byPrice(a, b, false) })
	case SortPriceDesc:
		slices.SortStableFunc(rows, func(a, b row) int { return byPrice(a, b, true) })
	case SortFeatured:
		slices.SortStableFunc(rows, func(a, b row) int {
			if a.p.Featured != b.p.Featured {
				if a.p.Featured {
					return -1
				}
				return 1
			}
			return byRecent(a, b)
		})
	default:
		slices.SortStableFunc(rows, byRecent)
	}

	if len(rows) > MaxResults {
		rows = rows[:MaxResults]
	}
	out := make([]domain.Property, len(rows))
	for i, r := range rows {
		out[i] = r.p
	}
	return out
}

// Listing is a search result with its price rendered in the searched currency.
type Listing struct {
	domain.Property
	FormattedPrice string `json:"precioFormateado,omitempty"`
}

// Listings pairs each property with its price converted to target and
// formatted for display. Prices in an unknown currency are left blank.
func Listings(props []domain.Property, target domain.Currency) []Listing {
	if !target.Valid() {
		target = domain.COP
	}
	out := make([]Listing, len(props))
	for i, p := range props {
		out[i] = Listing{Property: p}
		if v := currency.Convert(p.Price.Amount, p.Price.Currency, target); !math.IsNaN(v) {
			out[i].FormattedPrice = currency.Format(v, target)
		}
	}
	return out
}
