package catalog

import (
	"math"
	"strconv"
	"strings"

	"inmuebles-backend/internal/domain"
)

// SortOrder for public listing results.
type SortOrder string

const (
	SortRecent    SortOrder = "recientes"
	SortPriceAsc  SortOrder = "precio_asc"
	SortPriceDesc SortOrder = "precio_desc"
	SortFeatured  SortOrder = "destacados"
)

func (o SortOrder) Valid() bool {
	switch o {
	case SortRecent, SortPriceAsc, SortPriceDesc, SortFeatured:
		return true
	}
	return false
}

// Criteria narrows the public catalog. Zero values mean "no constraint";
// price bounds are expressed in Currency.
type Criteria struct {
	BusinessMode domain.BusinessMode
	Type         domain.PropertyType
	Location     string
	Currency     domain.Currency
	MinPrice     *float64
	MaxPrice     *float64
	MinBedrooms  *int
	Stratum      *int
	Sort         SortOrder
}

// ParseCriteria reads query parameters. Unknown enum values and non-numeric
// numbers are dropped rather than rejected, so a malformed link still shows
// listings.
func ParseCriteria(get func(key string) string) Criteria {
	c := Criteria{Currency: domain.COP, Sort: SortRecent}

	if m := domain.BusinessMode(strings.TrimSpace(get("negocio"))); m.Valid() {
		c.BusinessMode = m
	}
	if t := domain.PropertyType(strings.TrimSpace(get("tipo"))); t.Valid() {
		c.Type = t
	}
	c.Location = strings.TrimSpace(get("ubicacion"))
	if c.Location == "" {
		c.Location = strings.TrimSpace(get("ciudad"))
	}
	if cur := domain.Currency(strings.ToUpper(strings.TrimSpace(get("moneda")))); cur.Valid() {
		c.Currency = cur
	}
	c.MinPrice = parseFloat(get("precioMin"))
	c.MaxPrice = parseFloat(get("precioMax"))
	c.MinBedrooms = parseInt(get("habitaciones"))
	if e := parseInt(get("estrato")); e != nil && *e >= 1 && *e <= 6 {
		c.Stratum = e
	}
	if o := SortOrder(strings.TrimSpace(get("orden"))); o.Valid() {
		c.Sort = o
	}
	return c
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}
