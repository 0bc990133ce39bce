package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PropertyType is the kind of real-estate unit (tipo).
type PropertyType string

const (
	TypeHouse      PropertyType = "casa"
	TypeApartment  PropertyType = "apartamento"
	TypeStudio     PropertyType = "apartaestudio"
	TypeFarm       PropertyType = "finca"
	TypeCommercial PropertyType = "local"
	TypeOffice     PropertyType = "oficina"
	TypeLand       PropertyType = "terreno"
	TypeWarehouse  PropertyType = "bodega"
)

var propertyTypes = []PropertyType{TypeHouse, TypeApartment, TypeStudio, TypeFarm, TypeCommercial, TypeOffice, TypeLand, TypeWarehouse}

func (t PropertyType) Valid() bool {
	for _, v := range propertyTypes {
		if v == t {
			return true
		}
	}
	return false
}

// BusinessMode says whether a property is offered for sale, rent or both (modoNegocio).
type BusinessMode string

const (
	ModeSale        BusinessMode = "venta"
	ModeRent        BusinessMode = "alquiler"
	ModeSaleAndRent BusinessMode = "venta_alquiler"
)

func (m BusinessMode) Valid() bool {
	return m == ModeSale || m == ModeRent || m == ModeSaleAndRent
}

// Matches reports whether a listing offered under m satisfies a search for want.
// A listing offered for both sale and rent satisfies either search.
func (m BusinessMode) Matches(want BusinessMode) bool {
	if m == want {
		return true
	}
	return m == ModeSaleAndRent && (want == ModeSale || want == ModeRent)
}

// Condition of the unit (condicion).
type Condition string

const (
	ConditionNew      Condition = "nuevo"
	ConditionUsed     Condition = "usado"
	ConditionOffPlans Condition = "sobre_planos"
)

func (c Condition) Valid() bool {
	return c == ConditionNew || c == ConditionUsed || c == ConditionOffPlans
}

// PublicationStatus is the lifecycle state of a listing (estadoPublicacion).
type PublicationStatus string

const (
	StatusDraft    PublicationStatus = "borrador"
	StatusActive   PublicationStatus = "activo"
	StatusInactive PublicationStatus = "inactivo"
	StatusSold     PublicationStatus = "vendido"
	StatusRented   PublicationStatus = "arrendado"
)

func (s PublicationStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusInactive, StatusSold, StatusRented:
		return true
	}
	return false
}

// Currency is the ISO code a price is denominated in.
type Currency string

const (
	COP Currency = "COP"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

func (c Currency) Valid() bool {
	return c == COP || c == USD || c == EUR
}

// Price is stored flattened on the propiedades row.
type Price struct {
	Amount      float64  `gorm:"column:precio_valor;not null" json:"valor" validate:"gt=0"`
	Currency    Currency `gorm:"column:precio_moneda;type:varchar(3);not null" json:"moneda" validate:"required,oneof=COP USD EUR"`
	MonthlyFee  *float64 `gorm:"column:precio_admin_mensual" json:"adminMensual,omitempty" validate:"omitempty,gte=0"`
	PropertyTax *float64 `gorm:"column:precio_impuesto_predial" json:"impuestoPredial,omitempty" validate:"omitempty,gte=0"`
	Negotiable  bool     `gorm:"column:precio_negociable;not null;default:false" json:"negociable"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitud" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitud" validate:"gte=-180,lte=180"`
}

type Location struct {
	Country      string       `gorm:"column:ubicacion_pais;not null" json:"pais" validate:"required,max=80"`
	Department   string       `gorm:"column:ubicacion_departamento;not null" json:"departamento" validate:"required,max=80"`
	City         string       `gorm:"column:ubicacion_ciudad;not null;index" json:"ciudad" validate:"required,max=80"`
	Neighborhood string       `gorm:"column:ubicacion_barrio" json:"barrio,omitempty" validate:"max=120"`
	Address      string       `gorm:"column:ubicacion_direccion;not null" json:"direccion" validate:"required,max=200"`
	PostalCode   string       `gorm:"column:ubicacion_codigo_postal" json:"codigoPostal,omitempty" validate:"max=20"`
	Coordinates  *Coordinates `gorm:"column:ubicacion_coordenadas;serializer:json" json:"coordenadas,omitempty"`
}

// Features are the physical characteristics (caracteristicas). Optional values are pointers.
type Features struct {
	Bedrooms       int                         `gorm:"column:habitaciones;not null;default:0" json:"habitaciones" validate:"gte=0,lte=100"`
	Bathrooms      int                         `gorm:"column:banos;not null;default:0" json:"banos" validate:"gte=0,lte=100"`
	LotArea        float64                     `gorm:"column:metros_cuadrados;not null;default:0" json:"metrosCuadrados" validate:"gte=0"`
	BuiltArea      *float64                    `gorm:"column:metros_construidos" json:"metrosConstruidos,omitempty" validate:"omitempty,gte=0"`
	ParkingSpots   int                         `gorm:"column:parqueaderos;not null;default:0" json:"parqueaderos" validate:"gte=0,lte=100"`
	Floors         *int                        `gorm:"column:pisos" json:"pisos,omitempty" validate:"omitempty,gte=0"`
	Floor          *int                        `gorm:"column:piso" json:"piso,omitempty"`
	Stratum        *int                        `gorm:"column:estrato;index" json:"estrato,omitempty" validate:"omitempty,min=1,max=6"`
	Age            *int                        `gorm:"column:antiguedad" json:"antiguedad,omitempty" validate:"omitempty,gte=0"`
	Amenities      datatypes.JSONSlice[string] `gorm:"column:instalaciones" json:"instalaciones"`
	ShortStayRents *bool                       `gorm:"column:permite_renta_corta" json:"permiteRentaCorta,omitempty"`
}

type SEO struct {
	MetaTitle       string   `json:"metaTitle,omitempty" validate:"max=70"`
	MetaDescription string   `json:"metaDescription,omitempty" validate:"max=170"`
	Keywords        []string `json:"keywords,omitempty"`
}

type Agent struct {
	Name     string `json:"nombre" validate:"required,max=120"`
	Phone    string `json:"telefono" validate:"required,max=30"`
	Email    string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	WhatsApp string `json:"whatsapp,omitempty" validate:"max=30"`
}

// Property is one listing (propiedades). Slug and Code are unique across all
// properties; the reservation tables enforce that.
type Property struct {
	ID           uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Slug         string                      `gorm:"column:slug;type:varchar(100);not null;index" json:"slug"`
	Code         string                      `gorm:"column:codigo_propiedad;type:varchar(30);not null;index" json:"codigoPropiedad"`
	Type         PropertyType                `gorm:"column:tipo;type:varchar(20);not null;index" json:"tipo"`
	BusinessMode BusinessMode                `gorm:"column:modo_negocio;type:varchar(20);not null;index" json:"modoNegocio"`
	Condition    Condition                   `gorm:"column:condicion;type:varchar(20);not null" json:"condicion"`
	Status       PublicationStatus           `gorm:"column:estado_publicacion;type:varchar(20);not null;index" json:"estadoPublicacion"`
	Title        string                      `gorm:"column:titulo;not null" json:"titulo"`
	Description  string                      `gorm:"column:descripcion;type:text" json:"descripcion"`
	Price        Price                       `gorm:"embedded" json:"precio"`
	Location     Location                    `gorm:"embedded" json:"ubicacion"`
	Features     Features                    `gorm:"embedded" json:"caracteristicas"`
	Images       datatypes.JSONSlice[string] `gorm:"column:imagenes" json:"imagenes"`
	CoverImage   string                      `gorm:"column:imagen_principal" json:"imagenPrincipal,omitempty"`
	VirtualTour  string                      `gorm:"column:tour_virtual" json:"tourVirtual,omitempty"`
	VideoURL     string                      `gorm:"column:video_url" json:"videoUrl,omitempty"`
	SEO          *SEO                        `gorm:"column:seo;serializer:json" json:"seo,omitempty"`
	Agent        *Agent                      `gorm:"column:agente;serializer:json" json:"agente,omitempty"`
	CreatedAt    time.Time                   `gorm:"column:creado_en;not null;autoCreateTime:false" json:"creadoEn"`
	UpdatedAt    time.Time                   `gorm:"column:actualizado_en;not null;index;autoUpdateTime:false" json:"actualizadoEn"`
	PublishedAt  *time.Time                  `gorm:"column:publicado_en" json:"publicadoEn,omitempty"`
	Views        int64                       `gorm:"column:vistas;not null;default:0" json:"vistas"`
	Featured     bool                        `gorm:"column:destacado;not null;default:false" json:"destacado"`
	Tags         datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags"`
}

func (Property) TableName() string {
	return "propiedades"
}

// BeforeCreate sets id when the caller did not.
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// HasImage reports whether url is one of the property's gallery images or its cover.
func (p *Property) HasImage(url string) bool {
	if url == "" {
		return false
	}
	if p.CoverImage == url {
		return true
	}
	for _, img := range p.Images {
		if img == url {
			return true
		}
	}
	return false
}
