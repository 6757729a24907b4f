package gs1

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/xenking/gtin-catalog/internal/domain/barcode"
)

// Fixed codes of the product registration body.
const (
	statusActive          = "ACTIVE"
	keyCodeGTIN13         = "GTIN_13"
	fileTypePlanogram     = "PLANOGRAM"
	classificationNCM     = "NCM"
	classificationCEST    = "CEST"
	identificationType    = "FOR_INTERNAL_USE_1"
	defaultUnit           = "GRM"
	defaultCountry        = "076"
	defaultUnitDescriptor = "BASE_UNIT_OR_EACH"
)

// Product describes the constants sent with every registration. They belong
// to the registering company, not to the rows.
type Product struct {
	CompanyPrefix   string
	TargetMarket    string
	CountryOfOrigin string
	MeasurementUnit string
	UnitDescriptor  string
}

func (p Product) withDefaults() Product {
	if p.TargetMarket == "" {
		p.TargetMarket = defaultCountry
	}
	if p.CountryOfOrigin == "" {
		p.CountryOfOrigin = defaultCountry
	}
	if p.MeasurementUnit == "" {
		p.MeasurementUnit = defaultUnit
	}
	if p.UnitDescriptor == "" {
		p.UnitDescriptor = defaultUnitDescriptor
	}
	return p
}

type productRequest struct {
	Company                   company                    `json:"company"`
	GTINStatusCode            string                     `json:"gtinStatusCode"`
	Key                       identificationKey          `json:"gs1TradeItemIdentificationKey"`
	Description               descriptionInformation     `json:"tradeItemDescriptionInformation"`
	ReferencedFiles           []referencedFile           `json:"referencedFileInformations"`
	Brand                     brandInformation           `json:"brandNameInformation"`
	Measurements              measurements               `json:"tradeItemMeasurements"`
	Classification            classification             `json:"tradeItemClassification"`
	WithoutCEST               bool                       `json:"withoutCest"`
	TradeItem                 tradeItem                  `json:"tradeItem"`
	PlaceOfProductActivity    placeOfProductActivity     `json:"placeOfProductActivity"`
	AdditionalIdentifications []additionalIdentification `json:"additionalTradeItemIdentifications"`
	AcceptResponsibility      bool                       `json:"acceptResponsibility"`
	ShareDataIndicator        bool                       `json:"shareDataIndicator"`
	Weight                    tradeItemWeight            `json:"tradeItemWeight"`
}

type company struct {
	Cad string `json:"cad"`
}

type identificationKey struct {
	Code string `json:"gs1TradeItemIdentificationKeyCode"`
}

type descriptionInformation struct {
	Description string `json:"tradeItemDescription"`
}

type referencedFile struct {
	URI          string `json:"uniformResourceIdentifier"`
	TypeCode     string `json:"referencedFileTypeCode"`
	FeaturedFile bool   `json:"featuredFile"`
}

type brandInformation struct {
	Name string `json:"brandName"`
}

type measurements struct {
	NetContent quantity `json:"netContent"`
}

type quantity struct {
	Unit  *string `json:"measurementUnitCode"`
	Value measure `json:"value"`
}

type classification struct {
	Additional []additionalClassification `json:"additionalTradeItemClassifications"`
	GPC        string                     `json:"gpcCategoryCode"`
}

type additionalClassification struct {
	System string `json:"additionalTradeItemClassificationSystemCode"`
	Value  string `json:"additionalTradeItemClassificationCodeValue"`
}

type tradeItem struct {
	TargetMarket   targetMarket `json:"targetMarket"`
	UnitDescriptor string       `json:"tradeItemUnitDescriptorCode"`
}

type targetMarket struct {
	Countries []string `json:"targetMarketCountryCodes"`
}

type placeOfProductActivity struct {
	CountryOfOrigin countryOfOrigin `json:"countryOfOrigin"`
}

type countryOfOrigin struct {
	Subdivisions []string `json:"countrySubdivisionCodes"`
	Country      string   `json:"countryCode"`
}

type additionalIdentification struct {
	Type  string `json:"additionalTradeItemIdentificationTypeCode"`
	Value string `json:"additionalTradeItemIdentificationValue"`
}

type tradeItemWeight struct {
	Gross quantity `json:"grossWeight"`
	Net   quantity `json:"netWeight"`
}

// measure is a numeric body value. Cells that did not hold a number are sent
// as null.
type measure decimal.NullDecimal

func (m measure) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return []byte(m.Decimal.String()), nil
}

// newProductRequest builds the registration body for row.
func newProductRequest(p Product, row barcode.InputRow) productRequest {
	unit := p.MeasurementUnit

	classifications := []additionalClassification{
		{System: classificationNCM, Value: Mask(row.NCM, NCMPattern)},
	}
	if row.HasCEST() {
		classifications = append(classifications, additionalClassification{
			System: classificationCEST,
			Value:  Mask(row.CEST, CESTPattern),
		})
	}

	return productRequest{
		Company:        company{Cad: p.CompanyPrefix},
		GTINStatusCode: statusActive,
		Key:            identificationKey{Code: keyCodeGTIN13},
		Description:    descriptionInformation{Description: row.Description},
		ReferencedFiles: []referencedFile{
			{URI: row.ImageLink, TypeCode: fileTypePlanogram, FeaturedFile: true},
		},
		Brand: brandInformation{Name: row.Brand},
		Measurements: measurements{
			NetContent: quantity{Unit: &unit, Value: measure(row.NetWeight)},
		},
		Classification: classification{
			Additional: classifications,
			GPC:        row.GPC,
		},
		WithoutCEST: !row.HasCEST(),
		TradeItem: tradeItem{
			TargetMarket:   targetMarket{Countries: []string{p.TargetMarket}},
			UnitDescriptor: p.UnitDescriptor,
		},
		PlaceOfProductActivity: placeOfProductActivity{
			CountryOfOrigin: countryOfOrigin{Subdivisions: []string{}, Country: p.CountryOfOrigin},
		},
		AdditionalIdentifications: []additionalIdentification{
			{Type: identificationType, Value: row.Reference},
		},
		AcceptResponsibility: true,
		ShareDataIndicator:   true,
		Weight: tradeItemWeight{
			Gross: quantity{Unit: &unit, Value: measure(row.GrossWeight)},
			Net:   quantity{},
		},
	}
}

type tokenRequest struct {
	GrantType string `json:"grant_type"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type productResponse struct {
	Result  string `json:"result"`
	Product *struct {
		GTINStatusCode string `json:"gtinStatusCode"`
		Key            struct {
			Code string `json:"gs1TradeItemIdentificationKeyCode"`
			GTIN string `json:"gtin"`
		} `json:"gs1TradeItemIdentificationKey"`
	} `json:"product"`
}

type errorResponse struct {
	StatusCode int             `json:"statusCode"`
	Error      string          `json:"error"`
	Message    json.RawMessage `json:"message"`
}
