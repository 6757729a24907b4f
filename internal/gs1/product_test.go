package gs1

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/gtin-catalog/internal/domain/barcode"
	"github.com/xenking/gtin-catalog/internal/sheet"
)

func TestMask(t *testing.T) {
	tests := []struct {
		value   string
		pattern string
		want    string
	}{
		{value: "61091000", pattern: NCMPattern, want: "6109.10.00"},
		{value: "6109.10.00", pattern: NCMPattern, want: "6109.10.00"},
		{value: "6109", pattern: NCMPattern, want: "6109"},
		{value: "610910001234", pattern: NCMPattern, want: "6109.10.00"},
		{value: "2803800", pattern: CESTPattern, want: "28.038.00"},
		{value: " 28 038 00 ", pattern: CESTPattern, want: "28.038.00"},
		{value: "", pattern: CESTPattern, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.value, tt.pattern))
		})
	}
}

// decodeBody marshals the request for row and decodes it generically, the
// way the registry sees it.
func decodeBody(t *testing.T, row barcode.InputRow) map[string]any {
	t.Helper()
	data, err := json.Marshal(newProductRequest(Product{CompanyPrefix: "A10944"}.withDefaults(), row))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func classifications(t *testing.T, body map[string]any) []any {
	t.Helper()
	c, ok := body["tradeItemClassification"].(map[string]any)
	require.True(t, ok)
	list, ok := c["additionalTradeItemClassifications"].([]any)
	require.True(t, ok)
	return list
}

func TestProductRequest_WithoutCEST(t *testing.T) {
	body := decodeBody(t, testRow())

	assert.Equal(t, true, body["withoutCest"])
	list := classifications(t, body)
	require.Len(t, list, 1)
	assert.Equal(t, map[string]any{
		"additionalTradeItemClassificationSystemCode": "NCM",
		"additionalTradeItemClassificationCodeValue":  "6109.10.00",
	}, list[0])

	assert.Equal(t, "ACTIVE", body["gtinStatusCode"])
	assert.Equal(t, map[string]any{"gs1TradeItemIdentificationKeyCode": "GTIN_13"}, body["gs1TradeItemIdentificationKey"])
	assert.Equal(t, map[string]any{
		"targetMarket":                map[string]any{"targetMarketCountryCodes": []any{"076"}},
		"tradeItemUnitDescriptorCode": "BASE_UNIT_OR_EACH",
	}, body["tradeItem"])
	assert.Equal(t, map[string]any{
		"countryOfOrigin": map[string]any{"countrySubdivisionCodes": []any{}, "countryCode": "076"},
	}, body["placeOfProductActivity"])
	assert.Equal(t, []any{map[string]any{
		"additionalTradeItemIdentificationTypeCode": "FOR_INTERNAL_USE_1",
		"additionalTradeItemIdentificationValue":    "P-1",
	}}, body["additionalTradeItemIdentifications"])
	assert.Equal(t, []any{map[string]any{
		"uniformResourceIdentifier": "https://cdn.example.com/p1.jpg",
		"referencedFileTypeCode":    "PLANOGRAM",
		"featuredFile":              true,
	}}, body["referencedFileInformations"])

	assert.Equal(t, map[string]any{
		"grossWeight": map[string]any{"measurementUnitCode": "GRM", "value": 250.5},
		"netWeight":   map[string]any{"measurementUnitCode": nil, "value": nil},
	}, body["tradeItemWeight"])
	assert.Equal(t, map[string]any{
		"netContent": map[string]any{"measurementUnitCode": "GRM", "value": float64(200)},
	}, body["tradeItemMeasurements"])
}

func TestProductRequest_WithCEST(t *testing.T) {
	row := testRow()
	row.CEST = "2803800"

	body := decodeBody(t, row)

	assert.Equal(t, false, body["withoutCest"])
	list := classifications(t, body)
	require.Len(t, list, 2)
	assert.Equal(t, map[string]any{
		"additionalTradeItemClassificationSystemCode": "CEST",
		"additionalTradeItemClassificationCodeValue":  "28.038.00",
	}, list[1])
}

func TestProductRequest_InvalidWeightIsNull(t *testing.T) {
	row := testRow()
	row.NetWeight = sheet.ParseNumber("n/a")

	body := decodeBody(t, row)

	measurements := body["tradeItemMeasurements"].(map[string]any)
	netContent := measurements["netContent"].(map[string]any)
	assert.Nil(t, netContent["value"])
}

func TestDryRun(t *testing.T) {
	ctx := context.Background()
	var reg DryRun

	session, err := reg.Authenticate(ctx, testCreds)
	require.NoError(t, err)
	assert.Equal(t, "client-1", session.ClientID)

	out := reg.Register(ctx, testRow(), session)
	assert.Equal(t, barcode.Success("", StatusDryRun), out)

	bad := testRow()
	bad.NCM = "6109"
	out = reg.Register(ctx, bad, session)
	assert.Equal(t, barcode.OutcomeRejected, out.Kind)
	assert.Equal(t, "ncm must have 8 digits", out.Message)
}

func TestCheck(t *testing.T) {
	row := testRow()
	assert.Empty(t, Check(row))

	row.CEST = "28038"
	assert.Equal(t, "cest must have 7 digits", Check(row))

	row = testRow()
	row.Description = ""
	assert.Equal(t, "description required", Check(row))

	row = testRow()
	row.GPC = ""
	assert.Equal(t, "gpc required", Check(row))
}
