package result

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/docscan/internal/status"
)

func sampleMRTD(verified bool) MRTD {
	return MRTD{
		DocumentType:   MRTDPassport,
		DocumentCode:   "P",
		Issuer:         "UTO",
		DocumentNumber: "L898902C3",
		PrimaryID:      "ERIKSSON",
		SecondaryID:    "ANNA MARIA",
		RawMRZ:         "P<UTOERIKSSON<<ANNA<MARIA",
		Parsed:         true,
		Verified:       verified,
	}
}

func TestAccessors_KindMismatchReturnsZero(t *testing.T) {
	r := NewMRTD(sampleMRTD(true))

	assert.True(t, r.IsMRTD())
	assert.False(t, r.IsZXing())

	b, ok := r.Barcode()
	assert.False(t, ok)
	assert.Equal(t, Barcode{}, b)

	u, ok := r.USDL()
	assert.False(t, ok)
	assert.Empty(t, u.Fields)

	v, err := r.USDLField(USDLCustomerID)
	require.NoError(t, err)
	assert.Empty(t, v)

	_, ok = r.MyKad()
	assert.False(t, ok)
	_, ok = r.IKad()
	assert.False(t, ok)
	_, ok = r.BlinkInput()
	assert.False(t, ok)

	m, ok := r.MRTD()
	require.True(t, ok)
	assert.Equal(t, "L898902C3", m.DocumentNumber)
}

func TestEmptyAndValidAreIndependent(t *testing.T) {
	tests := []struct {
		name      string
		r         Result
		wantEmpty bool
		wantValid bool
	}{
		{"zero result", Result{}, true, false},
		{"verified mrz", NewMRTD(sampleMRTD(true)), false, true},
		{"unverified mrz", NewMRTD(sampleMRTD(false)), false, false},
		{"raw only mrz", NewMRTD(MRTD{RawMRZ: "P<UTO"}), false, false},
		{"empty barcode", NewZXing(Barcode{Symbology: "QR_CODE"}), true, false},
		{"barcode", NewZXing(Barcode{Symbology: "QR_CODE", Text: "hi"}), false, true},
		{"uncertain barcode", NewPDF417(Barcode{Symbology: "PDF_417", Text: "x", Uncertain: true}), false, false},
		{"binary barcode", NewBarDecoder(Barcode{Symbology: "CODE_128", RawBytes: []byte{1}}), false, true},
		{"mykad without birth date", NewMyKad(MyKad{NRICNumber: "900101-14-5678", OwnerFullName: "ALI"}), false, false},
		{"mykad", NewMyKad(MyKad{NRICNumber: "900101-14-5678", OwnerFullName: "ALI", BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)}), false, true},
		{"ikad missing required", NewIKad(IKad{Name: "JOHN", Required: []string{"passport_number"}}), false, false},
		{"ikad", NewIKad(IKad{Name: "JOHN", PassportNumber: "A1234567", Required: []string{"passport_number"}}), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantEmpty, tt.r.IsEmpty())
			assert.Equal(t, tt.wantValid, tt.r.IsValid())
		})
	}
}

func TestUSDLField(t *testing.T) {
	u := USDL{Fields: map[string]string{USDLCustomerID: "D1234567", USDLFamilyName: "DOE"}, Raw: "@"}
	r := NewUSDL(u)
	assert.True(t, r.IsValid())

	v, err := r.USDLField("daq")
	require.NoError(t, err)
	assert.Equal(t, "D1234567", v)

	v, err = r.USDLField(USDLCity)
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = r.USDLField("XYZ")
	assert.ErrorIs(t, err, status.ErrUnknownKey)
}

func TestBlinkInputAccessors(t *testing.T) {
	d := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	b := BlinkInput{Groups: []ParsedGroup{{
		Name: "invoice",
		Fields: []ParsedField{
			{Parser: "amount", Type: "regex", Value: "12.50", Found: true},
			{Parser: "due", Type: "date", Value: "04.03.2026", Date: &d, Found: true},
			{Parser: "iban", Type: "iban", Required: true},
		},
	}}}
	r := NewBlinkInput(b)
	assert.False(t, r.IsEmpty())
	assert.False(t, r.IsValid(), "required parser missing")

	got, ok := r.BlinkInput()
	require.True(t, ok)
	s, ok := got.ParsedString("invoice", "amount")
	assert.True(t, ok)
	assert.Equal(t, "12.50", s)
	dt, ok := got.ParsedDate("invoice", "due")
	assert.True(t, ok)
	assert.Equal(t, d, dt)
	_, ok = got.ParsedDate("invoice", "amount")
	assert.False(t, ok)
	_, ok = got.ParsedString("other", "amount")
	assert.False(t, ok)
}

func TestList_At(t *testing.T) {
	agg := NewAggregator()
	agg.Add(NewZXing(Barcode{Symbology: "QR_CODE", Text: "a"}))
	l := agg.List()

	r, err := l.At(0)
	require.NoError(t, err)
	assert.Equal(t, KindZXing, r.Kind())

	_, err = l.At(1)
	assert.ErrorIs(t, err, status.ErrIndexOutOfRange)
	_, err = l.At(-1)
	assert.ErrorIs(t, err, status.ErrIndexOutOfRange)

	var nilList *List
	assert.Equal(t, 0, nilList.Len())
}

func TestAggregator_OrderAndDedupe(t *testing.T) {
	agg := NewAggregator()
	assert.True(t, agg.Add(NewBarDecoder(Barcode{Symbology: "CODE_128", Text: "1"})))
	assert.True(t, agg.Add(NewMRTD(sampleMRTD(true))))
	assert.False(t, agg.Add(NewBarDecoder(Barcode{Symbology: "CODE_128", Text: "1"})), "duplicate dropped")
	assert.True(t, agg.Add(NewZXing(Barcode{Symbology: "CODE_128", Text: "1"})), "same content, different kind")
	assert.False(t, agg.Add(Result{}))

	l := agg.List()
	assert.Equal(t, []Kind{KindBarDecoder, KindMRTD, KindZXing}, l.Kinds())
	assert.Equal(t, 3, l.ValidCount())

	agg.Add(NewMyKad(MyKad{NRICNumber: "1"}))
	assert.Equal(t, 3, l.Len(), "sealed list is not affected by later adds")

	agg.Discard()
	assert.Equal(t, 0, agg.Len())
	assert.True(t, agg.Add(NewBarDecoder(Barcode{Symbology: "CODE_128", Text: "1"})), "discard forgets fingerprints")
}

func TestMarshal(t *testing.T) {
	agg := NewAggregator()
	agg.Add(NewMRTD(sampleMRTD(true)))
	l := agg.List()

	data, err := json.Marshal(l)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "mrtd", decoded[0]["kind"])
	assert.Equal(t, true, decoded[0]["valid"])
	mrtd, ok := decoded[0]["mrtd"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "passport", mrtd["document_type"])
	assert.NotContains(t, decoded[0], "barcode")

	y, err := yaml.Marshal(l)
	require.NoError(t, err)
	assert.Contains(t, string(y), "kind: mrtd")
	assert.Contains(t, string(y), "document_number: L898902C3")

	empty, err := json.Marshal(EmptyList())
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(empty))
}

func TestParseKind(t *testing.T) {
	for _, k := range Priority {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("ocr")
	assert.ErrorIs(t, err, status.ErrInvalidArgument)
	assert.True(t, KindPDF417.IsBarcode())
	assert.False(t, KindUSDL.IsBarcode())
}

func TestSummary(t *testing.T) {
	s := NewZXing(Barcode{Symbology: "QR_CODE", Text: "hello"}).Summary()
	assert.Contains(t, s, "zxing")
	assert.Contains(t, s, `"hello"`)
}

func TestImages(t *testing.T) {
	crop := NamedImage{Name: "face"}
	assert.Equal(t, []NamedImage{crop}, NewMRTD(MRTD{RawMRZ: "P<", Images: []NamedImage{crop}}).Images())
	assert.Equal(t, []NamedImage{crop}, NewMyKad(MyKad{NRICNumber: "1", Images: []NamedImage{crop}}).Images())
	assert.Equal(t, []NamedImage{crop}, NewIKad(IKad{Name: "A", Images: []NamedImage{crop}}).Images())
	assert.Nil(t, NewZXing(Barcode{Text: "x"}).Images())
}
