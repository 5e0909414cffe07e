package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/settings"
	"github.com/MeKo-Tech/docscan/internal/testutil"
)

func attempt(t *testing.T, f Factory, s *settings.Settings, fake *testutil.FakeEngine) *result.Result {
	t.Helper()
	b, err := f(s, NewDeps(fake.Factory(), ""))
	require.NoError(t, err)
	img := testutil.BlankImage(640, 480, 255)
	testutil.FlippedMarker(img)
	r, err := b.Attempt(context.Background(), inputOf(img))
	require.NoError(t, err)
	return r
}

func TestMRTD_Passport(t *testing.T) {
	s := settings.New()
	cfg := settings.DefaultMRTDSettings()
	cfg.ShowMachineReadableZone = true
	cfg.ShowFullDocument = true
	s.SetMRTD(cfg)
	fake := testutil.NewFakeEngine(append([]string{"PASSPORT", "UTOPIA"}, testutil.PassportMRZ...)...)

	r := attempt(t, NewMRTD, s, fake)
	require.NotNil(t, r)
	assert.True(t, r.IsMRTD())
	assert.True(t, r.IsValid())
	assert.False(t, r.IsEmpty())

	m, ok := r.MRTD()
	require.True(t, ok)
	assert.Equal(t, result.MRTDPassport, m.DocumentType)
	assert.Equal(t, "L898902C3", m.DocumentNumber)
	assert.Equal(t, "ERIKSSON", m.PrimaryID)
	assert.Equal(t, "ANNA MARIA", m.SecondaryID)
	assert.Equal(t, "740812", m.DateOfBirth)
	require.Len(t, m.Images, 2)
	assert.Equal(t, "full_document", m.Images[0].Name)
	assert.Equal(t, "mrz", m.Images[1].Name)

	opts := fake.Options()
	require.Len(t, opts, 1)
	assert.Equal(t, mrzAlphabet, opts[0].Whitelist)
}

func TestMRTD_IDCard(t *testing.T) {
	s := settings.New()
	s.SetMRTD(settings.DefaultMRTDSettings())
	r := attempt(t, NewMRTD, s, testutil.NewFakeEngine(testutil.IDCardMRZ...))
	require.NotNil(t, r)
	m, _ := r.MRTD()
	assert.Equal(t, result.MRTDIdentityCard, m.DocumentType)
	assert.Equal(t, "D23145890", m.DocumentNumber)
	assert.True(t, r.IsValid())
}

func TestMRTD_UnverifiedZone(t *testing.T) {
	s := settings.New()
	s.SetMRTD(settings.DefaultMRTDSettings())
	assert.Nil(t, attempt(t, NewMRTD, s, testutil.NewFakeEngine(testutil.BrokenPassportMRZ...)))

	s.SetMRTD(&settings.MRTDSettings{AllowUnverifiedResults: true})
	r := attempt(t, NewMRTD, s, testutil.NewFakeEngine(testutil.BrokenPassportMRZ...))
	require.NotNil(t, r)
	assert.False(t, r.IsValid())
	assert.False(t, r.IsEmpty())
	m, _ := r.MRTD()
	assert.True(t, m.Parsed)
	assert.False(t, m.Verified)
}

func TestMRTD_UnparsedZone(t *testing.T) {
	partial := []string{"P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<"}
	s := settings.New()
	s.SetMRTD(settings.DefaultMRTDSettings())
	assert.Nil(t, attempt(t, NewMRTD, s, testutil.NewFakeEngine(partial...)))

	s.SetMRTD(&settings.MRTDSettings{AllowUnparsedResults: true})
	r := attempt(t, NewMRTD, s, testutil.NewFakeEngine(partial...))
	require.NotNil(t, r)
	m, _ := r.MRTD()
	assert.False(t, m.Parsed)
	assert.Equal(t, partial[0], m.RawMRZ)
	assert.False(t, r.IsValid())
	assert.False(t, r.IsEmpty())
}

func TestMRTD_NoZone(t *testing.T) {
	s := settings.New()
	s.SetMRTD(settings.DefaultMRTDSettings())
	assert.Nil(t, attempt(t, NewMRTD, s, testutil.NewFakeEngine("hello", "world")))
}

func TestMyKad(t *testing.T) {
	s := settings.New()
	s.SetMyKad(&settings.MyKadSettings{ShowFaceImage: true})
	r := attempt(t, NewMyKad, s, testutil.NewFakeEngine(testutil.MyKadLines...))
	require.NotNil(t, r)
	assert.True(t, r.IsMyKad())
	assert.True(t, r.IsValid())

	k, ok := r.MyKad()
	require.True(t, ok)
	assert.Equal(t, "850101-14-5567", k.NRICNumber)
	assert.Equal(t, "AHMAD BIN ABDULLAH", k.OwnerFullName)
	assert.Equal(t, "12 JALAN MERDEKA, 50000 KUALA LUMPUR", k.OwnerAddress)
	assert.Equal(t, time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC), k.BirthDate)
	assert.Equal(t, "M", k.Sex)
	assert.Equal(t, "ISLAM", k.Religion)
	require.Len(t, k.Images, 1)
	assert.Equal(t, "face", k.Images[0].Name)
}

func TestMyKad_NoNRIC(t *testing.T) {
	s := settings.New()
	s.SetMyKad(settings.DefaultMyKadSettings())
	assert.Nil(t, attempt(t, NewMyKad, s, testutil.NewFakeEngine(testutil.IKadLines...)))
}

func TestBirthDate(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2005, birthDate("050315", now).Year())
	assert.Equal(t, 1999, birthDate("991231", now).Year())
	assert.True(t, birthDate("991332", now).IsZero())
}

func TestIKad(t *testing.T) {
	s := settings.New()
	s.SetIKad(settings.DefaultIKadSettings())
	r := attempt(t, NewIKad, s, testutil.NewFakeEngine(testutil.IKadLines...))
	require.NotNil(t, r)
	assert.True(t, r.IsIKad())
	assert.True(t, r.IsValid())

	k, _ := r.IKad()
	assert.Equal(t, "JOHN SMITH", k.Name)
	assert.Equal(t, "A1234567", k.PassportNumber)
	assert.Equal(t, time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC), k.DateOfExpiry)
	assert.Equal(t, "MANUFACTURING", k.Sector)
	assert.Equal(t, "ACME SDN BHD", k.Employer)
	assert.Equal(t, "INDONESIA", k.Nationality)
	assert.Equal(t, "M", k.Sex)
}

func TestIKad_MissingRequiredField(t *testing.T) {
	s := settings.New()
	s.SetIKad(settings.DefaultIKadSettings())
	r := attempt(t, NewIKad, s, testutil.NewFakeEngine(testutil.IKadLines[:3]...))
	require.NotNil(t, r)
	assert.False(t, r.IsValid())

	s.SetIKad(&settings.IKadSettings{ExtractPassportNumber: true})
	r = attempt(t, NewIKad, s, testutil.NewFakeEngine(testutil.IKadLines[:3]...))
	require.NotNil(t, r)
	assert.True(t, r.IsValid())
	k, _ := r.IKad()
	assert.True(t, k.DateOfExpiry.IsZero(), "disabled fields are not extracted")
}

func TestIKad_LabelOnItsOwnLine(t *testing.T) {
	values := labelledValues([]string{"NAMA", "SITI AMINAH", "MAJIKAN:", "ACME"})
	assert.Equal(t, "SITI AMINAH", values["name"])
	assert.Equal(t, "ACME", values["employer"])
}

func TestIKad_NotAnIKad(t *testing.T) {
	s := settings.New()
	s.SetIKad(settings.DefaultIKadSettings())
	assert.Nil(t, attempt(t, NewIKad, s, testutil.NewFakeEngine(testutil.MyKadLines...)))
}

func TestBlinkInput_Template(t *testing.T) {
	s := settings.New()
	s.SetBlinkInput(&settings.BlinkInputSettings{
		Classification: "invoice",
		Groups: []settings.ParserGroup{{
			Name: "payment",
			Parsers: []settings.ParserSpec{
				{Name: "iban", Type: settings.ParserIBAN, Required: true},
				{Name: "due", Type: settings.ParserDate},
				{Name: "amount", Type: settings.ParserRegex, Pattern: `EUR\s*([0-9.,]+)`},
			},
		}},
	})
	fake := testutil.NewFakeEngine("Invoice 42", "Pay to DE89 3704 0044 0532 0130 00", "due 15.03.2026", "Total EUR 99,50")
	r := attempt(t, NewBlinkInput, s, fake)
	require.NotNil(t, r)
	assert.True(t, r.IsBlinkInput())
	assert.True(t, r.IsValid())

	b, _ := r.BlinkInput()
	assert.Equal(t, "invoice", b.Classification)
	assert.False(t, b.Flipped)
	iban, ok := b.ParsedString("payment", "iban")
	require.True(t, ok)
	assert.Equal(t, "DE89370400440532013000", iban)
	due, ok := b.ParsedDate("payment", "due")
	require.True(t, ok)
	assert.Equal(t, time.March, due.Month())
	amount, _ := b.ParsedString("payment", "amount")
	assert.Equal(t, "99,50", amount)
}

func TestBlinkInput_FlippedRetry(t *testing.T) {
	spec := &settings.BlinkInputSettings{Groups: []settings.ParserGroup{{
		Name:    "g",
		Parsers: []settings.ParserSpec{{Name: "iban", Type: settings.ParserIBAN}},
	}}}
	fake := testutil.NewFakeEngine("garbled")
	fake.FlippedLines = testutil.LinesOf("DE89 3704 0044 0532 0130 00")

	s := settings.New()
	s.SetBlinkInput(spec)
	assert.Nil(t, attempt(t, NewBlinkInput, s, fake))

	spec.AllowFlippedRecognition = true
	s.SetBlinkInput(spec)
	r := attempt(t, NewBlinkInput, s, fake)
	require.NotNil(t, r)
	b, _ := r.BlinkInput()
	assert.True(t, b.Flipped)
}

func TestBlinkInput_InvalidParser(t *testing.T) {
	s := settings.New()
	s.SetBlinkInput(&settings.BlinkInputSettings{Groups: []settings.ParserGroup{{
		Name:    "g",
		Parsers: []settings.ParserSpec{{Name: "bad", Type: settings.ParserRegex, Pattern: "("}},
	}}})
	_, err := NewBlinkInput(s, NewDeps(testutil.NewFakeEngine().Factory(), ""))
	require.Error(t, err)
}
