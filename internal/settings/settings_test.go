package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docscan/internal/result"
)

func TestNew_NothingEnabled(t *testing.T) {
	s := New()
	assert.Empty(t, s.EnabledKinds())
	_, ok := s.MRTD()
	assert.False(t, ok)
	assert.False(t, s.OutputMultipleResults())
}

func TestEnabledKinds_PriorityOrder(t *testing.T) {
	s := New()
	s.SetBlinkInput(DefaultBlinkInputSettings())
	s.SetZXing(DefaultZXingSettings())
	s.SetMRTD(DefaultMRTDSettings())
	s.SetBarDecoder(DefaultBarDecoderSettings())
	s.SetUSDL(DefaultUSDLSettings())

	assert.Equal(t, []result.Kind{
		result.KindBarDecoder,
		result.KindUSDL,
		result.KindMRTD,
		result.KindZXing,
		result.KindBlinkInput,
	}, s.EnabledKinds())

	s.Disable(result.KindMRTD)
	s.SetZXing(nil)
	assert.Equal(t, []result.Kind{result.KindBarDecoder, result.KindUSDL, result.KindBlinkInput}, s.EnabledKinds())
}

func TestSetters_CopyCallerValue(t *testing.T) {
	s := New()
	mrtd := &MRTDSettings{AllowUnverifiedResults: true}
	s.SetMRTD(mrtd)
	mrtd.AllowUnverifiedResults = false

	got, ok := s.MRTD()
	require.True(t, ok)
	assert.True(t, got.AllowUnverifiedResults)

	got.AllowUnparsedResults = true
	again, _ := s.MRTD()
	assert.False(t, again.AllowUnparsedResults, "getter returns a copy")
}

func TestLicense(t *testing.T) {
	s := New()
	s.SetLicenseKeyForLicensee("acme", "k1")
	assert.Equal(t, "acme", s.Licensee())
	assert.Equal(t, "k1", s.LicenseKey())

	s.SetLicenseKey("k2")
	assert.Empty(t, s.Licensee())
	assert.Equal(t, "k2", s.LicenseKey())
}

func TestClone_IsDeep(t *testing.T) {
	s := New()
	s.SetBlinkInput(&BlinkInputSettings{Groups: []ParserGroup{{
		Name:    "g",
		Parsers: []ParserSpec{{Name: "d", Type: ParserDate, DateFormats: []string{"02.01.2006"}}},
	}}})
	s.SetIKad(DefaultIKadSettings())
	s.SetResourcesLocation("/res")
	s.SetOCRLanguages("eng")
	s.SetOutputMultipleResults(true)

	c := s.Clone()
	s.SetIKad(nil)
	s.SetOutputMultipleResults(false)
	s.SetOCRLanguages("deu")

	assert.True(t, c.Enabled(result.KindIKad))
	assert.True(t, c.OutputMultipleResults())
	assert.Equal(t, "/res", c.ResourcesLocation())
	assert.Equal(t, []string{"eng"}, c.OCRLanguages())

	b, ok := c.BlinkInput()
	require.True(t, ok)
	b.Groups[0].Parsers[0].DateFormats[0] = "changed"
	again, _ := c.BlinkInput()
	assert.Equal(t, "02.01.2006", again.Groups[0].Parsers[0].DateFormats[0])
}

func TestZXingAnyEnabled(t *testing.T) {
	assert.True(t, DefaultZXingSettings().AnyEnabled())
	assert.False(t, (&ZXingSettings{SlowThoroughScan: true}).AnyEnabled())
}

func TestEnableDefaults(t *testing.T) {
	s := New()
	for _, k := range result.Priority {
		s.EnableDefaults(k)
	}
	assert.Equal(t, result.Priority, s.EnabledKinds())
	z, _ := s.ZXing()
	assert.True(t, z.ScanQRCode)
	ik, _ := s.IKad()
	assert.True(t, ik.ExtractSex)
}
