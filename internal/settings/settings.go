// Package settings holds the configuration a Recognizer is bound to: which
// formats are enabled (each with its own sub-settings), the license
// credential, the resources location and the multiple-results policy.
//
// Setters never fail; validation happens when a Recognizer first dispatches.
// A Recognizer binds a Clone of the Settings, so callers may keep mutating
// their value without affecting passes that are already configured.
package settings

import (
	"github.com/MeKo-Tech/docscan/internal/result"
)

// Settings is the recognizer configuration. A nil sub-settings pointer
// means the format is disabled. The zero value has nothing enabled.
type Settings struct {
	barDecoder *BarDecoderSettings
	zxing      *ZXingSettings
	pdf417     *PDF417Settings
	usdl       *USDLSettings
	mrtd       *MRTDSettings
	myKad      *MyKadSettings
	iKad       *IKadSettings
	blinkInput *BlinkInputSettings

	licenseKey            string
	licensee              string
	resourcesLocation     string
	outputMultipleResults bool
	ocrLanguages          []string
}

// New returns settings with no format enabled.
func New() *Settings { return &Settings{} }

// SetBarDecoder enables the 1-D decoder, or disables it when s is nil.
func (s *Settings) SetBarDecoder(v *BarDecoderSettings) { s.barDecoder = copyOf(v) }

// BarDecoder returns a copy of the sub-settings and whether the format is enabled.
func (s *Settings) BarDecoder() (BarDecoderSettings, bool) { return valueOf(s.barDecoder) }

// SetZXing enables the generic decoder, or disables it when v is nil.
func (s *Settings) SetZXing(v *ZXingSettings) { s.zxing = copyOf(v) }

// ZXing returns a copy of the sub-settings and whether the format is enabled.
func (s *Settings) ZXing() (ZXingSettings, bool) { return valueOf(s.zxing) }

// SetPDF417 enables the PDF417 decoder, or disables it when v is nil.
func (s *Settings) SetPDF417(v *PDF417Settings) { s.pdf417 = copyOf(v) }

// PDF417 returns a copy of the sub-settings and whether the format is enabled.
func (s *Settings) PDF417() (PDF417Settings, bool) { return valueOf(s.pdf417) }

// SetUSDL enables driver license scanning, or disables it when v is nil.
func (s *Settings) SetUSDL(v *USDLSettings) { s.usdl = copyOf(v) }

// USDL returns a copy of the sub-settings and whether the format is enabled.
func (s *Settings) USDL() (USDLSettings, bool) { return valueOf(s.usdl) }

// SetMRTD enables travel document scanning, or disables it when v is nil.
func (s *Settings) SetMRTD(v *MRTDSettings) { s.mrtd = copyOf(v) }

// MRTD returns a copy of the sub-settings and whether the format is enabled.
func (s *Settings) MRTD() (MRTDSettings, bool) { return valueOf(s.mrtd) }

// SetMyKad enables MyKad scanning, or disables it when v is nil.
func (s *Settings) SetMyKad(v *MyKadSettings) { s.myKad = copyOf(v) }

// MyKad returns a copy of the sub-settings and whether the format is enabled.
func (s *Settings) MyKad() (MyKadSettings, bool) { return valueOf(s.myKad) }

// SetIKad enables iKad scanning, or disables it when v is nil.
func (s *Settings) SetIKad(v *IKadSettings) { s.iKad = copyOf(v) }

// IKad returns a copy of the sub-settings and whether the format is enabled.
func (s *Settings) IKad() (IKadSettings, bool) { return valueOf(s.iKad) }

// SetBlinkInput enables template parsing, or disables it when v is nil.
func (s *Settings) SetBlinkInput(v *BlinkInputSettings) {
	if v == nil {
		s.blinkInput = nil
		return
	}
	s.blinkInput = v.clone()
}

// BlinkInput returns a copy of the sub-settings and whether the format is enabled.
func (s *Settings) BlinkInput() (BlinkInputSettings, bool) {
	if s.blinkInput == nil {
		return BlinkInputSettings{}, false
	}
	return *s.blinkInput.clone(), true
}

// Disable switches off one format.
func (s *Settings) Disable(kind result.Kind) {
	switch kind {
	case result.KindBarDecoder:
		s.barDecoder = nil
	case result.KindZXing:
		s.zxing = nil
	case result.KindPDF417:
		s.pdf417 = nil
	case result.KindUSDL:
		s.usdl = nil
	case result.KindMRTD:
		s.mrtd = nil
	case result.KindMyKad:
		s.myKad = nil
	case result.KindIKad:
		s.iKad = nil
	case result.KindBlinkInput:
		s.blinkInput = nil
	}
}

// EnableDefaults switches on kind with its default sub-settings. Unknown
// kinds are ignored.
func (s *Settings) EnableDefaults(kind result.Kind) {
	switch kind {
	case result.KindBarDecoder:
		s.barDecoder = DefaultBarDecoderSettings()
	case result.KindZXing:
		s.zxing = DefaultZXingSettings()
	case result.KindPDF417:
		s.pdf417 = DefaultPDF417Settings()
	case result.KindUSDL:
		s.usdl = DefaultUSDLSettings()
	case result.KindMRTD:
		s.mrtd = DefaultMRTDSettings()
	case result.KindMyKad:
		s.myKad = DefaultMyKadSettings()
	case result.KindIKad:
		s.iKad = DefaultIKadSettings()
	case result.KindBlinkInput:
		s.blinkInput = DefaultBlinkInputSettings()
	}
}

// Enabled reports whether kind is switched on.
func (s *Settings) Enabled(kind result.Kind) bool {
	switch kind {
	case result.KindBarDecoder:
		return s.barDecoder != nil
	case result.KindZXing:
		return s.zxing != nil
	case result.KindPDF417:
		return s.pdf417 != nil
	case result.KindUSDL:
		return s.usdl != nil
	case result.KindMRTD:
		return s.mrtd != nil
	case result.KindMyKad:
		return s.myKad != nil
	case result.KindIKad:
		return s.iKad != nil
	case result.KindBlinkInput:
		return s.blinkInput != nil
	default:
		return false
	}
}

// EnabledKinds lists the enabled formats in dispatch priority order.
func (s *Settings) EnabledKinds() []result.Kind {
	var kinds []result.Kind
	for _, k := range result.Priority {
		if s.Enabled(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// SetLicenseKey stores a license key that is not bound to a licensee.
func (s *Settings) SetLicenseKey(key string) {
	s.licenseKey = key
	s.licensee = ""
}

// SetLicenseKeyForLicensee stores a license key issued to licensee.
func (s *Settings) SetLicenseKeyForLicensee(licensee, key string) {
	s.licenseKey = key
	s.licensee = licensee
}

// LicenseKey returns the stored key.
func (s *Settings) LicenseKey() string { return s.licenseKey }

// Licensee returns the licensee the key must belong to, or "" for any.
func (s *Settings) Licensee() string { return s.licensee }

// SetResourcesLocation stores the directory holding OCR models and data.
func (s *Settings) SetResourcesLocation(path string) { s.resourcesLocation = path }

// ResourcesLocation returns the resources directory.
func (s *Settings) ResourcesLocation() string { return s.resourcesLocation }

// SetOCRLanguages selects the OCR languages (engine specific codes).
func (s *Settings) SetOCRLanguages(langs ...string) { s.ocrLanguages = append([]string(nil), langs...) }

// OCRLanguages returns the configured OCR languages.
func (s *Settings) OCRLanguages() []string { return append([]string(nil), s.ocrLanguages...) }

// SetOutputMultipleResults selects collect-all (true) or first-match (false).
func (s *Settings) SetOutputMultipleResults(v bool) { s.outputMultipleResults = v }

// OutputMultipleResults reports the multiple-results policy.
func (s *Settings) OutputMultipleResults() bool { return s.outputMultipleResults }

// Clone returns a deep copy.
func (s *Settings) Clone() *Settings {
	out := *s
	out.barDecoder = copyOf(s.barDecoder)
	out.zxing = copyOf(s.zxing)
	out.pdf417 = copyOf(s.pdf417)
	out.usdl = copyOf(s.usdl)
	out.mrtd = copyOf(s.mrtd)
	out.myKad = copyOf(s.myKad)
	out.iKad = copyOf(s.iKad)
	if s.blinkInput != nil {
		out.blinkInput = s.blinkInput.clone()
	}
	out.ocrLanguages = append([]string(nil), s.ocrLanguages...)
	return &out
}

func copyOf[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func valueOf[T any](v *T) (T, bool) {
	if v == nil {
		var zero T
		return zero, false
	}
	return *v, true
}
