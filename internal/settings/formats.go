package settings

// BarDecoderSettings configures the dedicated 1-D decoder.
type BarDecoderSettings struct {
	ScanCode39        bool `mapstructure:"scan_code39" yaml:"scan_code39"`
	ScanCode128       bool `mapstructure:"scan_code128" yaml:"scan_code128"`
	ShouldScanInverse bool `mapstructure:"scan_inverse" yaml:"scan_inverse"`
	TryHarder         bool `mapstructure:"try_harder" yaml:"try_harder"`
	// UseAutoScale retries at other scales when the first attempt finds nothing.
	UseAutoScale bool `mapstructure:"auto_scale" yaml:"auto_scale"`
}

// DefaultBarDecoderSettings enables both symbologies.
func DefaultBarDecoderSettings() *BarDecoderSettings {
	return &BarDecoderSettings{ScanCode39: true, ScanCode128: true}
}

// ZXingSettings configures the generic multi-format decoder.
type ZXingSettings struct {
	ScanAztec         bool `mapstructure:"scan_aztec" yaml:"scan_aztec"`
	ScanCode128       bool `mapstructure:"scan_code128" yaml:"scan_code128"`
	ScanCode39        bool `mapstructure:"scan_code39" yaml:"scan_code39"`
	ScanDataMatrix    bool `mapstructure:"scan_data_matrix" yaml:"scan_data_matrix"`
	ScanEAN13         bool `mapstructure:"scan_ean13" yaml:"scan_ean13"`
	ScanEAN8          bool `mapstructure:"scan_ean8" yaml:"scan_ean8"`
	ScanITF           bool `mapstructure:"scan_itf" yaml:"scan_itf"`
	ScanQRCode        bool `mapstructure:"scan_qr_code" yaml:"scan_qr_code"`
	ScanUPCA          bool `mapstructure:"scan_upca" yaml:"scan_upca"`
	ScanUPCE          bool `mapstructure:"scan_upce" yaml:"scan_upce"`
	ShouldScanInverse bool `mapstructure:"scan_inverse" yaml:"scan_inverse"`
	SlowThoroughScan  bool `mapstructure:"slow_thorough_scan" yaml:"slow_thorough_scan"`
}

// DefaultZXingSettings enables QR codes only.
func DefaultZXingSettings() *ZXingSettings {
	return &ZXingSettings{ScanQRCode: true}
}

// AnyEnabled reports whether at least one symbology is switched on.
func (z *ZXingSettings) AnyEnabled() bool {
	return z.ScanAztec || z.ScanCode128 || z.ScanCode39 || z.ScanDataMatrix ||
		z.ScanEAN13 || z.ScanEAN8 || z.ScanITF || z.ScanQRCode || z.ScanUPCA || z.ScanUPCE
}

// PDF417Settings configures the PDF417 decoder.
type PDF417Settings struct {
	ShouldScanInverse    bool `mapstructure:"scan_inverse" yaml:"scan_inverse"`
	NullQuietZoneAllowed bool `mapstructure:"null_quiet_zone" yaml:"null_quiet_zone"`
	ShouldScanUncertain  bool `mapstructure:"scan_uncertain" yaml:"scan_uncertain"`
}

// DefaultPDF417Settings matches the SDK defaults: all relaxations off.
func DefaultPDF417Settings() *PDF417Settings { return &PDF417Settings{} }

// USDLSettings configures driver license scanning.
type USDLSettings struct {
	NullQuietZoneAllowed bool `mapstructure:"null_quiet_zone" yaml:"null_quiet_zone"`
	ShouldScanUncertain  bool `mapstructure:"scan_uncertain" yaml:"scan_uncertain"`
	UseAutoScale         bool `mapstructure:"auto_scale" yaml:"auto_scale"`
}

// DefaultUSDLSettings enables auto scaling.
func DefaultUSDLSettings() *USDLSettings { return &USDLSettings{UseAutoScale: true} }

// MRTDSettings configures machine readable zone recognition.
type MRTDSettings struct {
	// AllowUnparsedResults returns raw zone text when it cannot be parsed.
	AllowUnparsedResults bool `mapstructure:"allow_unparsed" yaml:"allow_unparsed"`
	// AllowUnverifiedResults returns parsed zones whose check digits fail.
	AllowUnverifiedResults  bool `mapstructure:"allow_unverified" yaml:"allow_unverified"`
	ShowFullDocument        bool `mapstructure:"show_full_document" yaml:"show_full_document"`
	ShowMachineReadableZone bool `mapstructure:"show_mrz" yaml:"show_mrz"`
}

// DefaultMRTDSettings returns only parsed and verified zones.
func DefaultMRTDSettings() *MRTDSettings { return &MRTDSettings{} }

// MyKadSettings configures MyKad recognition.
type MyKadSettings struct {
	ShowFullDocument bool `mapstructure:"show_full_document" yaml:"show_full_document"`
	ShowFaceImage    bool `mapstructure:"show_face_image" yaml:"show_face_image"`
}

// DefaultMyKadSettings attaches no images.
func DefaultMyKadSettings() *MyKadSettings { return &MyKadSettings{} }

// IKadSettings configures iKad recognition. The Extract flags select the
// fields that are read and required; the name is always read.
type IKadSettings struct {
	ShowFullDocument      bool `mapstructure:"show_full_document" yaml:"show_full_document"`
	ShowFaceImage         bool `mapstructure:"show_face_image" yaml:"show_face_image"`
	ExtractPassportNumber bool `mapstructure:"extract_passport_number" yaml:"extract_passport_number"`
	ExtractExpiryDate     bool `mapstructure:"extract_expiry_date" yaml:"extract_expiry_date"`
	ExtractSector         bool `mapstructure:"extract_sector" yaml:"extract_sector"`
	ExtractEmployer       bool `mapstructure:"extract_employer" yaml:"extract_employer"`
	ExtractAddress        bool `mapstructure:"extract_address" yaml:"extract_address"`
	ExtractNationality    bool `mapstructure:"extract_nationality" yaml:"extract_nationality"`
	ExtractSex            bool `mapstructure:"extract_sex" yaml:"extract_sex"`
}

// DefaultIKadSettings extracts every field.
func DefaultIKadSettings() *IKadSettings {
	return &IKadSettings{
		ExtractPassportNumber: true,
		ExtractExpiryDate:     true,
		ExtractSector:         true,
		ExtractEmployer:       true,
		ExtractAddress:        true,
		ExtractNationality:    true,
		ExtractSex:            true,
	}
}

// ParserType names a template parser implementation.
type ParserType string

const (
	ParserRaw   ParserType = "raw"
	ParserRegex ParserType = "regex"
	ParserDate  ParserType = "date"
	ParserIBAN  ParserType = "iban"
)

// ParserSpec configures one template parser.
type ParserSpec struct {
	Name string     `mapstructure:"name" yaml:"name"`
	Type ParserType `mapstructure:"type" yaml:"type"`
	// Pattern is the regular expression for regex parsers. When it has a
	// capture group the first group is the value.
	Pattern string `mapstructure:"pattern" yaml:"pattern,omitempty"`
	// DateFormats are Go reference layouts tried in order by date parsers.
	DateFormats []string `mapstructure:"date_formats" yaml:"date_formats,omitempty"`
	Required    bool     `mapstructure:"required" yaml:"required,omitempty"`
}

// ParserGroup is a named set of parsers run over the same OCR text.
type ParserGroup struct {
	Name    string       `mapstructure:"name" yaml:"name"`
	Parsers []ParserSpec `mapstructure:"parsers" yaml:"parsers"`
}

// BlinkInputSettings configures free-form OCR with template parsers.
type BlinkInputSettings struct {
	AllowFlippedRecognition bool          `mapstructure:"allow_flipped" yaml:"allow_flipped"`
	Classification          string        `mapstructure:"classification" yaml:"classification,omitempty"`
	Groups                  []ParserGroup `mapstructure:"groups" yaml:"groups"`
}

// DefaultBlinkInputSettings has a single raw parser that returns all text.
func DefaultBlinkInputSettings() *BlinkInputSettings {
	return &BlinkInputSettings{
		Groups: []ParserGroup{{
			Name:    "default",
			Parsers: []ParserSpec{{Name: "text", Type: ParserRaw}},
		}},
	}
}

func (b *BlinkInputSettings) clone() *BlinkInputSettings {
	out := *b
	out.Groups = make([]ParserGroup, len(b.Groups))
	for i, g := range b.Groups {
		out.Groups[i] = ParserGroup{Name: g.Name, Parsers: make([]ParserSpec, len(g.Parsers))}
		for j, p := range g.Parsers {
			p.DateFormats = append([]string(nil), p.DateFormats...)
			out.Groups[i].Parsers[j] = p
		}
	}
	return &out
}
