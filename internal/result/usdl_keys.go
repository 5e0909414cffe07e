package result

// AAMVA data element identifiers used by the USDL payload.
const (
	USDLDocumentType        = "DL"
	USDLCustomerID          = "DAQ"
	USDLFamilyName          = "DCS"
	USDLFirstName           = "DAC"
	USDLMiddleName          = "DAD"
	USDLFullName            = "DAA"
	USDLDateOfBirth         = "DBB"
	USDLDateOfExpiry        = "DBA"
	USDLDateOfIssue         = "DBD"
	USDLSex                 = "DBC"
	USDLEyeColor            = "DAY"
	USDLHeight              = "DAU"
	USDLWeightPounds        = "DAW"
	USDLStreet              = "DAG"
	USDLStreet2             = "DAH"
	USDLCity                = "DAI"
	USDLJurisdiction        = "DAJ"
	USDLPostalCode          = "DAK"
	USDLCountry             = "DCG"
	USDLVehicleClass        = "DCA"
	USDLRestrictions        = "DCB"
	USDLEndorsements        = "DCD"
	USDLDocumentDiscrim     = "DCF"
	USDLFamilyNameTrunc     = "DDE"
	USDLFirstNameTrunc      = "DDF"
	USDLMiddleNameTrunc     = "DDG"
	USDLHairColor           = "DAZ"
	USDLNameSuffix          = "DCU"
	USDLInventoryControl    = "DCK"
	USDLAuditInformation    = "DCJ"
	USDLComplianceType      = "DDA"
	USDLCardRevisionDate    = "DDB"
	USDLUnder18Until        = "DDH"
	USDLUnder19Until        = "DDI"
	USDLUnder21Until        = "DDJ"
	USDLOrganDonor          = "DDK"
	USDLVeteran             = "DDL"
	USDLPlaceOfBirth        = "DCI"
	USDLRace                = "DCL"
	USDLStandardVehicle     = "DCM"
	USDLStandardEndorsement = "DCN"
	USDLStandardRestriction = "DCO"
)

// USDLKeys is the set of element identifiers accepted by USDL.Field.
var USDLKeys = map[string]struct{}{
	USDLCustomerID: {}, USDLFamilyName: {}, USDLFirstName: {}, USDLMiddleName: {},
	USDLFullName: {}, USDLDateOfBirth: {}, USDLDateOfExpiry: {}, USDLDateOfIssue: {},
	USDLSex: {}, USDLEyeColor: {}, USDLHeight: {}, USDLWeightPounds: {},
	USDLStreet: {}, USDLStreet2: {}, USDLCity: {}, USDLJurisdiction: {},
	USDLPostalCode: {}, USDLCountry: {}, USDLVehicleClass: {}, USDLRestrictions: {},
	USDLEndorsements: {}, USDLDocumentDiscrim: {}, USDLFamilyNameTrunc: {},
	USDLFirstNameTrunc: {}, USDLMiddleNameTrunc: {}, USDLHairColor: {},
	USDLNameSuffix: {}, USDLInventoryControl: {}, USDLAuditInformation: {},
	USDLComplianceType: {}, USDLCardRevisionDate: {}, USDLUnder18Until: {},
	USDLUnder19Until: {}, USDLUnder21Until: {}, USDLOrganDonor: {}, USDLVeteran: {},
	USDLPlaceOfBirth: {}, USDLRace: {}, USDLStandardVehicle: {},
	USDLStandardEndorsement: {}, USDLStandardRestriction: {},
}
