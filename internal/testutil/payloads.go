package testutil

import "fmt"

// Machine readable zones from the ICAO 9303 specimen documents. All check
// digits are valid.
var (
	PassportMRZ = []string{
		"P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<",
		"L898902C36UTO7408122F1204159ZE184226B<<<<<10",
	}
	IDCardMRZ = []string{
		"I<UTOD231458907<<<<<<<<<<<<<<<",
		"7408122F1204159UTO<<<<<<<<<<<6",
		"ERIKSSON<<ANNA<MARIA<<<<<<<<<<",
	}
	// BrokenPassportMRZ has a wrong document number check digit.
	BrokenPassportMRZ = []string{
		"P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<",
		"L898902C37UTO7408122F1204159ZE184226B<<<<<10",
	}
)

// MyKadLines is the OCR text of a MyKad front side.
var MyKadLines = []string{
	"KAD PENGENALAN MALAYSIA",
	"IDENTITY CARD",
	"850101-14-5567",
	"AHMAD BIN ABDULLAH",
	"12 JALAN MERDEKA",
	"50000 KUALA LUMPUR",
	"WARGANEGARA",
	"ISLAM",
	"LELAKI",
}

// IKadLines is the OCR text of an iKad front side.
var IKadLines = []string{
	"NAME: JOHN SMITH",
	"PASSPORT NO: A1234567",
	"DATE OF EXPIRY: 31/12/2030",
	"SECTOR: MANUFACTURING",
	"EMPLOYER: ACME SDN BHD",
	"ADDRESS: 1 JALAN AMPANG KUALA LUMPUR",
	"NATIONALITY: INDONESIA",
	"SEX: LELAKI",
}

// AAMVAPayload builds a version 8 driver license payload with one DL
// subfile carrying elements ("DAQD1234567\nDCSDOE\n...").
func AAMVAPayload(elements string) string {
	header := "@\n\x1e\rANSI 636014080001"
	body := "DL" + elements + "\r"
	offset := len(header) + 10
	return header + fmt.Sprintf("DL%04d%04d", offset, len(body)) + body
}

// SampleLicense is the element block of a complete license.
const SampleLicense = "DAQD1234567\nDCSDOE\nDACJOHN\nDBB01021990\nDBA01022030\nDAJCA\n"
