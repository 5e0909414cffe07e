package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/mrz"
	"github.com/MeKo-Tech/docscan/internal/ocr"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/settings"
	"github.com/MeKo-Tech/docscan/internal/status"
)

const mrzAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789<"

type mrtdBackend struct {
	ocrBackend
	cfg settings.MRTDSettings
}

// NewMRTD builds the machine readable travel document back-end.
func NewMRTD(s *settings.Settings, deps *Deps) (Backend, error) {
	cfg, ok := s.MRTD()
	if !ok {
		return nil, fmt.Errorf("mrtd disabled: %w", status.ErrInvalidArgument)
	}
	base, err := newOCRBackend(result.KindMRTD, deps, s.OCRLanguages())
	if err != nil {
		return nil, err
	}
	return &mrtdBackend{ocrBackend: base, cfg: cfg}, nil
}

func (b *mrtdBackend) Attempt(ctx context.Context, in *Input) (*result.Result, error) {
	lines, err := b.lines(ctx, in.Upright, mrzAlphabet)
	if err != nil {
		return nil, err
	}
	zone, zoneLines := findZone(lines)
	if zone == nil && b.cfg.AllowUnparsedResults {
		zone, zoneLines = zoneCandidates(lines)
	}
	if zone == nil {
		return nil, nil
	}

	payload := result.MRTD{RawMRZ: strings.Join(zone, "\n")}
	doc, err := mrz.Parse(zone)
	switch {
	case err != nil && !b.cfg.AllowUnparsedResults:
		slog.Debug("MRZ found but not parseable", "error", err)
		return nil, nil
	case err == nil:
		if !doc.Verified() && !b.cfg.AllowUnverifiedResults {
			slog.Debug("MRZ check digits failed", "fields", doc.FailedChecks())
			return nil, nil
		}
		fillMRTD(&payload, doc)
	}

	if b.cfg.ShowFullDocument {
		payload.Images = append(payload.Images, result.NamedImage{Name: "full_document", Image: in.Upright})
	}
	if b.cfg.ShowMachineReadableZone {
		if img, ok := cropNamed("mrz", in.Upright, unionBox(zoneLines)); ok {
			payload.Images = append(payload.Images, img)
		}
	}
	r := result.NewMRTD(payload).WithConfidence(ocr.MeanConfidence(zoneLines))
	return &r, nil
}

// findZone locates the zone and returns it together with the OCR lines it
// was read from.
func findZone(lines []ocr.Line) ([]string, []ocr.Line) {
	zone, ok := mrz.Find(ocr.Texts(lines))
	if !ok {
		return nil, nil
	}
	var matched []ocr.Line
	next := len(zone) - 1
	for i := len(lines) - 1; i >= 0 && next >= 0; i-- {
		if mrz.Normalize(lines[i].Text) == zone[next] {
			matched = append([]ocr.Line{lines[i]}, matched...)
			next--
		}
	}
	return zone, matched
}

// zoneCandidates returns the lines that look like zone text even though
// they do not form a complete zone.
func zoneCandidates(lines []ocr.Line) ([]string, []ocr.Line) {
	var zone []string
	var matched []ocr.Line
	for _, l := range lines {
		if mrz.LooksLikeZone([]string{l.Text}) {
			zone = append(zone, mrz.Normalize(l.Text))
			matched = append(matched, l)
		}
	}
	return zone, matched
}

func fillMRTD(p *result.MRTD, doc *mrz.Document) {
	p.Parsed = true
	p.Verified = doc.Verified()
	p.DocumentType = documentType(doc)
	p.DocumentCode = doc.DocumentCode
	p.Issuer = doc.Issuer
	p.DocumentNumber = doc.DocumentNumber
	p.Opt1 = doc.Opt1
	p.Opt2 = doc.Opt2
	p.DateOfBirth = doc.DateOfBirth
	p.Sex = doc.Sex
	p.DateOfExpiry = doc.DateOfExpiry
	p.Nationality = doc.Nationality
	p.PrimaryID = doc.PrimaryID
	p.SecondaryID = doc.SecondaryID
	if p.DocumentType == result.MRTDGreenCard {
		p.ApplicationReceiptNumber = doc.Opt1
		p.AlienNumber = doc.Opt2
	}
}

// documentType classifies a zone by its document code. US permanent
// resident cards use C1/C2 codes issued by USA.
func documentType(doc *mrz.Document) result.MRTDDocumentType {
	code := doc.DocumentCode
	switch {
	case strings.HasPrefix(code, "P"):
		return result.MRTDPassport
	case strings.HasPrefix(code, "V"):
		return result.MRTDVisa
	case strings.HasPrefix(code, "C") && doc.Issuer == "USA":
		return result.MRTDGreenCard
	case strings.HasPrefix(code, "I"), strings.HasPrefix(code, "A"), strings.HasPrefix(code, "C"):
		return result.MRTDIdentityCard
	default:
		return result.MRTDUnknown
	}
}
