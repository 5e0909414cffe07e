package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MeKo-Tech/docscan/internal/ocr"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/settings"
	"github.com/MeKo-Tech/docscan/internal/status"
)

// iKad field labels, English and Malay.
var iKadLabels = []struct {
	field  string
	labels []string
}{
	{"name", []string{"NAME", "NAMA"}},
	{"passport_number", []string{"PASSPORT NO", "PASSPORT", "PASPORT"}},
	{"date_of_expiry", []string{"DATE OF EXPIRY", "EXPIRY DATE", "EXPIRY", "TARIKH TAMAT", "VALID UNTIL"}},
	{"sector", []string{"SECTOR", "SEKTOR"}},
	{"employer", []string{"EMPLOYER", "MAJIKAN"}},
	{"address", []string{"ADDRESS", "ALAMAT"}},
	{"nationality", []string{"NATIONALITY", "WARGANEGARA"}},
	{"sex", []string{"SEX", "JANTINA", "GENDER"}},
}

var iKadDateLayouts = []string{"02/01/2006", "02-01-2006", "02.01.2006", "2006-01-02", "02 Jan 2006", "2 Jan 2006"}

type iKadBackend struct {
	ocrBackend
	cfg settings.IKadSettings
}

// NewIKad builds the Malaysian immigrant card back-end.
func NewIKad(s *settings.Settings, deps *Deps) (Backend, error) {
	cfg, ok := s.IKad()
	if !ok {
		return nil, fmt.Errorf("ikad disabled: %w", status.ErrInvalidArgument)
	}
	base, err := newOCRBackend(result.KindIKad, deps, s.OCRLanguages())
	if err != nil {
		return nil, err
	}
	return &iKadBackend{ocrBackend: base, cfg: cfg}, nil
}

func (b *iKadBackend) Attempt(ctx context.Context, in *Input) (*result.Result, error) {
	lines, err := b.lines(ctx, in.Upright, "")
	if err != nil {
		return nil, err
	}
	values := labelledValues(ocr.Texts(lines))
	// Two labelled fields distinguish an iKad from arbitrary text.
	if len(values) < 2 {
		return nil, nil
	}
	payload := buildIKad(values, b.cfg)
	if b.cfg.ShowFullDocument {
		payload.Images = append(payload.Images, result.NamedImage{Name: "full_document", Image: in.Upright})
	}
	if b.cfg.ShowFaceImage {
		if img, ok := cropNamed("face", in.Upright, faceRegion(in.Upright.Bounds(), true)); ok {
			payload.Images = append(payload.Images, img)
		}
	}
	r := result.NewIKad(payload).WithConfidence(ocr.MeanConfidence(lines))
	return &r, nil
}

// labelledValues maps field names to the text after their label, or to
// the next line when the label stands alone.
func labelledValues(texts []string) map[string]string {
	values := make(map[string]string)
	for i, t := range texts {
		u := strings.TrimSpace(ocr.Upper(t))
		field, rest, ok := matchLabel(u)
		if !ok {
			continue
		}
		if _, seen := values[field]; seen {
			continue
		}
		value := strings.TrimSpace(strings.TrimLeft(rest, " :.-"))
		if value == "" && i+1 < len(texts) {
			next := strings.TrimSpace(ocr.Upper(texts[i+1]))
			if _, _, isLabel := matchLabel(next); !isLabel {
				value = next
			}
		}
		if value != "" {
			values[field] = strings.Join(strings.Fields(value), " ")
		}
	}
	return values
}

func matchLabel(u string) (field, rest string, ok bool) {
	for _, fl := range iKadLabels {
		for _, l := range fl.labels {
			if !strings.HasPrefix(u, l) {
				continue
			}
			rest := u[len(l):]
			// "NAMA" must not match "NAMAKU"; the label has to end at a
			// separator.
			if rest != "" && !strings.ContainsAny(rest[:1], " :.-/") {
				continue
			}
			return fl.field, rest, true
		}
	}
	return "", "", false
}

func buildIKad(values map[string]string, cfg settings.IKadSettings) result.IKad {
	out := result.IKad{Name: values["name"]}
	if cfg.ExtractPassportNumber {
		out.PassportNumber = strings.ReplaceAll(values["passport_number"], " ", "")
		out.Required = append(out.Required, "passport_number")
	}
	if cfg.ExtractExpiryDate {
		out.DateOfExpiry = parseIKadDate(values["date_of_expiry"])
		out.Required = append(out.Required, "date_of_expiry")
	}
	if cfg.ExtractSector {
		out.Sector = values["sector"]
		out.Required = append(out.Required, "sector")
	}
	if cfg.ExtractEmployer {
		out.Employer = values["employer"]
		out.Required = append(out.Required, "employer")
	}
	if cfg.ExtractAddress {
		out.Address = values["address"]
		out.Required = append(out.Required, "address")
	}
	if cfg.ExtractNationality {
		out.Nationality = values["nationality"]
		out.Required = append(out.Required, "nationality")
	}
	if cfg.ExtractSex {
		out.Sex = sexOf(values["sex"])
		if out.Sex == "" {
			out.Sex = values["sex"]
		}
		out.Required = append(out.Required, "sex")
	}
	return out
}

func parseIKadDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range iKadDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
