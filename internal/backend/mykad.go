package backend

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/MeKo-Tech/docscan/internal/ocr"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/settings"
	"github.com/MeKo-Tech/docscan/internal/status"
)

var nricRe = regexp.MustCompile(`\b(\d{6})\s*-?\s*(\d{2})\s*-?\s*(\d{4})\b`)

// Card furniture that is never part of the owner's name or address.
var myKadBoilerplate = []string{"KAD PENGENALAN", "MALAYSIA", "IDENTITY CARD", "MYKAD", "WARGANEGARA"}

var religions = []string{"ISLAM", "KRISTIAN", "BUDDHA", "HINDU"}

type myKadBackend struct {
	ocrBackend
	cfg settings.MyKadSettings
	now func() time.Time
}

// NewMyKad builds the Malaysian identity card back-end.
func NewMyKad(s *settings.Settings, deps *Deps) (Backend, error) {
	cfg, ok := s.MyKad()
	if !ok {
		return nil, fmt.Errorf("mykad disabled: %w", status.ErrInvalidArgument)
	}
	base, err := newOCRBackend(result.KindMyKad, deps, s.OCRLanguages())
	if err != nil {
		return nil, err
	}
	return &myKadBackend{ocrBackend: base, cfg: cfg, now: time.Now}, nil
}

func (b *myKadBackend) Attempt(ctx context.Context, in *Input) (*result.Result, error) {
	lines, err := b.lines(ctx, in.Upright, "")
	if err != nil {
		return nil, err
	}
	payload, ok := parseMyKad(ocr.Texts(lines), b.now())
	if !ok {
		return nil, nil
	}
	if b.cfg.ShowFullDocument {
		payload.Images = append(payload.Images, result.NamedImage{Name: "full_document", Image: in.Upright})
	}
	if b.cfg.ShowFaceImage {
		if img, ok := cropNamed("face", in.Upright, faceRegion(in.Upright.Bounds(), false)); ok {
			payload.Images = append(payload.Images, img)
		}
	}
	r := result.NewMyKad(payload).WithConfidence(ocr.MeanConfidence(lines))
	return &r, nil
}

// parseMyKad reads the card fields from OCR lines. The NRIC number anchors
// the layout: the name follows it and the address follows the name.
func parseMyKad(texts []string, now time.Time) (result.MyKad, bool) {
	var out result.MyKad
	nricLine := -1
	for i, t := range texts {
		if m := nricRe.FindStringSubmatch(t); m != nil {
			out.NRICNumber = m[1] + "-" + m[2] + "-" + m[3]
			out.BirthDate = birthDate(m[1], now)
			nricLine = i
			break
		}
	}
	if nricLine < 0 {
		return out, false
	}

	var address []string
	for _, t := range texts[nricLine+1:] {
		u := strings.TrimSpace(ocr.Upper(t))
		if u == "" || isBoilerplate(u) {
			continue
		}
		if sex := sexOf(u); sex != "" {
			out.Sex = sex
			continue
		}
		if rel := religionOf(u); rel != "" {
			out.Religion = rel
			continue
		}
		if out.OwnerFullName == "" {
			if isNameLine(u) {
				out.OwnerFullName = strings.Join(strings.Fields(u), " ")
			}
			continue
		}
		address = append(address, strings.Join(strings.Fields(u), " "))
	}
	out.OwnerAddress = strings.Join(address, ", ")
	if out.Sex == "" {
		// The last NRIC digit is odd for men.
		last := out.NRICNumber[len(out.NRICNumber)-1]
		if (last-'0')%2 == 1 {
			out.Sex = "M"
		} else {
			out.Sex = "F"
		}
	}
	return out, true
}

// birthDate decodes YYMMDD. Years after the current one belong to the
// previous century. Impossible dates yield the zero time.
func birthDate(yymmdd string, now time.Time) time.Time {
	yy := int(yymmdd[0]-'0')*10 + int(yymmdd[1]-'0')
	mm := int(yymmdd[2]-'0')*10 + int(yymmdd[3]-'0')
	dd := int(yymmdd[4]-'0')*10 + int(yymmdd[5]-'0')
	year := 2000 + yy
	if year > now.Year() {
		year -= 100
	}
	t := time.Date(year, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(mm) || t.Day() != dd {
		return time.Time{}
	}
	return t
}

func isBoilerplate(u string) bool {
	for _, b := range myKadBoilerplate {
		if strings.Contains(u, b) {
			return true
		}
	}
	return false
}

func isNameLine(u string) bool {
	letters := 0
	for _, r := range u {
		switch {
		case r >= 'A' && r <= 'Z':
			letters++
		case r == ' ', r == '@', r == '/', r == '.', r == '\'', r == '-':
		default:
			return false
		}
	}
	return letters >= 3
}

func sexOf(u string) string {
	switch strings.TrimSpace(u) {
	case "LELAKI", "MALE", "M":
		return "M"
	case "PEREMPUAN", "FEMALE", "F":
		return "F"
	}
	return ""
}

func religionOf(u string) string {
	for _, r := range religions {
		if strings.TrimSpace(u) == r {
			return r
		}
	}
	return ""
}
