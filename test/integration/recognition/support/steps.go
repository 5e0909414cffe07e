package support

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/docscan/internal/license"
	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/status"
	"github.com/MeKo-Tech/docscan/internal/testutil"
)

// RegisterSteps binds the step definitions to sc.
func (testCtx *TestContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the formats? "([^"]*)" (?:is|are) enabled$`, testCtx.formatsAreEnabled)
	sc.Step(`^multiple results are requested$`, testCtx.multipleResultsAreRequested)
	sc.Step(`^a valid license key$`, testCtx.aValidLicenseKey)
	sc.Step(`^a license key restricted to "([^"]*)"$`, testCtx.aLicenseKeyRestrictedTo)
	sc.Step(`^an expired license key$`, testCtx.anExpiredLicenseKey)
	sc.Step(`^the resources directory exists$`, testCtx.theResourcesDirectoryExists)
	sc.Step(`^the resources directory is missing$`, testCtx.theResourcesDirectoryIsMissing)
	sc.Step(`^the OCR engine reads the passport zone$`, testCtx.theOCREngineReadsThePassportZone)

	sc.Step(`^a (\d+)x(\d+) blank image$`, testCtx.aBlankImage)
	sc.Step(`^an image showing the QR code "([^"]*)" at (\d+),(\d+)$`, testCtx.anImageShowingTheQRCode)
	sc.Step(`^the image is captured in "([^"]*)" orientation$`, testCtx.theImageIsCapturedIn)
	sc.Step(`^the region of interest is (\d+),(\d+),(\d+),(\d+)$`, testCtx.theRegionOfInterestIs)

	sc.Step(`^the image is recognized$`, testCtx.theImageIsRecognized)
	sc.Step(`^the image is recognized with a cancelled context$`, testCtx.theImageIsRecognizedCancelled)

	sc.Step(`^recognition succeeds with (\d+) results?$`, testCtx.recognitionSucceedsWith)
	sc.Step(`^recognition fails with status "([^"]*)"$`, testCtx.recognitionFailsWith)
	sc.Step(`^the region of interest is rejected with status "([^"]*)"$`, testCtx.roiIsRejectedWith)
	sc.Step(`^result (\d+) is a valid "([^"]*)" result$`, testCtx.resultIsValidKind)
	sc.Step(`^result (\d+) has the text "([^"]*)"$`, testCtx.resultHasText)
	sc.Step(`^result (\d+) has the document number "([^"]*)"$`, testCtx.resultHasDocumentNumber)
	sc.Step(`^the back-ends ran in the order "([^"]*)"$`, testCtx.backendsRanInOrder)
	sc.Step(`^the recognizer is "([^"]*)"$`, testCtx.theRecognizerIs)
}

func splitNames(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (testCtx *TestContext) formatsAreEnabled(names string) error {
	for _, name := range splitNames(names) {
		k, err := result.ParseKind(name)
		if err != nil {
			return err
		}
		testCtx.Settings.EnableDefaults(k)
	}
	return nil
}

func (testCtx *TestContext) multipleResultsAreRequested() error {
	testCtx.Settings.SetOutputMultipleResults(true)
	return nil
}

func (testCtx *TestContext) issueKey(claims license.Claims) error {
	key, err := license.Issue(license.DefaultSecret, claims)
	if err != nil {
		return err
	}
	testCtx.Settings.SetLicenseKey(key)
	return nil
}

func (testCtx *TestContext) aValidLicenseKey() error {
	return testCtx.issueKey(license.Claims{Expires: time.Now().Add(time.Hour)})
}

func (testCtx *TestContext) aLicenseKeyRestrictedTo(names string) error {
	return testCtx.issueKey(license.Claims{Formats: splitNames(names)})
}

func (testCtx *TestContext) anExpiredLicenseKey() error {
	return testCtx.issueKey(license.Claims{
		Issued:  time.Now().Add(-48 * time.Hour),
		Expires: time.Now().Add(-24 * time.Hour),
	})
}

func (testCtx *TestContext) theResourcesDirectoryExists() error {
	testCtx.Settings.SetResourcesLocation(testCtx.TempDir)
	return nil
}

func (testCtx *TestContext) theResourcesDirectoryIsMissing() error {
	testCtx.Settings.SetResourcesLocation(filepath.Join(testCtx.TempDir, "missing"))
	return nil
}

func (testCtx *TestContext) theOCREngineReadsThePassportZone() error {
	testCtx.OCRLines = append(testCtx.OCRLines, testutil.PassportMRZ...)
	return nil
}

func (testCtx *TestContext) setImage(img image.Image) error {
	raw, err := rawimage.FromImage(img, rawimage.FormatGray)
	if err != nil {
		return err
	}
	if testCtx.Image != nil {
		testCtx.Image.Release()
	}
	testCtx.Image = raw
	return nil
}

func (testCtx *TestContext) aBlankImage(w, h int) error {
	return testCtx.setImage(testutil.BlankImage(w, h, 255))
}

func (testCtx *TestContext) anImageShowingTheQRCode(text string, x, y int) error {
	qr := testutil.QRImage(testCtx.T, text, 200)
	return testCtx.setImage(testutil.Compose(testutil.MediumSize, qr, image.Pt(x, y)))
}

func (testCtx *TestContext) theImageIsCapturedIn(name string) error {
	if testCtx.Image == nil {
		return errors.New("no image")
	}
	o, err := rawimage.ParseOrientation(name)
	if err != nil {
		return err
	}
	return testCtx.Image.SetOrientation(o)
}

func (testCtx *TestContext) bind() error {
	r, err := testCtx.recognizerFor()
	if err != nil {
		return err
	}
	if testCtx.Image == nil {
		return errors.New("no image")
	}
	return r.SetImage(testCtx.Image)
}

func (testCtx *TestContext) theRegionOfInterestIs(x, y, w, h int) error {
	if err := testCtx.bind(); err != nil {
		return err
	}
	testCtx.LastROIErr = testCtx.Recognizer.SetROI(image.Rect(x, y, x+w, y+h))
	return nil
}

func (testCtx *TestContext) recognize(ctx context.Context) error {
	if err := testCtx.bind(); err != nil {
		return err
	}
	testCtx.LastList, testCtx.LastError = testCtx.Recognizer.RecognizeImage(ctx)
	return nil
}

func (testCtx *TestContext) theImageIsRecognized(ctx context.Context) error {
	return testCtx.recognize(ctx)
}

func (testCtx *TestContext) theImageIsRecognizedCancelled(ctx context.Context) error {
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	return testCtx.recognize(cctx)
}

func (testCtx *TestContext) recognitionSucceedsWith(n int) error {
	if testCtx.LastError != nil {
		return fmt.Errorf("recognition failed: %w", testCtx.LastError)
	}
	if got := testCtx.LastList.Len(); got != n {
		return fmt.Errorf("expected %d results, got %d: %v", n, got, testCtx.LastList.Kinds())
	}
	return nil
}

func (testCtx *TestContext) recognitionFailsWith(code string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("expected status %s, recognition succeeded with %d results", code, testCtx.LastList.Len())
	}
	if got := status.CodeOf(testCtx.LastError).String(); got != code {
		return fmt.Errorf("expected status %s, got %s (%v)", code, got, testCtx.LastError)
	}
	if testCtx.LastList != nil {
		return fmt.Errorf("a failed recognition returned %d results", testCtx.LastList.Len())
	}
	return nil
}

func (testCtx *TestContext) roiIsRejectedWith(code string) error {
	if testCtx.LastROIErr == nil {
		return errors.New("the region of interest was accepted")
	}
	if got := status.CodeOf(testCtx.LastROIErr).String(); got != code {
		return fmt.Errorf("expected status %s, got %s", code, got)
	}
	return nil
}

func (testCtx *TestContext) resultAt(i int) (result.Result, error) {
	if testCtx.LastError != nil {
		return result.Result{}, testCtx.LastError
	}
	return testCtx.LastList.At(i)
}

func (testCtx *TestContext) resultIsValidKind(i int, kind string) error {
	r, err := testCtx.resultAt(i)
	if err != nil {
		return err
	}
	if r.Kind().String() != kind {
		return fmt.Errorf("result %d: expected kind %s, got %s", i, kind, r.Kind())
	}
	if !r.IsValid() {
		return fmt.Errorf("result %d is not valid: %s", i, r.Summary())
	}
	return nil
}

func (testCtx *TestContext) resultHasText(i int, text string) error {
	r, err := testCtx.resultAt(i)
	if err != nil {
		return err
	}
	bc, ok := r.Barcode()
	if !ok {
		return fmt.Errorf("result %d is not a barcode: %s", i, r.Summary())
	}
	if bc.Text != text {
		return fmt.Errorf("result %d: expected text %q, got %q", i, text, bc.Text)
	}
	return nil
}

func (testCtx *TestContext) resultHasDocumentNumber(i int, number string) error {
	r, err := testCtx.resultAt(i)
	if err != nil {
		return err
	}
	m, ok := r.MRTD()
	if !ok {
		return fmt.Errorf("result %d is not a travel document: %s", i, r.Summary())
	}
	if m.DocumentNumber != number {
		return fmt.Errorf("result %d: expected document number %q, got %q", i, number, m.DocumentNumber)
	}
	return nil
}

func (testCtx *TestContext) backendsRanInOrder(names string) error {
	want := splitNames(names)
	if !slices.Equal(want, testCtx.Events) {
		return fmt.Errorf("expected back-ends %v, got %v", want, testCtx.Events)
	}
	return nil
}

func (testCtx *TestContext) theRecognizerIs(state string) error {
	if testCtx.Recognizer == nil {
		return errors.New("no recognizer")
	}
	if got := testCtx.Recognizer.State().String(); got != state {
		return fmt.Errorf("expected state %s, got %s", state, got)
	}
	return nil
}
