package workflow

import (
	"testing"
	"time"

	"github.com/EdenOved/formpilot/internal/artifacts"
	"github.com/EdenOved/formpilot/internal/form"
	"github.com/EdenOved/formpilot/internal/humanoid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	formURL      = "http://localhost:8080/index.html"
	submitSel    = "button[type='submit']"
	thankYouURL  = "http://localhost:8080/thank-you.html"
	artifactsDir = "/screens"
	testRunID    = "run-test"
)

const (
	bodyTimeout    = 30 * time.Second
	elementTimeout = 20 * time.Second
	submitTimeout  = 10 * time.Second
	idleTimeout    = 30 * time.Second
	keyDelay       = 75 * time.Millisecond
)

var successTexts = []string{"Thank you!", "You'll hear from us soon."}

func testSpec() form.Spec {
	return form.NewSpec(formURL, []form.Field{
		{Role: form.RoleName, Locator: "#name"},
		{Role: form.RoleEmail, Locator: "#email"},
		{Role: form.RolePhone, Locator: "#phone"},
		{Role: form.RoleCompany, Locator: "#company"},
	}, submitSel, "thank-you.html", successTexts)
}

func edenValues() map[form.Role]string {
	return map[form.Role]string{
		form.RoleName:    "Eden Oved",
		form.RoleEmail:   "edenoved.swe@gmail.com",
		form.RolePhone:   "+972 54-324-1555",
		form.RoleCompany: "Jones Software",
	}
}

type fixture struct {
	t        *testing.T
	page     *MockPage
	fs       afero.Fs
	recorder *artifacts.Recorder
	opts     Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	rec, err := artifacts.NewRecorder(fs, artifactsDir, testRunID)
	require.NoError(t, err)
	require.NoError(t, rec.Prepare())
	return &fixture{
		t:        t,
		page:     new(MockPage),
		fs:       fs,
		recorder: rec,
		opts: Options{
			RunID:              testRunID,
			MaxAttempts:        3,
			SubmitTimeout:      submitTimeout,
			NetworkIdleTimeout: idleTimeout,
			ScreenshotTimeout:  time.Second,
			WriteReport:        true,
		},
	}
}

func (f *fixture) orchestrator(spec form.Spec) *Orchestrator {
	logger := zaptest.NewLogger(f.t)
	return NewOrchestrator(logger,
		NewLoader(logger, bodyTimeout, elementTimeout),
		NewFiller(logger, elementTimeout, humanoid.Fixed(keyDelay)),
		NewDetector(logger, spec.SuccessURLFragment(), spec.SuccessTextFragments(), time.Second, f.opts.ScreenshotTimeout, f.recorder),
		f.recorder,
		f.opts,
	)
}

// expectLoaded sets up a page whose form renders fine.
func (f *fixture) expectLoaded(spec form.Spec) {
	f.page.On("Navigate", mock.Anything, spec.URL()).Return(nil).Once()
	f.page.On("WaitVisible", mock.Anything, "body", bodyTimeout).Return(nil).Once()
	for _, loc := range spec.RequiredLocators() {
		f.page.On("WaitVisible", mock.Anything, loc, elementTimeout).Return(nil)
	}
	f.page.On("Close", mock.Anything).Return(nil).Once()
}

func (f *fixture) expectTyping() {
	f.page.On("Type", mock.Anything, mock.Anything, mock.Anything, keyDelay).Return(nil)
}

func (f *fixture) expectScreenshots() {
	f.page.On("Screenshot", mock.Anything, mock.Anything).Return(nil)
}

func categories(as []artifacts.Artifact) []artifacts.Category {
	out := make([]artifacts.Category, 0, len(as))
	for _, a := range as {
		out = append(out, a.Category)
	}
	return out
}
