package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"

	"github.com/jmylchreest/tincture/internal/codec"
	"github.com/jmylchreest/tincture/internal/colour"
	"github.com/jmylchreest/tincture/internal/config"
	imgloader "github.com/jmylchreest/tincture/internal/image"
	"github.com/jmylchreest/tincture/internal/palette"
)

type fakeLoader struct {
	images map[string]image.Image
	gates  map[string]chan struct{}
}

func (f *fakeLoader) Load(ctx context.Context, path string) (image.Image, error) {
	if gate, ok := f.gates[path]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	img, ok := f.images[path]
	if !ok {
		return nil, fmt.Errorf("no such image: %s", path)
	}
	return img, nil
}

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteText(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func redGreen() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	return img
}

func newTestSession(t *testing.T, loader imgloader.Loader, clip *fakeClipboard) (*Session, *bytes.Buffer) {
	t.Helper()
	if clip == nil {
		clip = &fakeClipboard{}
	}
	var out bytes.Buffer
	s, err := New(Options{
		Config:    config.Default(),
		Loader:    loader,
		Clipboard: clip,
		Out:       &out,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, &out
}

func mustExec(t *testing.T, s *Session, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if err := s.Exec(context.Background(), line); err != nil {
			t.Fatalf("Exec(%q) error = %v", line, err)
		}
	}
}

func waitLoad(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.WaitForLoad(ctx); err != nil {
		t.Fatalf("WaitForLoad() error = %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.DPR = 0
	if _, err := New(Options{Config: cfg}); err == nil {
		t.Error("New() error = nil, want error")
	}
}

func TestExecColourCommands(t *testing.T) {
	s, _ := newTestSession(t, &fakeLoader{}, nil)

	mustExec(t, s, "hex main #FF0000")
	p := s.State().Palette()
	if p.Main != (colour.Color{R: 255, A: 1}) {
		t.Errorf("Main = %v, want red", p.Main)
	}
	if p.Text != p.Main {
		t.Errorf("Text = %v, want Main with sync on", p.Text)
	}
	if want := colour.AdjustHSL(p.Main, colour.Shift{DS: -12, DL: 22}); p.Accent != want {
		t.Errorf("Accent = %v, want %v", p.Accent, want)
	}

	mustExec(t, s, "sync off", "set text 0 0 0", "channel main g 300", "alpha accent 0.25")
	p = s.State().Palette()
	if p.Text != (colour.Color{A: 1}) {
		t.Errorf("Text = %v, want black", p.Text)
	}
	if p.Main.G != 255 {
		t.Errorf("Main.G = %d, want clamped 255", p.Main.G)
	}
	if p.Accent.A != 0.25 {
		t.Errorf("Accent.A = %g, want 0.25", p.Accent.A)
	}

	mustExec(t, s, "lighten 100", "saturate -5", "contrast 7")
	params := s.State().Params()
	if params.LightnessDeltaPct != palette.MaxLightnessDeltaPct || params.SaturationDeltaPct != -5 || params.MinContrast != 7 {
		t.Errorf("Params = %+v", params)
	}
}

func TestExecInvalidHexIsIgnored(t *testing.T) {
	s, out := newTestSession(t, &fakeLoader{}, nil)
	before := s.State().Palette()

	mustExec(t, s, "hex main #GGGGGG")

	if diff := cmp.Diff(before, s.State().Palette()); diff != "" {
		t.Errorf("palette changed (-before +after):\n%s", diff)
	}
	if !strings.Contains(out.String(), "ignored invalid hex") {
		t.Errorf("output = %q", out.String())
	}
}

func TestExecErrors(t *testing.T) {
	s, _ := newTestSession(t, &fakeLoader{}, nil)
	ctx := context.Background()

	tests := []string{
		"frobnicate",
		"set main 1 2",
		"hex nope #FFFFFF",
		"channel main x 10",
		"sync maybe",
		"lighten lots",
		"pan 1 1",
		"click 0 0",
		"render out.png",
	}
	for _, line := range tests {
		if err := s.Exec(ctx, line); err == nil {
			t.Errorf("Exec(%q) error = nil, want error", line)
		}
	}

	if err := s.Exec(ctx, "quit"); !errors.Is(err, ErrQuit) {
		t.Errorf("Exec(quit) error = %v, want ErrQuit", err)
	}
	if err := s.Exec(ctx, "   # comment"); err != nil {
		t.Errorf("Exec(comment) error = %v", err)
	}
}

func TestEyedropScenario(t *testing.T) {
	loader := &fakeLoader{images: map[string]image.Image{"ref.png": redGreen()}}
	s, out := newTestSession(t, loader, nil)

	mustExec(t, s, "load ref.png")
	waitLoad(t, s)
	if s.ImagePath() != "ref.png" {
		t.Fatalf("ImagePath() = %q", s.ImagePath())
	}

	mustExec(t, s, "target main", "click 0.5 0.5")
	p := s.State().Palette()
	if p.Main != (colour.Color{R: 255, A: 1}) || p.Text != p.Main {
		t.Errorf("after main pick: %+v", p)
	}

	mustExec(t, s, "target accent", "click 1.5 0.5")
	if got := s.State().Palette().Accent; got != (colour.Color{G: 255, A: 1}) {
		t.Errorf("Accent = %v, want green", got)
	}

	mustExec(t, s, "click 50 50")
	if !strings.Contains(out.String(), "outside the image") {
		t.Errorf("expected out-of-bounds message, got %q", out.String())
	}
}

func TestLastLoadWins(t *testing.T) {
	slowGate := make(chan struct{})
	loader := &fakeLoader{
		images: map[string]image.Image{
			"slow.png": solid(4, 4, color.NRGBA{R: 255, A: 255}),
			"fast.png": solid(8, 8, color.NRGBA{B: 255, A: 255}),
		},
		gates: map[string]chan struct{}{"slow.png": slowGate},
	}
	s, _ := newTestSession(t, loader, nil)
	ctx := context.Background()

	first := s.LoadImage(ctx, "slow.png")
	second := s.LoadImage(ctx, "fast.png")
	if second <= first {
		t.Fatalf("sequence did not advance: %d then %d", first, second)
	}

	waitLoad(t, s)
	if s.ImagePath() != "fast.png" {
		t.Fatalf("ImagePath() = %q, want fast.png", s.ImagePath())
	}

	close(slowGate)
	select {
	case res := <-s.results:
		if s.applyLoad(res) {
			t.Error("stale result was applied")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("slow load never completed")
	}

	if w, h := s.Sampler().Size(); w != 8 || h != 8 || s.ImagePath() != "fast.png" {
		t.Errorf("displayed image = %s %dx%d, want fast.png 8x8", s.ImagePath(), w, h)
	}
}

func TestLoadFailureKeepsPreviousImage(t *testing.T) {
	loader := &fakeLoader{images: map[string]image.Image{"ok.png": redGreen()}}
	s, out := newTestSession(t, loader, nil)

	mustExec(t, s, "load ok.png")
	waitLoad(t, s)
	mustExec(t, s, "load missing.png")
	waitLoad(t, s)

	if s.ImagePath() != "ok.png" {
		t.Errorf("ImagePath() = %q, want ok.png", s.ImagePath())
	}
	if !strings.Contains(out.String(), "could not load missing.png") {
		t.Errorf("output = %q", out.String())
	}
}

func TestViewCommands(t *testing.T) {
	loader := &fakeLoader{images: map[string]image.Image{"big.png": solid(1280, 840, color.NRGBA{A: 255})}}
	s, _ := newTestSession(t, loader, nil)
	mustExec(t, s, "load big.png")
	waitLoad(t, s)

	mustExec(t, s, "pan 10 -5")
	if v := s.Sampler().View(); v.TranslateX != 10 || v.TranslateY != -5 {
		t.Errorf("after pan: %+v", v)
	}

	mustExec(t, s, "drag begin 100 100", "drag move 110 120", "drag end")
	if v := s.Sampler().View(); v.TranslateX != 20 || v.TranslateY != 15 {
		t.Errorf("after drag: %+v", v)
	}
	if s.Sampler().Dragging() {
		t.Error("still dragging after end")
	}

	mustExec(t, s, "scale 100")
	if got := s.Sampler().View().Scale; got != 8 {
		t.Errorf("scale = %g, want clamped 8", got)
	}
	mustExec(t, s, "zoom out 0 0")
	if got := s.Sampler().View().Scale; got >= 8 {
		t.Errorf("scale after zoom out = %g", got)
	}

	mustExec(t, s, "view reset")
	if diff := cmp.Diff(s.Sampler().View().Scale, 1.0); diff != "" {
		t.Errorf("view reset scale mismatch: %s", diff)
	}
}

func TestExportImport(t *testing.T) {
	s, out := newTestSession(t, &fakeLoader{}, nil)

	mustExec(t, s, "export")
	want, err := codec.Encode(palette.New().Palette())
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != string(want) {
		t.Errorf("export =\n%s\nwant\n%s", out.String(), want)
	}

	mustExec(t, s, "sync off")
	mustExec(t, s, `import {"primary": {"red": 1, "green": 2, "blue": 3}, "secondary": {"red": 10, "green": 20, "blue": 30, "alpha": 128}}`)
	p := s.State().Palette()
	if p.Accent != (colour.Color{R: 1, G: 2, B: 3, A: 1}) {
		t.Errorf("Accent = %v, want primary values", p.Accent)
	}
	// Imported alpha is channel/255 without rounding.
	if p.Main != (colour.Color{R: 10, G: 20, B: 30, A: float64(128) / 255}) {
		t.Errorf("Main = %+v, want secondary values", p.Main)
	}

	before := s.State().Palette()
	if err := s.Exec(context.Background(), "import not json"); !errors.Is(err, codec.ErrInvalidJSON) {
		t.Errorf("import error = %v, want ErrInvalidJSON", err)
	}
	if diff := cmp.Diff(before, s.State().Palette()); diff != "" {
		t.Errorf("failed import changed palette:\n%s", diff)
	}
}

func TestSaveOpen(t *testing.T) {
	dir := t.TempDir()
	s, _ := newTestSession(t, &fakeLoader{}, nil)

	for _, name := range []string{"p.json", "p.json.gz", "p.json.xz"} {
		path := filepath.Join(dir, name)
		mustExec(t, s, "hex main #336699", "save "+path)
		saved := s.State().Palette()

		mustExec(t, s, "hex main #000000", "open "+path)
		if diff := cmp.Diff(saved, s.State().Palette()); diff != "" {
			t.Errorf("%s: reopened palette mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestCopy(t *testing.T) {
	clip := &fakeClipboard{}
	s, _ := newTestSession(t, &fakeLoader{}, clip)

	mustExec(t, s, "copy")
	want, _ := codec.Encode(s.State().Palette())
	if clip.text != string(want) {
		t.Errorf("clipboard = %q, want %q", clip.text, want)
	}

	clip.err = errors.New("no display")
	before := s.State().Palette()
	if err := s.Exec(context.Background(), "copy"); err == nil {
		t.Error("copy error = nil, want error")
	}
	if diff := cmp.Diff(before, s.State().Palette()); diff != "" {
		t.Errorf("failed copy changed palette:\n%s", diff)
	}
}

func TestTitleAndPreview(t *testing.T) {
	s, out := newTestSession(t, &fakeLoader{}, nil)

	mustExec(t, s, "title A very long title that keeps going")
	if got := s.Title(); got != "A very long title th" {
		t.Errorf("Title() = %q", got)
	}

	out.Reset()
	mustExec(t, s, "preview")
	if !strings.Contains(out.String(), "A VERY LONG TITLE TH") || !strings.Contains(out.String(), "--c-text") {
		t.Errorf("preview output missing content:\n%s", out.String())
	}

	out.Reset()
	mustExec(t, s, "preview css")
	if !strings.HasPrefix(out.String(), ":root {") {
		t.Errorf("preview css = %q", out.String())
	}
}

func TestOutFile(t *testing.T) {
	s, _ := newTestSession(t, &fakeLoader{}, nil)
	if f := s.outFile(); f != nil {
		t.Errorf("outFile() = %v for a buffer, want nil", f.Name())
	}

	f, err := os.Create(filepath.Join(t.TempDir(), "preview.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	s.out = f
	if got := s.outFile(); got != f {
		t.Errorf("outFile() = %v, want the session output file", got)
	}

	mustExec(t, s, "preview")
	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "--c-text") {
		t.Errorf("preview written to file = %q", data)
	}
}

func TestRenderCommand(t *testing.T) {
	loader := &fakeLoader{images: map[string]image.Image{"rg.png": redGreen()}}
	s, _ := newTestSession(t, loader, nil)
	mustExec(t, s, "load rg.png")
	waitLoad(t, s)

	path := filepath.Join(t.TempDir(), "view.png")
	mustExec(t, s, "render "+path)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 1 {
		t.Errorf("rendered size = %v, want 2x1", b)
	}
}

func TestHelp(t *testing.T) {
	s, out := newTestSession(t, &fakeLoader{}, nil)

	mustExec(t, s, "help")
	if !strings.Contains(out.String(), "Eyedropper") {
		t.Errorf("help output = %q", out.String())
	}

	out.Reset()
	mustExec(t, s, "help commands")
	if !strings.Contains(out.String(), "resync") || !strings.Contains(out.String(), "render <file.png>") {
		t.Errorf("help commands output = %q", out.String())
	}
}

func TestRunScript(t *testing.T) {
	loader := &fakeLoader{images: map[string]image.Image{"rg.png": redGreen()}}
	s, out := newTestSession(t, loader, nil)

	script := strings.Join([]string{
		"# set up",
		"hex main #112233",
		"bogus",
		"export",
		"quit",
		"hex main #FFFFFF",
	}, "\n")

	if err := s.Run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := s.State().Palette().Main.Hex(); got != "#112233" {
		t.Errorf("Main = %s, want #112233 (commands after quit must not run)", got)
	}
	if !strings.Contains(out.String(), `error: unknown command "bogus"`) {
		t.Errorf("output missing error line:\n%s", out.String())
	}
	if !strings.Contains(out.String(), `"secondary": {`) {
		t.Errorf("output missing export:\n%s", out.String())
	}
}

func TestRunContextCancel(t *testing.T) {
	s, _ := newTestSession(t, &fakeLoader{}, nil)
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, r); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRunLoadThenClick(t *testing.T) {
	gate := make(chan struct{})
	loader := &fakeLoader{
		images: map[string]image.Image{"rg.png": redGreen()},
		gates:  map[string]chan struct{}{"rg.png": gate},
	}
	s, out := newTestSession(t, loader, nil)
	time.AfterFunc(20*time.Millisecond, func() { close(gate) })

	mustExec(t, s, "sync off")
	script := "load rg.png\nclick 0 0\n"
	if err := s.Run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if strings.Contains(out.String(), "no reference image") {
		t.Errorf("click ran before the image was applied:\n%s", out.String())
	}
	if got := s.State().Palette().Main.Hex(); got != "#FF0000" {
		t.Errorf("Main = %s, want #FF0000", got)
	}
}

func TestRunAppliesLoadBeforeEOF(t *testing.T) {
	gate := make(chan struct{})
	loader := &fakeLoader{
		images: map[string]image.Image{"rg.png": redGreen()},
		gates:  map[string]chan struct{}{"rg.png": gate},
	}
	s, _ := newTestSession(t, loader, nil)
	time.AfterFunc(20*time.Millisecond, func() { close(gate) })

	if err := s.Run(context.Background(), strings.NewReader("load rg.png\n")); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !s.Sampler().Loaded() || s.ImagePath() != "rg.png" {
		t.Errorf("image not applied before Run returned (path %q)", s.ImagePath())
	}
}

func TestReadLinesStopsOnCancel(t *testing.T) {
	s, _ := newTestSession(t, &fakeLoader{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	returned := make(chan struct{})
	go func() {
		// Nothing receives from lines, so only cancellation can end the send.
		s.readLines(ctx, strings.NewReader("export\nexport\n"), make(chan string), make(chan error, 1))
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("readLines() did not return after cancellation")
	}
}

func TestWatchReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.png")
	writePNG(t, path, solid(2, 2, color.NRGBA{R: 255, A: 255}))

	cfg := config.Default()
	cfg.Watch = true
	var out bytes.Buffer
	s, err := New(Options{Config: cfg, Loader: imgloader.NewFileLoader(), Clipboard: &fakeClipboard{}, Out: &out})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	mustExec(t, s, "load "+path)
	waitLoad(t, s)
	if s.watcher == nil || s.watchDir != dir {
		t.Fatalf("watcher not set up for %s (dir %q)", path, s.watchDir)
	}

	writePNG(t, path, solid(3, 3, color.NRGBA{B: 255, A: 255}))
	s.handleWatchEvent(context.Background(), fsnotify.Event{Name: filepath.Join(dir, "other.png"), Op: fsnotify.Write})
	s.handleWatchEvent(context.Background(), fsnotify.Event{Name: path, Op: fsnotify.Write})
	waitLoad(t, s)

	if w, h := s.Sampler().Size(); w != 3 || h != 3 {
		t.Errorf("size after reload = %dx%d, want 3x3", w, h)
	}
	if c, ok := s.Sampler().SampleAt(0, 0); !ok || c.B != 255 {
		t.Errorf("pixel after reload = %v, %v", c, ok)
	}
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}
