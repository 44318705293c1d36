package session

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/jmylchreest/tincture/internal/codec"
	"github.com/jmylchreest/tincture/internal/colour"
	"github.com/jmylchreest/tincture/internal/compression"
	"github.com/jmylchreest/tincture/internal/config"
	imgloader "github.com/jmylchreest/tincture/internal/image"
	"github.com/jmylchreest/tincture/internal/palette"
	"github.com/jmylchreest/tincture/internal/preview"
	httputil "github.com/jmylchreest/tincture/internal/util/http"
)

type command struct {
	usage string
	run   func(s *Session, ctx context.Context, args []string, rest string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"set":      {"set <target> <r> <g> <b> [a]", (*Session).cmdSet},
		"hex":      {"hex <target> <#RRGGBB>", (*Session).cmdHex},
		"channel":  {"channel <target> <r|g|b> <0-255>", (*Session).cmdChannel},
		"alpha":    {"alpha <target> <0-1>", (*Session).cmdAlpha},
		"lighten":  {"lighten <pct>", paramCmd(func(v float64) palette.ParamsUpdate { return palette.ParamsUpdate{LightnessDeltaPct: &v} })},
		"saturate": {"saturate <pct>", paramCmd(func(v float64) palette.ParamsUpdate { return palette.ParamsUpdate{SaturationDeltaPct: &v} })},
		"contrast": {"contrast <ratio>", paramCmd(func(v float64) palette.ParamsUpdate { return palette.ParamsUpdate{MinContrast: &v} })},
		"sync":     {"sync on|off", (*Session).cmdSync},
		"resync":   {"resync", (*Session).cmdResync},
		"target":   {"target [main|accent|text]", (*Session).cmdTarget},
		"load":     {"load <path|url>", (*Session).cmdLoad},
		"pan":      {"pan <dx> <dy>", (*Session).cmdPan},
		"drag":     {"drag begin <x> <y> | move <x> <y> | end", (*Session).cmdDrag},
		"zoom":     {"zoom in|out [x y]", (*Session).cmdZoom},
		"scale":    {"scale <factor> [x y]", (*Session).cmdScale},
		"click":    {"click <x> <y> (canvas pixel n is centred on n+0.5)", (*Session).cmdClick},
		"view":     {"view [reset]", (*Session).cmdView},
		"export":   {"export", (*Session).cmdExport},
		"import":   {"import <json>", (*Session).cmdImport},
		"copy":     {"copy", (*Session).cmdCopy},
		"save":     {"save <file>", (*Session).cmdSave},
		"open":     {"open <file>", (*Session).cmdOpen},
		"title":    {"title <text>", (*Session).cmdTitle},
		"preview":  {"preview [css]", (*Session).cmdPreview},
		"render":   {"render <file.png>", (*Session).cmdRender},
		"help":     {"help [commands]", (*Session).cmdHelp},
		"quit":     {"quit", func(*Session, context.Context, []string, string) error { return ErrQuit }},
	}
}

// Exec runs a single command line to completion. Blank lines and lines
// starting with # are ignored.
func (s *Session) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	cmd, ok := commands[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown command %q (try help commands)", name)
	}

	s.logger.Trace("exec", "command", name, "args", rest)
	return cmd.run(s, ctx, strings.Fields(rest), rest)
}

func usageErr(name string) error {
	return fmt.Errorf("usage: %s", commands[name].usage)
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func (s *Session) cmdSet(_ context.Context, args []string, _ string) error {
	if len(args) != 4 && len(args) != 5 {
		return usageErr("set")
	}
	t, err := palette.ParseTarget(args[0])
	if err != nil {
		return err
	}
	a := s.state.Color(t).A
	if len(args) == 5 {
		a = colour.ParseAlpha(args[4])
	}
	c := colour.Color{
		R: colour.ParseChannel(args[1]),
		G: colour.ParseChannel(args[2]),
		B: colour.ParseChannel(args[3]),
		A: a,
	}
	s.state.SetColor(t, c)
	return s.printColors()
}

func (s *Session) cmdHex(_ context.Context, args []string, _ string) error {
	if len(args) != 2 {
		return usageErr("hex")
	}
	t, err := palette.ParseTarget(args[0])
	if err != nil {
		return err
	}
	if !s.state.SetHex(t, args[1]) {
		fmt.Fprintf(s.out, "ignored invalid hex %q\n", args[1])
		return nil
	}
	return s.printColors()
}

func (s *Session) cmdChannel(_ context.Context, args []string, _ string) error {
	if len(args) != 3 {
		return usageErr("channel")
	}
	t, err := palette.ParseTarget(args[0])
	if err != nil {
		return err
	}
	ch, err := palette.ParseChannel(args[1])
	if err != nil {
		return err
	}
	s.state.SetChannel(t, ch, int(colour.ParseChannel(args[2])))
	return s.printColors()
}

func (s *Session) cmdAlpha(_ context.Context, args []string, _ string) error {
	if len(args) != 2 {
		return usageErr("alpha")
	}
	t, err := palette.ParseTarget(args[0])
	if err != nil {
		return err
	}
	s.state.SetAlpha(t, colour.ParseAlpha(args[1]))
	return s.printColors()
}

func paramCmd(update func(float64) palette.ParamsUpdate) func(*Session, context.Context, []string, string) error {
	return func(s *Session, _ context.Context, args []string, _ string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected one number")
		}
		v, err := parseFloats(args)
		if err != nil {
			return err
		}
		s.state.SetParams(update(v[0]))
		return s.printColors()
	}
}

func (s *Session) cmdSync(_ context.Context, args []string, _ string) error {
	if len(args) != 1 {
		return usageErr("sync")
	}
	var on bool
	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		on = true
	case "off", "false", "0":
	default:
		return usageErr("sync")
	}
	s.state.SetParams(palette.ParamsUpdate{SyncEnabled: &on})
	return s.printColors()
}

func (s *Session) cmdResync(context.Context, []string, string) error {
	s.state.Resync()
	return s.printColors()
}

func (s *Session) cmdTarget(_ context.Context, args []string, _ string) error {
	if len(args) > 1 {
		return usageErr("target")
	}
	if len(args) == 1 {
		t, err := palette.ParseTarget(args[0])
		if err != nil {
			return err
		}
		s.state.SetActiveTarget(t)
	}
	fmt.Fprintf(s.out, "eyedrop target: %s\n", s.state.ActiveTarget())
	return nil
}

func (s *Session) cmdLoad(ctx context.Context, args []string, rest string) error {
	if len(args) == 0 {
		return usageErr("load")
	}
	if !imgloader.IsURL(rest) && !imgloader.IsImageFile(rest) {
		s.logger.Warn("unrecognised image extension, trying to decode anyway", "path", rest)
	}
	s.LoadImage(ctx, rest)
	return nil
}

func (s *Session) requireImage() error {
	if !s.sampler.Loaded() {
		return fmt.Errorf("no reference image loaded (use load)")
	}
	return nil
}

// pointer returns the optional trailing x y pair, defaulting to the viewport
// centre.
func (s *Session) pointer(args []string) (float64, float64, error) {
	switch len(args) {
	case 0:
		w, h := s.sampler.ViewportSize()
		return float64(w) / 2, float64(h) / 2, nil
	case 2:
		v, err := parseFloats(args)
		if err != nil {
			return 0, 0, err
		}
		return v[0] * s.cfg.DPR, v[1] * s.cfg.DPR, nil
	default:
		return 0, 0, fmt.Errorf("expected x y")
	}
}

func (s *Session) cmdPan(_ context.Context, args []string, _ string) error {
	if err := s.requireImage(); err != nil {
		return err
	}
	if len(args) != 2 {
		return usageErr("pan")
	}
	v, err := parseFloats(args)
	if err != nil {
		return err
	}
	s.sampler.Pan(v[0]*s.cfg.DPR, v[1]*s.cfg.DPR)
	return s.printView()
}

func (s *Session) cmdDrag(_ context.Context, args []string, _ string) error {
	if err := s.requireImage(); err != nil {
		return err
	}
	if len(args) == 0 {
		return usageErr("drag")
	}
	switch args[0] {
	case "begin", "move":
		x, y, err := s.pointer(args[1:])
		if err != nil || len(args) != 3 {
			return usageErr("drag")
		}
		if args[0] == "begin" {
			s.sampler.BeginDrag(x, y)
			return nil
		}
		if !s.sampler.Dragging() {
			return fmt.Errorf("no drag in progress")
		}
		s.sampler.DragTo(x, y)
		return s.printView()
	case "end":
		s.sampler.EndDrag()
		return nil
	default:
		return usageErr("drag")
	}
}

func (s *Session) cmdZoom(_ context.Context, args []string, _ string) error {
	if err := s.requireImage(); err != nil {
		return err
	}
	if len(args) == 0 {
		return usageErr("zoom")
	}
	x, y, err := s.pointer(args[1:])
	if err != nil {
		return err
	}
	switch args[0] {
	case "in":
		s.sampler.ZoomIn(x, y)
	case "out":
		s.sampler.ZoomOut(x, y)
	default:
		return usageErr("zoom")
	}
	return s.printView()
}

func (s *Session) cmdScale(_ context.Context, args []string, _ string) error {
	if err := s.requireImage(); err != nil {
		return err
	}
	if len(args) != 1 && len(args) != 3 {
		return usageErr("scale")
	}
	v, err := parseFloats(args[:1])
	if err != nil {
		return err
	}
	x, y, err := s.pointer(args[1:])
	if err != nil {
		return err
	}
	s.sampler.SetScale(x, y, v[0])
	return s.printView()
}

func (s *Session) cmdClick(_ context.Context, args []string, _ string) error {
	if err := s.requireImage(); err != nil {
		return err
	}
	if len(args) != 2 {
		return usageErr("click")
	}
	v, err := parseFloats(args)
	if err != nil {
		return err
	}

	ix, iy := s.sampler.CSSPointerToImageCoords(v[0], v[1], s.cfg.DPR)
	c, ok := s.sampler.SampleAt(ix, iy)
	if !ok {
		fmt.Fprintf(s.out, "pixel (%d, %d) is outside the image\n", ix, iy)
		return nil
	}

	target := s.state.ActiveTarget()
	s.state.ApplySample(c)
	s.logger.Debug("eyedropped", "x", ix, "y", iy, "target", target.String(), "colour", c.String())
	fmt.Fprintf(s.out, "picked %s %s at (%d, %d) for %s\n", c.Hex(), c, ix, iy, target.Label())
	return s.printColors()
}

func (s *Session) cmdView(_ context.Context, args []string, _ string) error {
	if err := s.requireImage(); err != nil {
		return err
	}
	if len(args) == 1 && args[0] == "reset" {
		s.sampler.ResetView()
	}
	return s.printView()
}

func (s *Session) cmdExport(context.Context, []string, string) error {
	data, err := codec.Encode(s.state.Palette())
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, string(data))
	return nil
}

func (s *Session) applyDocument(data []byte) error {
	p, err := codec.Decode(data, s.state.Palette())
	if err != nil {
		return err
	}
	s.state.Replace(p)
	return s.printColors()
}

func (s *Session) cmdImport(_ context.Context, _ []string, rest string) error {
	if rest == "" {
		return usageErr("import")
	}
	return s.applyDocument([]byte(rest))
}

func (s *Session) cmdCopy(ctx context.Context, _ []string, _ string) error {
	data, err := codec.Encode(s.state.Palette())
	if err != nil {
		return err
	}
	if err := s.clipboard.WriteText(ctx, string(data)); err != nil {
		s.logger.Warn("clipboard write failed", "error", err)
		return fmt.Errorf("copy failed: %w", err)
	}
	fmt.Fprintln(s.out, "copied palette JSON")
	return nil
}

func (s *Session) cmdSave(_ context.Context, args []string, rest string) error {
	if len(args) == 0 {
		return usageErr("save")
	}
	data, err := codec.Encode(s.state.Palette())
	if err != nil {
		return err
	}
	if err := compression.WriteFile(rest, append(data, '\n')); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "saved %s\n", rest)
	return nil
}

func (s *Session) cmdOpen(_ context.Context, args []string, rest string) error {
	if len(args) == 0 {
		return usageErr("open")
	}
	data, err := compression.ReadFile(rest)
	if err != nil {
		return err
	}
	return s.applyDocument(data)
}

func (s *Session) cmdTitle(_ context.Context, _ []string, rest string) error {
	if rest != "" {
		s.title = config.TruncateTitle(rest)
	}
	fmt.Fprintf(s.out, "title: %s\n", s.title)
	return nil
}

func (s *Session) cmdPreview(_ context.Context, args []string, _ string) error {
	snap := s.state.Snapshot()
	if len(args) == 1 && args[0] == "css" {
		fmt.Fprint(s.out, preview.NewTheme(snap.Palette).CSS())
		return nil
	}
	width := preview.TerminalWidth(s.outFile(), preview.DefaultWidth, 80)
	fmt.Fprint(s.out, preview.Render(snap, preview.Options{Title: s.title, Width: width}))
	return nil
}

// outFile returns the session output when it is a file, for terminal sizing.
func (s *Session) outFile() *os.File {
	if f, ok := s.out.(*os.File); ok {
		return f
	}
	return nil
}

func (s *Session) cmdRender(_ context.Context, args []string, rest string) error {
	if len(args) == 0 {
		return usageErr("render")
	}
	img, err := s.sampler.Render()
	if err != nil {
		return err
	}

	f, err := os.Create(rest) // #nosec G304 - User-specified output path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", rest, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", rest, err)
	}
	fmt.Fprintf(s.out, "rendered %dx%d viewport to %s\n", img.Bounds().Dx(), img.Bounds().Dy(), rest)
	return nil
}

func (s *Session) cmdHelp(ctx context.Context, args []string, _ string) error {
	if len(args) == 1 && args[0] == "commands" {
		names := make([]string, 0, len(commands))
		for name := range commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(s.out, "  %s\n", commands[name].usage)
		}
		return nil
	}

	text, err := s.help.Open(ctx)
	fmt.Fprintln(s.out, strings.TrimRight(text, "\n"))
	if err != nil {
		s.logger.Debug("help load failed", "error", err)
	}
	return nil
}

func (s *Session) printColors() error {
	snap := s.state.Snapshot()
	for _, t := range palette.Targets() {
		c := snap.Palette.Get(t)
		fmt.Fprintf(s.out, "%-13s %s %s\n", t.Label(), c.Hex(), c)
	}
	fmt.Fprintln(s.out, preview.ContrastAdvice(snap))
	return nil
}

func (s *Session) printView() error {
	v := s.sampler.View()
	fmt.Fprintf(s.out, "view: scale %.3f, translate (%.1f, %.1f)\n", v.Scale, v.TranslateX, v.TranslateY)
	return nil
}

func fetchOptions(cfg config.Config) httputil.FetchOptions {
	return httputil.FetchOptions{Timeout: cfg.HTTPTimeout}
}
