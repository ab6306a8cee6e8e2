package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/linkscan/internal/crawler"
	"github.com/nao1215/linkscan/internal/fetch"
	"github.com/nao1215/linkscan/internal/model"
)

// defaultImageConcurrency bounds parallel image checks per page.
const defaultImageConcurrency = 4

// ScreenshotStep writes the screenshot the renderer captured for each
// page into a directory, one PNG per page.
type ScreenshotStep struct {
	dir    string
	logger *slog.Logger
}

// ScreenshotStepOption configures a ScreenshotStep.
type ScreenshotStepOption func(*ScreenshotStep)

// WithScreenshotLogger sets the step's logger.
func WithScreenshotLogger(logger *slog.Logger) ScreenshotStepOption {
	return func(s *ScreenshotStep) {
		s.logger = logger
	}
}

// NewScreenshotStep creates a screenshot step writing into dir. The
// directory is created on first use.
func NewScreenshotStep(dir string, opts ...ScreenshotStepOption) *ScreenshotStep {
	s := &ScreenshotStep{
		dir:    dir,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ScreenshotStep) Name() string {
	return "screenshot"
}

// Do writes the visit's screenshot bytes. Pages without a screenshot
// (the static renderer never produces one) are skipped silently.
func (s *ScreenshotStep) Do(_ context.Context, v *model.Visit) error {
	if len(v.Screenshot) == 0 {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create screenshot directory: %w", err)
	}

	name := artifactName(v.URL, ".png")
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, v.Screenshot, 0o600); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}

	s.logger.Debug("screenshot saved", "url", v.URL, "file", path)
	return nil
}

// ExecuteStep pipes each rendered page body to a shell command's stdin
// and copies the command's stdout through. One process per page,
// serialized with the rest of the pipeline.
type ExecuteStep struct {
	command string
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
}

// ExecuteStepOption configures an ExecuteStep.
type ExecuteStepOption func(*ExecuteStep)

// WithExecuteLogger sets the step's logger.
func WithExecuteLogger(logger *slog.Logger) ExecuteStepOption {
	return func(s *ExecuteStep) {
		s.logger = logger
	}
}

// WithExecuteStderr redirects the command's stderr. Defaults to the
// process stderr.
func WithExecuteStderr(w io.Writer) ExecuteStepOption {
	return func(s *ExecuteStep) {
		s.stderr = w
	}
}

// NewExecuteStep creates an execute step running command via "sh -c"
// with stdout copied to the given writer.
func NewExecuteStep(command string, stdout io.Writer, opts ...ExecuteStepOption) *ExecuteStep {
	s := &ExecuteStep{
		command: command,
		stdout:  stdout,
		stderr:  os.Stderr,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ExecuteStep) Name() string {
	return "execute"
}

// Do runs the command with the rendered body on stdin. The page URL is
// exposed to the command as $LINKSCAN_URL.
func (s *ExecuteStep) Do(ctx context.Context, v *model.Visit) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", s.command)
	cmd.Stdin = strings.NewReader(v.Body)
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	cmd.Env = append(os.Environ(), "LINKSCAN_URL="+v.URL)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %q: %w", s.command, err)
	}
	return nil
}

// ImageCheckStep status-checks every image a page references and
// reports the outcome through the same status reporter the crawl uses.
// Images are deduplicated in the step's own ledger so a site-wide logo
// is checked once, not once per page.
type ImageCheckStep struct {
	client      *fetch.Client
	reporter    crawler.StatusReporter
	ledger      *crawler.Ledger
	concurrency int
	logger      *slog.Logger
}

// ImageCheckStepOption configures an ImageCheckStep.
type ImageCheckStepOption func(*ImageCheckStep)

// WithImageCheckConcurrency bounds parallel checks within one page.
func WithImageCheckConcurrency(n int) ImageCheckStepOption {
	return func(s *ImageCheckStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithImageCheckLogger sets the step's logger.
func WithImageCheckLogger(logger *slog.Logger) ImageCheckStepOption {
	return func(s *ImageCheckStep) {
		s.logger = logger
	}
}

// NewImageCheckStep creates an image check step.
func NewImageCheckStep(client *fetch.Client, reporter crawler.StatusReporter, opts ...ImageCheckStepOption) *ImageCheckStep {
	s := &ImageCheckStep{
		client:      client,
		reporter:    reporter,
		ledger:      crawler.NewLedger(),
		concurrency: defaultImageConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ImageCheckStep) Name() string {
	return "image_check"
}

// Do checks the page's images concurrently. A failed check is reported
// as unreachable, never returned as a step error.
func (s *ImageCheckStep) Do(ctx context.Context, v *model.Visit) error {
	fresh := s.claimNew(v.Images)
	if len(fresh) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, img := range fresh {
		g.Go(func() error {
			code, err := s.client.Status(gctx, img)
			if err != nil {
				s.logger.Debug("image check failed", "url", img, "error", err)
				s.reporter.Report(model.StatusUnreachable, img)
				return nil
			}
			s.reporter.Report(strconv.Itoa(code), img)
			return nil
		})
	}
	return g.Wait()
}

// claimNew returns the http(s) image URLs this step has not seen yet.
func (s *ImageCheckStep) claimNew(images []string) []string {
	var fresh []string
	for _, img := range images {
		if !fetchableImage(img) {
			continue
		}
		if s.ledger.MarkIfNew(img) {
			fresh = append(fresh, img)
		}
	}
	return fresh
}

// ImageSaveStep downloads every image a page references into a
// directory and audits saved files for EXIF metadata worth flagging.
type ImageSaveStep struct {
	client *fetch.Client
	dir    string
	ledger *crawler.Ledger
	logger *slog.Logger
}

// ImageSaveStepOption configures an ImageSaveStep.
type ImageSaveStepOption func(*ImageSaveStep)

// WithImageSaveLogger sets the step's logger.
func WithImageSaveLogger(logger *slog.Logger) ImageSaveStepOption {
	return func(s *ImageSaveStep) {
		s.logger = logger
	}
}

// NewImageSaveStep creates an image save step writing into dir. The
// directory is created on first use.
func NewImageSaveStep(client *fetch.Client, dir string, opts ...ImageSaveStepOption) *ImageSaveStep {
	s := &ImageSaveStep{
		client: client,
		dir:    dir,
		ledger: crawler.NewLedger(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ImageSaveStep) Name() string {
	return "image_save"
}

// Do downloads the page's images one by one. Download failures are
// logged per image and never fail the step.
func (s *ImageSaveStep) Do(ctx context.Context, v *model.Visit) error {
	var saved int
	for _, img := range v.Images {
		if !fetchableImage(img) {
			continue
		}
		if !s.ledger.MarkIfNew(img) {
			continue
		}
		if err := s.save(ctx, img); err != nil {
			s.logger.Debug("image save failed", "url", img, "error", err)
			continue
		}
		saved++
	}

	if saved > 0 {
		s.logger.Debug("images saved", "page", v.URL, "count", saved)
	}
	return nil
}

// save downloads one image and writes it under the configured
// directory, then audits the bytes for EXIF metadata.
func (s *ImageSaveStep) save(ctx context.Context, imageURL string) error {
	resp, err := s.client.Get(ctx, imageURL)
	if err != nil {
		return err
	}
	data, err := s.client.ReadBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create image directory: %w", err)
	}

	ext := imageExt(imageURL, resp.Header.Get("Content-Type"))
	path := filepath.Join(s.dir, artifactName(imageURL, ext))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	s.auditEXIF(imageURL, data)
	return nil
}

// fetchableImage reports whether an image URL can be downloaded over
// HTTP. The normalizer keeps data: URLs so exclude patterns can match
// them, but they carry their payload inline.
func fetchableImage(imageURL string) bool {
	return strings.HasPrefix(imageURL, "http://") || strings.HasPrefix(imageURL, "https://")
}
