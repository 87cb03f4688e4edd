package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"candidature-ai/internal/config"
)

// MaxSourceBytes caps the LaTeX accepted for compilation
const MaxSourceBytes = 500_000

// Compiler turns LaTeX source into PDF bytes
type Compiler interface {
	Compile(ctx context.Context, source string) ([]byte, error)
}

// NewCompiler returns a remote compiler when a renderer URL is configured,
// otherwise a local pdflatex compiler
func NewCompiler(cfg *config.Config) Compiler {
	if url := strings.TrimSpace(cfg.Render.RendererURL); url != "" {
		return NewRemoteCompiler(url, &http.Client{Timeout: cfg.Render.Timeout})
	}
	return NewLocalCompiler(cfg.Render.WorkDir, cfg.Render.Timeout)
}

// LocalCompiler runs pdflatex in a scratch directory
type LocalCompiler struct {
	workDir string
	timeout time.Duration
	binary  string
}

func NewLocalCompiler(workDir string, timeout time.Duration) *LocalCompiler {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &LocalCompiler{workDir: workDir, timeout: timeout, binary: "pdflatex"}
}

func (c *LocalCompiler) Compile(ctx context.Context, source string) ([]byte, error) {
	if err := ValidateLatex(source); err != nil {
		return nil, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp(c.workDir, "cv-build-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	texFile := filepath.Join(dir, "document.tex")
	if err := os.WriteFile(texFile, []byte(source), 0600); err != nil {
		return nil, fmt.Errorf("write tex file: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.binary,
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-no-shell-escape",
		"-output-directory", dir,
		texFile,
	)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "TEXMFVAR="+filepath.Join(dir, "texmf-var"))

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("pdflatex: %w", ctx.Err())
		}
		return nil, fmt.Errorf("pdflatex failed: %w; log:\n%s", err, tail(out.String(), 2000))
	}

	pdf, err := os.ReadFile(filepath.Join(dir, "document.pdf"))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return pdf, nil
}

// RemoteCompiler posts the source to a renderer exposing POST /compile
type RemoteCompiler struct {
	baseURL string
	client  *http.Client
}

func NewRemoteCompiler(baseURL string, client *http.Client) *RemoteCompiler {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteCompiler{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *RemoteCompiler) Compile(ctx context.Context, source string) ([]byte, error) {
	if err := ValidateLatex(source); err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]string{"latex": source})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/compile", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("renderer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("renderer error: status=%d body=%s", resp.StatusCode, string(b))
	}
	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read renderer response: %w", err)
	}
	if len(pdf) == 0 {
		return nil, errors.New("renderer returned empty pdf")
	}
	return pdf, nil
}

var (
	forbiddenPrimitives = []*regexp.Regexp{
		regexp.MustCompile(`\\write18`),
		regexp.MustCompile(`\\openout`),
		regexp.MustCompile(`\\openin`),
		regexp.MustCompile(`\\read\b`),
		regexp.MustCompile(`\\immediate\s*\\write`),
	}
	forbiddenPackage = regexp.MustCompile(`\\usepackage\s*(\[[^\]]*\])?\s*\{[^}]*(shellesc|write18|catchfile|verbatiminput)[^}]*\}`)
	includeRe        = regexp.MustCompile(`\\(input|include)\s*\{([^}]*)\}`)
)

// ValidateLatex rejects sources that reach for the shell or the filesystem
func ValidateLatex(src string) error {
	if strings.TrimSpace(src) == "" {
		return errors.New("empty LaTeX source")
	}
	if len(src) > MaxSourceBytes {
		return fmt.Errorf("latex source too large: %d bytes", len(src))
	}
	lower := strings.ToLower(src)
	for _, re := range forbiddenPrimitives {
		if re.MatchString(lower) {
			return fmt.Errorf("contains forbidden primitive: %s", re.String())
		}
	}
	if m := forbiddenPackage.FindStringSubmatch(lower); m != nil {
		return fmt.Errorf("forbidden package: %s", m[2])
	}
	matches := includeRe.FindAllStringSubmatch(lower, -1)
	for _, m := range matches {
		arg := strings.TrimSpace(m[2])
		if strings.HasPrefix(arg, "/") || strings.Contains(arg, "://") || strings.Contains(arg, "..") {
			return fmt.Errorf("forbidden include path: %s", arg)
		}
	}
	if len(matches) > 32 {
		return fmt.Errorf("too many includes: %d", len(matches))
	}
	return nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
