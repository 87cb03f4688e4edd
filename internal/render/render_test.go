package render

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"candidature-ai/pkg/models"
	"candidature-ai/pkg/utils"
)

func sampleCV() *models.CV {
	return &models.CV{
		Header: models.CVHeader{
			FullName:    "Léa Martin",
			TargetTitle: "Développeuse backend",
			City:        "Lyon",
			Contact:     models.CVContact{Email: "lea_martin@example.com", Phone: "0600000000"},
		},
		Summary: "Spécialiste Go & SQL, 100% motivée",
		Experience: []models.CVEntry{
			{Title: "Stagiaire", Company: "Acme", StartDate: "2023", Bullets: []string{"API #1", " "}},
			{Title: " ", Company: ""},
		},
		Education: []models.CVEducation{{Degree: "Licence", School: "Lyon 1", StartDate: "2021", EndDate: "2024"}},
		Skills:    models.CVSkills{HardSkills: []string{"Go", "C++"}, SoftSkills: []string{"Rigueur"}},
		Languages: []models.CVLanguage{{Name: "Anglais", Level: "B2"}},
	}
}

func TestEngine_RenderEscapesContent(t *testing.T) {
	src, err := NewEngine().Render(sampleCV(), Options{})
	require.NoError(t, err)

	assert.Contains(t, src, `{\LARGE\bfseries Léa Martin}`)
	assert.Contains(t, src, `lea\_martin@example.com`)
	assert.Contains(t, src, `Go \& SQL, 100\% motivée`)
	assert.Contains(t, src, `\item API \#1`)
	assert.Contains(t, src, `2023 -- aujourd'hui`)
	assert.Contains(t, src, `\textbf{Langues :} Anglais (B2)`)
	assert.Contains(t, src, `\definecolor{accent}{HTML}{1F4E79}`)
	assert.Contains(t, src, `\usepackage{charter}`)
	assert.NotContains(t, src, "draftwatermark")
	assert.Equal(t, 1, strings.Count(src, `\item `), "blank bullets are dropped")
	assert.NoError(t, ValidateLatex(src))
}

func TestEngine_Watermark(t *testing.T) {
	src, err := NewEngine().Render(sampleCV(), Options{Watermark: true})
	require.NoError(t, err)

	assert.Contains(t, src, `\usepackage{draftwatermark}`)
	assert.Contains(t, src, `\SetWatermarkText{CANDIDATURE AI}`)
}

func TestEngine_StyleAndAccent(t *testing.T) {
	cv := sampleCV()
	cv.TemplateStyle = "Modern"
	cv.AccentColor = "#ff8800"

	src, err := NewEngine().Render(cv, Options{})
	require.NoError(t, err)
	assert.Contains(t, src, `\usepackage[default]{lato}`)
	assert.Contains(t, src, `\definecolor{accent}{HTML}{FF8800}`)
}

func TestEngine_RejectsMissingName(t *testing.T) {
	_, err := NewEngine().Render(&models.CV{}, Options{})
	assert.Error(t, err)

	_, err = NewEngine().Render(nil, Options{})
	assert.Error(t, err)
}

func TestEngine_InjectionStaysInert(t *testing.T) {
	cv := sampleCV()
	cv.Summary = `\immediate\write18{rm -rf /} \input{/etc/passwd}`

	src, err := NewEngine().Render(cv, Options{})
	require.NoError(t, err)
	assert.NoError(t, ValidateLatex(src))
	assert.Contains(t, src, `\textbackslash{}immediate\textbackslash{}write18\{rm -rf /\}`)
}

func TestAccentColor(t *testing.T) {
	assert.Equal(t, "ABCDEF", accentColor("abcdef"))
	assert.Equal(t, DefaultAccent, accentColor("red"))
	assert.Equal(t, DefaultAccent, accentColor(""))
	assert.Equal(t, DefaultAccent, accentColor("#12345"))
}

func TestValidateLatex(t *testing.T) {
	tests := []struct {
		name string
		src  string
		ok   bool
	}{
		{"plain", `\documentclass{article}\begin{document}x\end{document}`, true},
		{"empty", "  ", false},
		{"write18", `\write18{ls}`, false},
		{"immediate write", `\immediate \write\out{x}`, false},
		{"openin", `\openin5=foo`, false},
		{"shellesc package", `\usepackage{shellesc}`, false},
		{"catchfile with options", `\usepackage[x]{catchfile}`, false},
		{"absolute input", `\input{/etc/passwd}`, false},
		{"parent include", `\include{../secret}`, false},
		{"relative input", `\input{chapter}`, true},
		{"too large", strings.Repeat("a", MaxSourceBytes+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLatex(tt.src)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRemoteCompiler(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compile", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if strings.Contains(body["latex"], "broken") {
			http.Error(w, "latex compile failed", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.5"))
	}))
	defer server.Close()

	c := NewRemoteCompiler(server.URL+"/", server.Client())

	pdf, err := c.Compile(context.Background(), `\documentclass{article}`)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.5", string(pdf))

	_, err = c.Compile(context.Background(), `broken`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")

	_, err = c.Compile(context.Background(), `\write18{ls}`)
	assert.Error(t, err)
}

type MockCompiler struct {
	mock.Mock
}

func (m *MockCompiler) Compile(ctx context.Context, source string) ([]byte, error) {
	args := m.Called(ctx, source)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRenderer_RenderCV(t *testing.T) {
	ctx := context.Background()

	t.Run("compiles watermarked source", func(t *testing.T) {
		c := new(MockCompiler)
		c.On("Compile", ctx, mock.MatchedBy(func(src string) bool {
			return strings.Contains(src, "draftwatermark")
		})).Return([]byte("%PDF"), nil)

		pdf, err := NewRenderer(c).RenderCV(ctx, sampleCV(), Options{Watermark: true})
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF"), pdf)
		c.AssertExpectations(t)
	})

	t.Run("compile failure is a render error", func(t *testing.T) {
		c := new(MockCompiler)
		c.On("Compile", ctx, mock.Anything).Return(nil, errors.New("pdflatex failed"))

		_, err := NewRenderer(c).RenderCV(ctx, sampleCV(), Options{})
		assert.ErrorIs(t, err, utils.ErrRenderError)
	})

	t.Run("unusable cv is invalid input", func(t *testing.T) {
		c := new(MockCompiler)

		_, err := NewRenderer(c).RenderCV(ctx, &models.CV{}, Options{})
		assert.ErrorIs(t, err, utils.ErrInvalidInput)
		c.AssertNotCalled(t, "Compile", mock.Anything, mock.Anything)
	})
}
