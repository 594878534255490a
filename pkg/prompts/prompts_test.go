package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	p := Default()

	checks := map[string]string{
		"Names.Pinyin":       p.Names.Pinyin,
		"Names.Keywords":     p.Names.Keywords,
		"Names.Image":        p.Names.Image,
		"Authors.Identify":   p.Authors.Identify,
		"Authors.Disclaimer": p.Authors.Disclaimer,
	}
	for field, value := range checks {
		if strings.TrimSpace(value) == "" {
			t.Errorf("%s is empty", field)
		}
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Names.Pinyin != Default().Names.Pinyin {
		t.Error("expected built-in pinyin prompt")
	}
}

func TestLoadFromOverridesSomeKeys(t *testing.T) {
	tmpDir := t.TempDir()
	promptsPath := filepath.Join(tmpDir, "custom.yaml")

	promptsContent := `
names:
  pinyin: "Custom pinyin for {{.Name}}"
`
	if err := os.WriteFile(promptsPath, []byte(promptsContent), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadFrom(promptsPath)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if p.Names.Pinyin != "Custom pinyin for {{.Name}}" {
		t.Errorf("Names.Pinyin = %q", p.Names.Pinyin)
	}
	if p.Names.Keywords != Default().Names.Keywords {
		t.Error("Names.Keywords should keep its built-in text")
	}
}

func TestLoadFromMissing(t *testing.T) {
	_, err := LoadFrom("/nonexistent/path.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	promptsPath := filepath.Join(tmpDir, "invalid.yaml")

	if err := os.WriteFile(promptsPath, []byte("not: valid: yaml: content:"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(promptsPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestRenderDefaults(t *testing.T) {
	p := Default()

	tests := []struct {
		name     string
		render   func() (string, error)
		contains []string
	}{
		{
			name:     "pinyin",
			render:   func() (string, error) { return p.RenderPinyin(PinyinParams{Name: "李明"}) },
			contains: []string{`"李明"`, `"pinyin"`},
		},
		{
			name:     "keywords",
			render:   func() (string, error) { return p.RenderKeywords(KeywordsParams{Pinyin: "Lǐ Míng"}) },
			contains: []string{`"Lǐ Míng"`, `"keywords"`},
		},
		{
			name: "image",
			render: func() (string, error) {
				return p.RenderImage(ImageParams{Name: "李明", Pinyin: "Lǐ Míng", Keywords: "lee, mingle"})
			},
			contains: []string{"'李明'", "'Lǐ Míng'", "lee, mingle", "cartoon-style"},
		},
		{
			name:     "identify",
			render:   func() (string, error) { return p.RenderIdentify(IdentifyParams{Names: "Yiming Chen\nJohn Smith"}) },
			contains: []string{"Yiming Chen\nJohn Smith", `"identifiedNames"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.render()
			if err != nil {
				t.Fatalf("render error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("rendered prompt %q does not contain %q", got, want)
				}
			}
		})
	}
}

func TestRenderInvalidTemplate(t *testing.T) {
	p := &Prompts{
		Names: NamePrompts{
			Pinyin: "{{.Invalid",
		},
	}

	_, err := p.RenderPinyin(PinyinParams{Name: "test"})
	if err == nil {
		t.Error("expected error for invalid template")
	}
}

func TestRenderUnknownField(t *testing.T) {
	p := &Prompts{
		Names: NamePrompts{
			Keywords: "{{.Topic}}",
		},
	}

	_, err := p.RenderKeywords(KeywordsParams{Pinyin: "x"})
	if err == nil {
		t.Error("expected error for unknown template field")
	}
}
