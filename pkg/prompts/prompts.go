package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

type Prompts struct {
	Names   NamePrompts   `yaml:"names"`
	Authors AuthorPrompts `yaml:"authors"`
}

type NamePrompts struct {
	Pinyin   string `yaml:"pinyin"`
	Keywords string `yaml:"keywords"`
	Image    string `yaml:"image"`
}

type AuthorPrompts struct {
	Identify   string `yaml:"identify"`
	Disclaimer string `yaml:"disclaimer"`
}

type PinyinParams struct {
	Name string
}

type KeywordsParams struct {
	Pinyin string
}

type ImageParams struct {
	Name     string
	Pinyin   string
	Keywords string
}

type IdentifyParams struct {
	Names string
}

// Default returns the built-in prompt set.
func Default() *Prompts {
	var p Prompts
	if err := yaml.Unmarshal(defaultPrompts, &p); err != nil {
		panic(fmt.Sprintf("embedded prompts are invalid: %v", err))
	}
	return &p
}

// Load returns the built-in prompts, overridden by the file at path when path
// is not empty. Keys missing from the file keep their built-in text.
func Load(path string) (*Prompts, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	return p, nil
}

func (p *Prompts) RenderPinyin(params PinyinParams) (string, error) {
	return render(p.Names.Pinyin, params)
}

func (p *Prompts) RenderKeywords(params KeywordsParams) (string, error) {
	return render(p.Names.Keywords, params)
}

func (p *Prompts) RenderImage(params ImageParams) (string, error) {
	return render(p.Names.Image, params)
}

func (p *Prompts) RenderIdentify(params IdentifyParams) (string, error) {
	return render(p.Authors.Identify, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
