package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"memorahanzi/internal/storage"
)

const envFile = ".env"

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Long:  `Configure API keys and create the output directory.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("汉 MemoraHanzi Setup"))

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Creating directories", createDirectories},
		{"Configuring environment", configureEnv},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	printNextSteps()
	return nil
}

func createDirectories() error {
	if err := storage.NewLocalStorage("output").EnsureDirectories(); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Created output directory"))
	return nil
}

func configureEnv() error {
	env, err := godotenv.Read(envFile)
	if err != nil {
		env = make(map[string]string)
	} else {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Update its keys?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	if err := configureGemini(env); err != nil {
		return err
	}
	if err := configureOptionalKeys(env); err != nil {
		return err
	}

	return writeEnvFile(env)
}

func configureGemini(env map[string]string) error {
	var mode string
	if err := huh.NewSelect[string]().
		Title("Gemini access").
		Options(
			huh.NewOption("Gemini API key", "key"),
			huh.NewOption("Vertex AI (gcloud project)", "vertex"),
			huh.NewOption("Secret Manager secret", "secret"),
		).
		Value(&mode).
		Run(); err != nil {
		return err
	}

	switch mode {
	case "key":
		key := env["API_KEY"]
		if err := huh.NewInput().
			Title("Gemini API Key").
			Description("https://aistudio.google.com/apikey").
			EchoMode(huh.EchoModePassword).
			Value(&key).
			Validate(required("Gemini API Key")).
			Run(); err != nil {
			return err
		}
		env["API_KEY"] = strings.TrimSpace(key)
	case "vertex", "secret":
		return configureGCP(env, mode == "secret")
	}
	return nil
}

func configureGCP(env map[string]string, withSecret bool) error {
	project := env["GOOGLE_CLOUD_PROJECT"]
	if project == "" {
		project = getActiveProject()
	}
	location := env["GOOGLE_CLOUD_LOCATION"]
	secret := env["API_KEY_SECRET"]

	fields := []huh.Field{
		huh.NewInput().
			Title("Google Cloud Project").
			Value(&project).
			Validate(required("Project")),
		huh.NewInput().
			Title("Location").
			Placeholder("us-central1").
			Value(&location),
	}
	if withSecret {
		fields = append(fields, huh.NewInput().
			Title("API key secret").
			Description("Secret id or full projects/.../secrets/... name").
			Value(&secret).
			Validate(required("Secret")))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	env["GOOGLE_CLOUD_PROJECT"] = strings.TrimSpace(project)
	setIfPresent(env, "GOOGLE_CLOUD_LOCATION", location)
	if withSecret {
		env["API_KEY_SECRET"] = strings.TrimSpace(secret)
	}

	if commandExists("gcloud") {
		apis := []string{"aiplatform.googleapis.com"}
		if withSecret {
			apis = append(apis, "secretmanager.googleapis.com")
		}
		err := runWithSpinner("Enabling APIs", func() error {
			args := append([]string{"services", "enable"}, apis...)
			args = append(args, "--project", env["GOOGLE_CLOUD_PROJECT"])
			return runSetupCmd("gcloud", args...)
		})
		if err != nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
		}
	} else {
		fmt.Println(warnStyle.Render("gcloud CLI not found - run `gcloud auth application-default login` once it is installed"))
	}
	return nil
}

func configureOptionalKeys(env map[string]string) error {
	groqKey := env["GROQ_API_KEY"]
	deepseekKey := env["DEEPSEEK_API_KEY"]
	openaiKey := env["OPENAI_API_KEY"]
	anthropicKey := env["ANTHROPIC_API_KEY"]
	elevenKey := env["ELEVENLABS_API_KEY"]
	bucket := env["GCS_BUCKET"]

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Groq API Key (optional)").
				Description("https://console.groq.com/keys").
				Value(&groqKey),
			huh.NewInput().
				Title("DeepSeek API Key (optional)").
				Description("https://platform.deepseek.com/api_keys").
				Value(&deepseekKey),
			huh.NewInput().
				Title("OpenAI API Key (optional)").
				Description("Also used for OpenAI-compatible endpoints set in openai.base_url").
				Value(&openaiKey),
			huh.NewInput().
				Title("Anthropic API Key (optional)").
				Value(&anthropicKey),
			huh.NewInput().
				Title("ElevenLabs API Keys (optional)").
				Description("Comma-separated; rotated when one runs out of quota").
				Value(&elevenKey),
			huh.NewInput().
				Title("GCS bucket for exports (optional)").
				Value(&bucket),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	setIfPresent(env, "GROQ_API_KEY", groqKey)
	setIfPresent(env, "DEEPSEEK_API_KEY", deepseekKey)
	setIfPresent(env, "OPENAI_API_KEY", openaiKey)
	setIfPresent(env, "ANTHROPIC_API_KEY", anthropicKey)
	setIfPresent(env, "ELEVENLABS_API_KEY", elevenKey)
	setIfPresent(env, "GCS_BUCKET", bucket)
	return nil
}

func writeEnvFile(env map[string]string) error {
	if err := godotenv.Write(env, envFile); err != nil {
		return err
	}
	if err := os.Chmod(envFile, 0600); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Wrote .env file"))
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Try: memorahanzi name 李明 --image --save")
	fmt.Println("  2. Or:  memorahanzi authors -f authors.txt")
	fmt.Println("  3. Or:  memorahanzi serve")
}

func setIfPresent(env map[string]string, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		env[key] = value
	}
}

func getActiveProject() string {
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, stderr.String())
	}
	return nil
}
