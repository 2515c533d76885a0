package cmd

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively create a " + app + ".yaml configuration file",
	Run: func(_ *cobra.Command, _ []string) {
		if err := setup(); err != nil {
			log.Fatalf("setup failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func setup() error {
	providerPrompt := promptui.Select{
		Label: "AI provider",
		Items: []string{"groq", "openai", "google", "gemini"},
	}
	_, provider, err := providerPrompt.Run()
	if err != nil {
		return err
	}

	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: defaultModels[provider],
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return err
	}

	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: "3001",
		Validate: func(input string) error {
			n, err := strconv.Atoi(input)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("invalid port: %s", input)
			}
			return nil
		},
	}
	port, err := portPrompt.Run()
	if err != nil {
		return err
	}

	resumePrompt := promptui.Prompt{
		Label:   "Resume JSON path",
		Default: "data/resume.json",
	}
	resumePath, err := resumePrompt.Run()
	if err != nil {
		return err
	}

	keyFilePrompt := promptui.Prompt{
		Label:   fmt.Sprintf("API key file (empty to use %s)", keyEnvVars[provider]),
		Default: "",
	}
	keyFile, err := keyFilePrompt.Run()
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "port: %s\n", port)
	fmt.Fprintf(&b, "environment: development\n")
	fmt.Fprintf(&b, "resume: %s\n", resumePath)
	fmt.Fprintf(&b, "ai:\n")
	fmt.Fprintf(&b, "  provider: %s\n", provider)
	fmt.Fprintf(&b, "  model: %s\n", model)
	fmt.Fprintf(&b, "  temperature: 0.7\n")
	fmt.Fprintf(&b, "  max-tokens: 1000\n")
	if keyFile != "" {
		fmt.Fprintf(&b, "  api-key-file: %s\n", keyFile)
	}

	filename := app + ".yaml"
	if _, err := os.Stat(filename); err == nil {
		overwrite := promptui.Select{
			Label: fmt.Sprintf("%s already exists, overwrite?", filename),
			Items: []string{"No", "Yes"},
		}
		_, answer, err := overwrite.Run()
		if err != nil {
			return err
		}
		if answer == "No" {
			return fmt.Errorf("aborted, %s left untouched", filename)
		}
	}

	if err := os.WriteFile(filename, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}

	fmt.Printf("wrote %s\n", filename)
	return nil
}
