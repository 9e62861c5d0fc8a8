package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/bloomlabs/chatforge/internal/models"
	"github.com/bloomlabs/chatforge/pkg/analyzer"
	cfgPkg "github.com/bloomlabs/chatforge/pkg/config"
	"github.com/bloomlabs/chatforge/pkg/extract"
	"github.com/bloomlabs/chatforge/pkg/llm"
	"github.com/bloomlabs/chatforge/pkg/pipeline"
	"github.com/bloomlabs/chatforge/pkg/secrets"
	"github.com/bloomlabs/chatforge/pkg/store"
	"github.com/bloomlabs/chatforge/pkg/synthesizer"
)

type cliOptions struct {
	ConfigPath  string
	ChatID      string
	ChatName    string
	ChatType    string
	Personality string
	Description string
	IngestFile  string
	Apply       bool
}

func main() {
	opts := parseFlags()

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() cliOptions {
	var opts cliOptions

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&opts.ChatID, "chat-id", "", "Chat identifier to generate a prompt for")
	flag.StringVar(&opts.ChatName, "name", "Assistant", "Chat name")
	flag.StringVar(&opts.ChatType, "type", "assistant", "Chat type (support, sales, assistant, ...)")
	flag.StringVar(&opts.Personality, "personality", "professional", "Chat personality")
	flag.StringVar(&opts.Description, "description", "", "Chat description")
	flag.StringVar(&opts.IngestFile, "file", "", "Local file to ingest before generating")
	flag.BoolVar(&opts.Apply, "apply", false, "Persist the generated prompt to the chat record")
	flag.Parse()

	return opts
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(opts cliOptions) error {
	if opts.ChatID == "" {
		return fmt.Errorf("-chat-id is required")
	}

	config, err := cfgPkg.LoadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}
	if errs := config.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return fmt.Errorf("invalid configuration")
	}

	documentStore, err := store.NewWithConfig(store.StoreConfig{
		ConnString: config.Database.URL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize store: %v", err)
	}
	defer documentStore.Close()

	credentials := secrets.NewWithConfig(secrets.ProviderConfig{
		Endpoint:   config.Secrets.Endpoint,
		SecretName: config.Secrets.SecretName,
		EnvVar:     config.Secrets.EnvVar,
		MinLength:  config.Secrets.MinLength,
		Prefix:     config.Secrets.Prefix,
	})

	client, err := llm.NewWithConfig(llm.ClientConfig{
		Credentials: credentials,
		Model:       config.LLM.Model,
		BaseURL:     config.LLM.BaseURL,
		RateLimit:   config.LLM.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %v", err)
	}

	ctx := context.Background()

	if opts.IngestFile != "" {
		if err := ingestFile(ctx, documentStore, opts.ChatID, opts.IngestFile); err != nil {
			return err
		}
	}

	generator := pipeline.New(
		analyzer.NewWithConfig(documentStore, client, analyzer.AnalyzerConfig{
			MaxDocuments:     config.Analyzer.MaxDocuments,
			PerDocumentChars: config.Analyzer.PerDocumentChars,
			AggregateChars:   config.Analyzer.AggregateChars,
			MaxTokens:        config.Analyzer.MaxTokens,
			Timeout:          time.Duration(config.Analyzer.TimeoutSeconds) * time.Second,
		}),
		synthesizer.NewWithConfig(client, synthesizer.SynthesizerConfig{
			MaxTokens:      config.Synthesizer.MaxTokens,
			Timeout:        time.Duration(config.Synthesizer.TimeoutSeconds) * time.Second,
			MinPromptChars: config.Synthesizer.MinPromptChars,
		}),
	)

	spinner := getSpinner("Analyzing documents and generating prompt...")

	result, err := generator.GeneratePrompt(ctx, opts.ChatID, models.ChatConfiguration{
		ChatName:    opts.ChatName,
		ChatType:    opts.ChatType,
		Personality: opts.Personality,
		Description: opts.Description,
	})
	spinner.Finish()
	fmt.Print("\n")

	if err != nil {
		return fmt.Errorf("prompt generation failed: %v", err)
	}

	color.Green("✓ Prompt generated\n")
	color.Cyan("Company: %s | Tone: %s | Documents: %d\n",
		result.Analysis.Company.Name, result.Analysis.Tone, len(result.Analysis.DocumentTypes))
	fmt.Printf("\n%s\n\n", result.Prompt)

	if opts.Apply {
		if err := documentStore.ApplySystemPrompt(ctx, opts.ChatID, result.Prompt); err != nil {
			return fmt.Errorf("failed to apply prompt: %v", err)
		}
		color.Green("✓ Prompt applied to chat %s\n", opts.ChatID)
	}

	return nil
}

func ingestFile(ctx context.Context, documentStore *store.Store, chatID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %v", path, err)
	}

	filename := filepath.Base(path)
	contentType := contentTypeFor(filename)

	text, err := extract.Text(data, contentType, filename)
	if err != nil {
		return fmt.Errorf("failed to extract text from %s: %v", filename, err)
	}

	doc := models.StoredDocument{
		ChatID:           chatID,
		Filename:         filename,
		OriginalFilename: filename,
		ContentType:      contentType,
		FileSize:         int64(len(data)),
		ExtractedText:    text,
		ContentSummary:   extract.Summarize(text),
	}

	if err := documentStore.InsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to store document: %v", err)
	}

	color.Green("✓ Ingested %s (%d bytes)\n", filename, len(data))
	return nil
}

func contentTypeFor(filename string) string {
	switch filepath.Ext(filename) {
	case ".pdf":
		return "application/pdf"
	case ".html", ".htm":
		return "text/html"
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown"
	default:
		return "text/plain"
	}
}
