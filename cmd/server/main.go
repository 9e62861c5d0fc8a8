package main

import (
	"flag"
	"log"
	"time"

	"github.com/bloomlabs/chatforge/pkg/analyzer"
	cfgPkg "github.com/bloomlabs/chatforge/pkg/config"
	"github.com/bloomlabs/chatforge/pkg/knowledge"
	"github.com/bloomlabs/chatforge/pkg/llm"
	"github.com/bloomlabs/chatforge/pkg/pipeline"
	"github.com/bloomlabs/chatforge/pkg/secrets"
	"github.com/bloomlabs/chatforge/pkg/store"
	"github.com/bloomlabs/chatforge/pkg/synthesizer"
	"github.com/bloomlabs/chatforge/server"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	config, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if errs := config.Validate(); len(errs) > 0 {
		for _, e := range errs {
			log.Printf("config: %v", e)
		}
		log.Fatal("invalid configuration")
	}

	documentStore, err := store.NewWithConfig(store.StoreConfig{
		ConnString: config.Database.URL,
	})
	if err != nil {
		log.Fatalf("failed to initialize store: %v", err)
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
		log.Fatalf("failed to initialize LLM client: %v", err)
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

	srv := server.NewWithConfig(server.Config{
		Port:           config.Server.Port,
		ChatModel:      config.Server.ChatModel,
		ChatTokens:     config.Server.ChatTokens,
		ChatTimeout:    time.Duration(config.Server.ChatTimeoutSeconds) * time.Second,
		MaxUploadBytes: config.Server.MaxUploadMB << 20,
		KnowledgeContext: knowledge.ContextConfig{
			MaxDocuments:     config.Knowledge.MaxDocuments,
			PerDocumentChars: config.Knowledge.PerDocumentChars,
		},
	}, documentStore, generator, client, credentials, documentStore)

	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
}
