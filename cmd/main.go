package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"lead-agent/handler"
	"lead-agent/internal/classify"
	"lead-agent/internal/dispatch"
	"lead-agent/internal/integrations/openai"
	"lead-agent/internal/integrations/paramstore"
	"lead-agent/internal/integrations/pinecone"
	"lead-agent/internal/notify"
	"lead-agent/internal/repository"
	"lead-agent/internal/skills"
	"lead-agent/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	stateTable := mustEnv("STATE_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	indexHost := mustEnv("PINECONE_INDEX_HOST")
	leadSender := mustEnv("LEAD_SENDER")
	leadRecipient := mustEnv("LEAD_RECIPIENT")
	webhookURL := os.Getenv("LEAD_WEBHOOK_URL")
	chatModel := envStr("CHAT_MODEL", "gpt-4o")
	maxHistory := envInt("MAX_HISTORY_ITEMS", 20)
	maxMessageLen := envInt("MAX_MESSAGE_LENGTH", 1000)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	stateClient, err := repository.New(awsdynamodb.NewFromConfig(cfg), stateTable)
	if err != nil {
		slog.Error("failed to create state client", "err", err)
		os.Exit(1)
	}
	openaiClient, err := openai.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}
	pineconeClient, err := pinecone.NewClient(ssmClient, paramPrefix, indexHost)
	if err != nil {
		slog.Error("failed to create Pinecone client", "err", err)
		os.Exit(1)
	}

	var notifyOpts []notify.Option
	if webhookURL != "" {
		notifyOpts = append(notifyOpts, notify.WithWebhook(webhookURL))
	}
	notifier, err := notify.New(awssesv2.NewFromConfig(cfg), leadSender, leadRecipient, notifyOpts...)
	if err != nil {
		slog.Error("failed to create notifier", "err", err)
		os.Exit(1)
	}

	// ---- Skill set ----
	classifier, err := classify.New(openaiClient, slog.Default())
	if err != nil {
		slog.Error("failed to create classifier", "err", err)
		os.Exit(1)
	}
	syncer, err := skills.NewLeadSyncer(stateClient, notifier, slog.Default())
	if err != nil {
		slog.Error("failed to create lead syncer", "err", err)
		os.Exit(1)
	}
	defs, err := skills.Defaults(skills.Services{
		LLM:        openaiClient,
		Retriever:  pineconeClient,
		Classifier: classifier,
		Syncer:     syncer,
		ChatModel:  chatModel,
	})
	if err != nil {
		slog.Error("failed to assemble skill set", "err", err)
		os.Exit(1)
	}
	registry, err := dispatch.NewRegistry(defs, slog.Default())
	if err != nil {
		slog.Error("failed to build skill registry", "err", err)
		os.Exit(1)
	}
	dispatcher, err := dispatch.New(registry, slog.Default())
	if err != nil {
		slog.Error("failed to create dispatcher", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	chatService, err := usecase.NewChatService(dispatcher, openaiClient, stateClient, maxHistory, maxMessageLen)
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}
	h, err := handler.NewHandler(chatService, registry)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
