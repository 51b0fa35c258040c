package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"plateful-agent/handler"
	"plateful-agent/internal/config"
	"plateful-agent/internal/integrations/paramstore"
	"plateful-agent/internal/integrations/places"
	"plateful-agent/internal/integrations/sheets"
	"plateful-agent/internal/logging"
	"plateful-agent/internal/repository"
	"plateful-agent/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load(os.LookupEnv, true)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSON(os.Stdout, cfg.LogLevel))

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		fatal("failed to load AWS config", err)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		fatal("failed to create SSM client", err)
	}
	sessions, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.StateTable)
	if err != nil {
		fatal("failed to create session store", err)
	}
	placesClient, err := places.NewClient(ssmClient, cfg.ParamPrefix)
	if err != nil {
		fatal("failed to create places client", err)
	}
	sheetsClient, err := sheets.NewClient(ssmClient, cfg.ParamPrefix, sheets.WithKeyFile(cfg.ServiceAccountFile))
	if err != nil {
		fatal("failed to create sheets client", err)
	}

	// ---- Use cases ----
	chat, err := usecase.Build(placesClient, sheetsClient, sessions, cfg.MaxMessageLength, cfg.MaxTranscriptItems)
	if err != nil {
		fatal("failed to create chat service", err)
	}

	h, err := handler.NewHandler(chat)
	if err != nil {
		fatal("failed to create handler", err)
	}

	lambda.Start(h.Handle)
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
