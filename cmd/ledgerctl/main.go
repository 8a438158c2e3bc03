package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/erp/ledger/internal/application/coaimport"
	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	flagTenant       = "tenant"
	flagActor        = "actor"
	flagTemplate     = "template"
	flagState        = "state"
	flagObjectKey    = "object-key"
	configKeyTenant  = "tenant_id"
	configKeyActor   = "actor_id"
	envTenant        = "LEDGER_TENANT_ID"
	envActor         = "LEDGER_ACTOR_ID"
	defaultLogFormat = "console"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operator commands for the ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newBootstrapCommand(), newDetectHierarchyCommand())
	return cmd
}

func newBootstrapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Seed a tenant's chart of accounts from a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindEnv(configKeyTenant, envTenant); err != nil {
				return err
			}
			if err := viper.BindEnv(configKeyActor, envActor); err != nil {
				return err
			}
			if err := viper.BindPFlag(configKeyTenant, cmd.Flags().Lookup(flagTenant)); err != nil {
				return err
			}
			if err := viper.BindPFlag(configKeyActor, cmd.Flags().Lookup(flagActor)); err != nil {
				return err
			}

			tenantID, err := parseID("tenant", viper.GetString(configKeyTenant))
			if err != nil {
				return err
			}
			actorID, err := parseID("actor", viper.GetString(configKeyActor))
			if err != nil {
				return err
			}
			template, _ := cmd.Flags().GetString(flagTemplate)
			var state *string
			if cmd.Flags().Changed(flagState) {
				s, _ := cmd.Flags().GetString(flagState)
				state = &s
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runBootstrap(ctx, uow.CommandContext{TenantID: tenantID, ActorUserID: actorID}, template, state)
		},
	}
	cmd.Flags().String(flagTenant, "", "Tenant UUID (env "+envTenant+")")
	cmd.Flags().String(flagActor, "", "Acting user UUID (env "+envActor+")")
	cmd.Flags().String(flagTemplate, "", "Template key (default from ledger.default_template_key)")
	cmd.Flags().String(flagState, "", "State used to pick state-specific tax accounts")
	return cmd
}

func newDetectHierarchyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect-hierarchy [FILE]",
		Short: "Analyze a chart-of-accounts CSV and print the detected hierarchy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, _ := cmd.Flags().GetString(flagObjectKey)
			if (len(args) == 0) == (key == "") {
				return fmt.Errorf("pass either a FILE or --%s", flagObjectKey)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if len(args) == 1 {
				return runAnalyzeFile(ctx, args[0])
			}
			return runAnalyzeObject(ctx, key)
		},
	}
	cmd.Flags().String(flagObjectKey, "", "Key of an uploaded file in import storage")
	return cmd
}

func runBootstrap(ctx context.Context, cc uow.CommandContext, template string, state *string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync(log) }()

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer func() { _ = db.Close() }()

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	scope := persistence.NewGormTransactionScope(db.DB,
		event.NewOutboxPublisher(serializer, event.WithMaxRetries(cfg.Event.MaxRetries)))
	exec := uow.NewExecutor(scope, persistence.NewGormAuditRepository(db.DB), log.Named("uow"))

	svc := ledgerapp.NewBootstrapService(exec, ledgerapp.BootstrapConfig{
		DefaultTemplateKey:    cfg.Ledger.DefaultTemplateKey,
		DefaultToleranceCents: cfg.Ledger.DefaultToleranceCents,
		DefaultAutoPostMode:   ledger.AutoPostMode(cfg.Ledger.DefaultAutoPostMode),
	}, log.Named("bootstrap"))

	res, err := svc.BootstrapTenantCOA(ctx, cc, template, state)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runAnalyzeFile(ctx context.Context, path string) error {
	_, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync(log) }()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := coaimport.NewImportService(log.Named("coa_import")).Analyze(ctx, f)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runAnalyzeObject(ctx context.Context, key string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync(log) }()

	var src coaimport.FileSource
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log.Named("storage")))
		if err != nil {
			return err
		}
		src = s3
	} else {
		local, err := storage.NewLocalFileStorage(cfg.Storage.LocalDir)
		if err != nil {
			return err
		}
		src = local
	}

	svc := coaimport.NewImportService(log.Named("coa_import"),
		coaimport.WithFileSource(src),
		coaimport.WithMaxBytes(cfg.Ledger.ImportMaxBytes),
	)
	res, err := svc.AnalyzeObject(ctx, key)
	if err != nil {
		return err
	}
	return printJSON(res)
}

// loadRuntime reads config.toml / ERP_* and builds a stderr logger so stdout stays JSON
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     defaultLogFormat,
		Output:     "stderr",
		TimeFormat: "15:04:05",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger init: %w", err)
	}
	return cfg, log, nil
}

func parseID(name, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s id is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", name, raw, err)
	}
	return id, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
