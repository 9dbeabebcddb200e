package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/chathub/internal/config"
	"github.com/user/chathub/internal/coordinator"
	"github.com/user/chathub/internal/delivery"
	"github.com/user/chathub/internal/gateway"
	"github.com/user/chathub/internal/metrics"
	"github.com/user/chathub/internal/notify"
	"github.com/user/chathub/internal/presence"
	"github.com/user/chathub/internal/scheduler"
	"github.com/user/chathub/internal/state"
	"github.com/user/chathub/internal/telegram"
	"github.com/user/chathub/internal/types"
	"github.com/user/chathub/internal/webhook"
	"github.com/user/chathub/internal/workflow"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chathub daemon",
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, pidFileName)
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func schedulerJobs(jobs []config.Job) []scheduler.Job {
	out := make([]scheduler.Job, len(jobs))
	for i, j := range jobs {
		out[i] = scheduler.Job{
			Name:     j.Name,
			Schedule: j.Schedule,
			Kind:     scheduler.Kind(j.Kind),
			Chat:     j.Chat,
			Disabled: j.Disabled,
		}
	}
	return out
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	analyzer, err := buildAnalyzer(cfg, m.ObserveAnalysis)
	if err != nil {
		return err
	}

	// Workflows: built-ins plus the hot-reloaded definitions file
	store := workflow.NewStoreWithBuiltins()
	engine := workflow.NewEngine(store)
	definitions := state.NewDefinitionStore(cfg.WorkflowsPath())
	watcher, err := state.NewWatcher(definitions, func(wfs []*workflow.Workflow) {
		added, updated, removed := store.SyncCustom(wfs)
		slog.Info("workflows synced", "file", definitions.Path(),
			"added", added, "updated", updated, "removed", removed)
	})
	if err != nil {
		return err
	}
	go func() {
		if err := watcher.Run(ctx); err != nil {
			slog.Error("workflow watcher stopped", "error", err)
		}
	}()

	history := state.NewHistory(cfg.HistorySize)

	// Delivery registry: platforms without a sender only log the reply
	deliveryReg := delivery.NewRegistry()
	deliveryReg.SetFallback(delivery.LogHandler("unrouted"))
	if cfg.Feishu.AppID != "" && cfg.Feishu.AppSecret != "" {
		deliveryReg.Register(types.PlatformFeishu, delivery.NewFeishuSender(cfg.Feishu.AppID, cfg.Feishu.AppSecret).Send)
		slog.Info("feishu delivery enabled")
	}

	gw := gateway.New(int64(cfg.MaxConcurrent))
	inbound := func(ctx context.Context, msg *types.Message) (*gateway.Run, error) {
		return gw.HandleInbound(ctx, msg)
	}

	// The presence hub is both a report sink and an ingest path, so it is
	// created before the coordinator and reaches it through coord.
	var coord *coordinator.Coordinator
	hub := presence.NewHub(
		presence.WithMessageHandler(func(ctx context.Context, msg *types.Message) error {
			_, err := inbound(ctx, msg)
			return err
		}),
		presence.WithRoomEmpty(func(chat types.ChatKey) {
			if coord.CloseConversation(chat) {
				slog.Debug("conversation closed", "chat", chat)
			}
		}),
	)

	sinks := notify.Multi{notify.LogSink{}, m, hub}
	if cfg.NATS.URL != "" {
		nc, err := notify.Connect(cfg.NATS.URL, cfg.NATS.Token)
		if err != nil {
			slog.Error("nats unavailable, reports will not be published", "url", cfg.NATS.URL, "error", err)
		} else {
			defer nc.Drain()
			sinks = append(sinks, notify.NewNATSSink(nc, cfg.NATS.Subject))
			slog.Info("publishing reports to nats", "url", cfg.NATS.URL, "subject", cfg.NATS.Subject)
		}
	}

	coord = coordinator.New(analyzer, engine,
		coordinator.WithSink(sinks),
		coordinator.WithSender(deliveryReg),
		coordinator.WithHistory(history),
		coordinator.WithReplyDelay(cfg.ReplyDelay()),
		coordinator.WithRetry(gw.Retry),
		coordinator.WithReplyHook(m.ObserveReply),
	)
	defer coord.Close()

	gw.SetProcessor(coord.ProcessRun)
	gw.Start(ctx)
	defer gw.Stop()

	m.Gauge("workflows_enabled", "Number of enabled workflows.", func() float64 {
		return float64(store.Stats().EnabledWorkflows)
	})
	m.Gauge("queue_lanes", "Number of per-chat lanes in the gateway queue.", func() float64 {
		return float64(gw.Queue.Lanes())
	})

	slog.Info("chathub started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"max_concurrent", cfg.MaxConcurrent,
		"remote_analysis", analyzer.IsAvailable(),
		"llm_model", cfg.LLM.Model,
		"workflows_file", definitions.Path(),
		"pid_file", pidPath,
	)

	// Telegram adapter
	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token,
			func(ctx context.Context, msg *types.Message) error {
				_, err := inbound(ctx, msg)
				return err
			},
			func() string {
				st := store.Stats()
				return fmt.Sprintf("chathub running\nworkflows: %d (%d enabled)\ntriggers: %d",
					st.TotalWorkflows, st.EnabledWorkflows, st.TotalTriggers)
			})
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		deliveryReg.Register(types.PlatformTelegram, adapter.Send)
		slog.Info("telegram adapter started")
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	// Scheduler
	sched := scheduler.New(schedulerJobs(cfg.Jobs))
	sched.Handle(scheduler.KindWorkflowStats, scheduler.StatsJob(store))
	sched.Handle(scheduler.KindActionDigest, scheduler.DigestJob(analyzer, history, deliveryReg))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()
	slog.Info("scheduler started", "jobs", sched.Entries())

	// HTTP server
	if cfg.HTTP.Enabled {
		srv := webhook.NewServer(inbound, engine, analyzer, history,
			webhook.WithDefinitions(definitions),
			webhook.WithFeishuToken(cfg.Feishu.VerificationToken),
			webhook.WithHandler("GET /metrics", m.Handler()),
			webhook.WithHandler("GET /ws", hub),
		)
		httpServer := &http.Server{
			Addr:    cfg.HTTP.Listen,
			Handler: srv,
		}
		go func() {
			slog.Info("http server started", "listen", cfg.HTTP.Listen)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("http server error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			httpServer.Close()
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			// Clean up PID file before re-exec
			os.Remove(pidPath)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				if _, writeErr := writePIDFile(cfg.DataDir); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}
		slog.Info("shutting down", "signal", sig)
		return nil
	}
}
