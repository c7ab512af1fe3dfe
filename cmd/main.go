package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/garage-workboard/internal/alerting"
	"github.com/ukydev/garage-workboard/internal/board"
	"github.com/ukydev/garage-workboard/internal/config"
	"github.com/ukydev/garage-workboard/internal/db"
	"github.com/ukydev/garage-workboard/internal/handlers"
	"github.com/ukydev/garage-workboard/internal/lifecycle"
	"github.com/ukydev/garage-workboard/internal/models"
	"github.com/ukydev/garage-workboard/internal/monitor"
	"github.com/ukydev/garage-workboard/internal/sources"
)

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// loadBoard restores today's board from the durable store, or starts a
// fresh one when no snapshot exists.
func loadBoard(ctx context.Context, store db.BoardStore, today time.Time) *board.Board {
	date := today.Format("2006-01-02")
	snap, err := store.LoadBoard(ctx, date)
	if err != nil {
		log.WithError(err).Warn("Failed to load board snapshot; starting fresh")
	}
	if snap != nil {
		if b, err := board.FromSnapshot(*snap); err == nil {
			log.WithField("date", date).Info("Restored board from snapshot")
			return b
		} else {
			log.WithError(err).Warn("Invalid board snapshot; starting fresh")
		}
	}
	log.WithField("date", date).Info("Starting fresh board")
	return board.New(today)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found")
	}
	cfg := config.Load()

	client, err := db.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	log.Info("Connected to MongoDB")
	database := client.Database(cfg.MongoDatabase)

	boardStore := &db.MongoBoardStore{Collection: database.Collection("boards")}
	workflow := &db.MongoWorkflowSink{Collection: database.Collection("workflow_events")}
	labor := &db.MongoLaborTracker{
		Collection:    database.Collection("labor_sessions"),
		RatePerMinute: cfg.LaborRatePerMinute,
	}
	alertState := &db.MongoAlertState{Collection: database.Collection("alert_state")}
	toolCatalogue := &db.MongoToolCollection{Collection: database.Collection("tools")}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	today := time.Now()
	b := loadBoard(ctx, boardStore, today)

	aggregator := sources.NewAggregator(
		&db.MongoAttentionFeed{Collection: database.Collection("attention_list")},
		&db.MongoWaitingListFeed{Collection: database.Collection("waiting_list")},
		&db.MongoInventoryFeed{Collection: database.Collection("inventory")},
	)
	machine := lifecycle.NewMachine(b, labor, workflow)

	var notifier alerting.Notifier
	if cfg.MQTTBroker != "" {
		mq, err := alerting.NewMQTTNotifier(cfg.MQTTBroker, "garage-workboard", cfg.MQTTTopic)
		if err != nil {
			log.WithError(err).Warn("MQTT unavailable; alerts go to the log only")
			notifier = alerting.LogNotifier{}
		} else {
			defer mq.Close()
			notifier = mq
		}
	} else {
		notifier = alerting.LogNotifier{}
	}

	mon := monitor.New(b, cfg.MonitorTick, cfg.OverrunEvalEvery, func(snap models.BoardSnapshot) {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := boardStore.SaveBoard(saveCtx, snap); err != nil {
			log.WithError(err).Warn("Failed to persist board after monitor change")
		}
	})
	go mon.Run(ctx)

	evaluator := alerting.NewEvaluator(b,
		func(ctx context.Context) []models.WaitingCandidate {
			return aggregator.Aggregate(ctx, b.ScheduledCodes())
		},
		notifier, alertState,
		alerting.Config{
			MinInterval:   cfg.AlertMinInterval,
			CostPerMinute: cfg.OverrunCostPerMinute,
			WorkdayStart:  cfg.WorkdayStartHour,
			WorkdayEnd:    cfg.WorkdayEndHour,
		})
	go evaluator.Run(ctx, cfg.MonitorTick)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthzHandler)
	handlers.NewScheduleHandler(b, aggregator, machine, boardStore, toolCatalogue, workflow).Register(mux)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: mux}
	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := boardStore.SaveBoard(saveCtx, b.Snapshot()); err != nil {
			log.WithError(err).Warn("Failed to persist board on shutdown")
		}
		server.Shutdown(saveCtx)
	}()

	log.WithField("port", cfg.Port).Info("HTTP server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("HTTP server failed")
	}
}
