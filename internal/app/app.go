// Package app wires configuration into a running process: storage, the job
// queue, the delivery worker, the sweeper and the HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/campaign-crm/internal/assistant"
	"github.com/unclebandit/campaign-crm/internal/config"
	"github.com/unclebandit/campaign-crm/internal/controller"
	"github.com/unclebandit/campaign-crm/internal/db"
	"github.com/unclebandit/campaign-crm/internal/handler"
	"github.com/unclebandit/campaign-crm/internal/metrics"
	"github.com/unclebandit/campaign-crm/internal/queue"
	"github.com/unclebandit/campaign-crm/internal/repository"
	"github.com/unclebandit/campaign-crm/internal/scheduler"
	"github.com/unclebandit/campaign-crm/internal/service"
)

type App struct {
	Config  config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Store   *repository.Store
	Queue   queue.Queue
	Worker  *service.Worker
	Sweeper *scheduler.Sweeper
	Router  http.Handler
}

// New opens the store and the queue and builds every service on top.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	m := metrics.New()

	store, err := db.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	q, err := OpenQueue(cfg.Queue, logger, m)
	if err != nil {
		_ = store.Close(context.Background())
		return nil, err
	}
	gen, err := newGenerator(ctx, cfg.Assistant, logger)
	if err != nil {
		_ = q.Close()
		_ = store.Close(context.Background())
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Store:   store,
		Queue:   q,
		Worker: &service.Worker{
			CampaignRepo:   store.Campaigns,
			CustomerRepo:   store.Customers,
			LogRepo:        store.Logs,
			Sender:         service.NewRandomSender(cfg.Delivery.SuccessRate, time.Now().UnixNano()),
			Metrics:        m,
			Logger:         logger.Named("worker"),
			RecipientDelay: cfg.Delivery.RecipientDelay,
		},
		Sweeper: scheduler.NewSweeper(store.Campaigns, q, m, logger.Named("sweeper"), cfg.Sweeper.Grace),
	}
	a.Router = a.routes(gen)
	return a, nil
}

// OpenQueue connects the configured job transport.
func OpenQueue(c config.QueueConfig, logger *zap.Logger, m *metrics.Metrics) (queue.Queue, error) {
	switch c.Driver {
	case "memory":
		return queue.NewInMemoryQueue(c.Workers, c.Buffer, logger.Named("queue"), m), nil
	case "amqp":
		q, err := queue.DialAMQP(c.AMQPURL, c.Name, logger.Named("queue"))
		if err != nil {
			return nil, err
		}
		return q, nil
	}
	return nil, fmt.Errorf("unknown queue driver %q", c.Driver)
}

func newGenerator(ctx context.Context, c config.AssistantConfig, logger *zap.Logger) (assistant.Generator, error) {
	if c.APIKey == "" {
		logger.Warn("assistant API key not set, AI endpoints will fail")
		return assistant.Unconfigured{}, nil
	}
	return assistant.NewGenAIClient(ctx, c.APIKey, c.Model, c.Timeout)
}

func (a *App) routes(gen assistant.Generator) http.Handler {
	log := a.Logger.Named("http")
	s := a.Store

	analytics := &service.AnalyticsService{CustomerRepo: s.Customers, CampaignRepo: s.Campaigns, OrderRepo: s.Orders}
	return handler.NewRouter(handler.Controllers{
		Campaigns: &controller.CampaignController{
			CampaignService: &service.CampaignService{
				CampaignRepo: s.Campaigns,
				LogRepo:      s.Logs,
				Queue:        a.Queue,
				Logger:       log,
			},
			Logger: log,
		},
		Customers: &controller.CustomerController{
			CustomerService: &service.CustomerService{CustomerRepo: s.Customers, Logger: log},
			Logger:          log,
		},
		Orders: &controller.OrderController{
			OrderService: &service.OrderService{OrderRepo: s.Orders, CustomerRepo: s.Customers, Logger: log},
			Logger:       log,
		},
		Insights: &controller.InsightController{
			SegmentService:   &service.SegmentService{CustomerRepo: s.Customers},
			AnalyticsService: analytics,
			Assistant:        &assistant.Service{Generator: gen, Logger: a.Logger.Named("assistant")},
			Logger:           log,
		},
		Vendor: &controller.VendorController{
			SeedService: a.SeedService(),
			Logger:      log,
		},
	}, a.Config.Auth.Sessions(), a.Metrics, log)
}

func (a *App) SeedService() *service.SeedService {
	return &service.SeedService{
		CustomerRepo: a.Store.Customers,
		OrderRepo:    a.Store.Orders,
		Logger:       a.Logger.Named("seed"),
	}
}

// Serve runs the HTTP server and the sweeper until ctx is done. With the
// memory queue the delivery worker runs in this process too.
func (a *App) Serve(ctx context.Context) error {
	if a.Config.Queue.Driver == "memory" {
		if err := a.Queue.Subscribe(a.Worker.Handle); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              a.Config.HTTP.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if a.Config.Sweeper.Enabled {
		if err := a.Sweeper.Start(a.Config.Sweeper.Schedule); err != nil {
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			a.Sweeper.Stop()
			return nil
		})
	}
	return g.Wait()
}

// Consume runs the delivery worker on the queue until ctx is done.
func (a *App) Consume(ctx context.Context) error {
	if err := a.Queue.Subscribe(a.Worker.Handle); err != nil {
		return err
	}
	a.Logger.Info("worker running, waiting for jobs", zap.String("queue", a.Config.Queue.Name))
	<-ctx.Done()
	return nil
}

// Close stops the queue first so no job runs against a closed store.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Queue.Close(), a.Store.Close(ctx))
}
