package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/config"
	"github.com/aravindh-murugesan/waitsentry-go/internal/metrics"
	"github.com/go-co-op/gocron-ui/server"
	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// RunDaemon schedules every configured job and serves the scheduler
// dashboard and the Prometheus endpoint until ctx is done.
func RunDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	dlog := logger.With("component", "daemon")

	if len(cfg.Jobs) == 0 {
		return errors.New("no jobs configured")
	}

	m := metrics.New()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	for _, job := range cfg.Jobs {
		if err := scheduleSnapshotJob(ctx, s, cfg, logger, m, job); err != nil {
			_ = s.Shutdown()
			return err
		}
	}

	s.Start()
	dlog.Info("Scheduler started", "cloud", cfg.Cloud, "jobs", len(cfg.Jobs))

	uiPort, err := portOf(cfg.Daemon.BindAddress)
	if err != nil {
		_ = s.Shutdown()
		return err
	}
	ui := server.NewServer(s, uiPort, server.WithTitle("Waitsentry - Dashboard"))
	uiServer := &http.Server{Addr: cfg.Daemon.BindAddress, Handler: ui.Router}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: cfg.Daemon.MetricsAddress, Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dlog.Info("Scheduler UI started", "address", cfg.Daemon.BindAddress)
		return serve(uiServer)
	})
	g.Go(func() error {
		dlog.Info("Metrics endpoint started", "address", cfg.Daemon.MetricsAddress)
		return serve(metricsServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		dlog.Warn("Shutting down scheduler...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()

		return errors.Join(
			uiServer.Shutdown(shutdownCtx),
			metricsServer.Shutdown(shutdownCtx),
			s.Shutdown(),
		)
	})

	return g.Wait()
}

func scheduleSnapshotJob(ctx context.Context, s gocron.Scheduler, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, job config.Job) error {
	var scheduled gocron.Job

	scheduled, err := s.NewJob(
		gocron.CronJob(job.Schedule, false),
		gocron.NewTask(func() {
			sess, err := NewSession(cfg, logger, "scheduled-snapshot", m)
			if err != nil {
				logger.Error("Job session setup failed", "job_name", job.Name, "error", err)
				return
			}
			sess.Logger = sess.Logger.With("job_name", job.Name)

			_ = RunCreateSnapshot(ctx, sess, SnapshotRequest{
				VolumeID:         job.VolumeID,
				Name:             snapshotName(job, time.Now().UTC()),
				WaitFor:          job.WaitFor,
				CleanupOnFailure: job.CleanupOnFailure,
			})

			// Log the next run (post-execution)
			if scheduled != nil {
				if nextRun, err := scheduled.NextRun(); err == nil {
					sess.Logger.Info("Snapshot job completed",
						"next_run", nextRun.Format(time.RFC3339),
						"job_id", scheduled.ID())
				}
			}
		}),
		gocron.WithName(job.Name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", job.Name, err)
	}

	if nextRun, err := scheduled.NextRun(); err == nil {
		logger.Info("Job Scheduled",
			"job_name", scheduled.Name(),
			"job_id", scheduled.ID(),
			"schedule", job.Schedule,
			"next_run", nextRun.Format(time.RFC3339))
	}
	return nil
}

// snapshotName is the configured name or, when empty, one derived from the
// job name and the trigger time.
func snapshotName(job config.Job, now time.Time) string {
	if job.SnapshotName != "" {
		return job.SnapshotName
	}
	return fmt.Sprintf("%s-%s", job.Name, now.Format("20060102T150405Z"))
}

func portOf(address string) (int, error) {
	_, port, err := net.SplitHostPort(address)
	if err != nil {
		return 0, fmt.Errorf("invalid bind address %q: %w", address, err)
	}
	return strconv.Atoi(port)
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server on %s failed: %w", srv.Addr, err)
	}
	return nil
}
