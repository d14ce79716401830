// Package worker runs the background export pipeline: admin-requested
// and scheduled XLSX snapshots are queued, rendered and written to disk
// with exponential-backoff retries.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
)

const (
	TaskExportBookings = "export_bookings"
	TaskExportFees     = "export_fees"
)

// ExportTask describes one snapshot request.
type ExportTask struct {
	Type        string
	RequestedBy string
	CreatedAt   time.Time
}

type ExportWorker struct {
	store       domain.Store
	writer      domain.ExportWriter
	retryPolicy RetryPolicy
	queue       chan ExportTask
	exportPath  string
	interval    time.Duration
	logger      *zerolog.Logger
}

// NewExportWorker builds a worker with sane defaults. A zero interval
// disables the periodic snapshot; tasks can still be enqueued manually.
func NewExportWorker(store domain.Store, writer domain.ExportWriter, exportPath string, interval time.Duration, retry RetryPolicy, logger *zerolog.Logger) *ExportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if exportPath == "" {
		exportPath = "exports"
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &ExportWorker{
		store:       store,
		writer:      writer,
		retryPolicy: retry,
		queue:       make(chan ExportTask, models.WorkerQueueSize),
		exportPath:  exportPath,
		interval:    interval,
		logger:      logger,
	}
}

// Enqueue schedules a snapshot. It never blocks; a full queue rejects
// the task.
func (w *ExportWorker) Enqueue(task ExportTask) error {
	switch task.Type {
	case TaskExportBookings, TaskExportFees:
	default:
		return fmt.Errorf("unknown export task type: %s", task.Type)
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	select {
	case w.queue <- task:
		return nil
	default:
		return errors.New("export queue is full")
	}
}

// Start launches the main loop; stops when ctx is done.
func (w *ExportWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("export worker started")
	defer w.logger.Info().Msg("export worker stopped")

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.queue:
			w.processTask(ctx, task)
		case <-tick:
			w.processTask(ctx, ExportTask{Type: TaskExportBookings, RequestedBy: "scheduler", CreatedAt: time.Now()})
			w.processTask(ctx, ExportTask{Type: TaskExportFees, RequestedBy: "scheduler", CreatedAt: time.Now()})
		}
	}
}

func (w *ExportWorker) processTask(ctx context.Context, task ExportTask) {
	var lastErr error
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		path, err := w.runExport(ctx, task.Type)
		if err == nil {
			w.logger.Info().
				Str("task_type", task.Type).
				Str("requested_by", task.RequestedBy).
				Str("file_path", path).
				Msg("export completed")
			return
		}
		lastErr = err

		if attempt == w.retryPolicy.MaxRetries {
			break
		}
		delay := w.retryPolicy.NextDelay(attempt)
		w.logger.Warn().Err(err).
			Str("task_type", task.Type).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("export attempt failed")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	w.logger.Error().Err(lastErr).Str("task_type", task.Type).Msg("export failed permanently")
}

// runExport renders one snapshot and writes it under the export path.
func (w *ExportWorker) runExport(ctx context.Context, taskType string) (string, error) {
	var (
		data   []byte
		prefix string
		err    error
	)
	switch taskType {
	case TaskExportBookings:
		var bookings []*models.Booking
		bookings, err = w.store.ListBookings(ctx, "")
		if err == nil {
			data, err = w.writer.WriteBookings(bookings)
		}
		prefix = "bookings"
	case TaskExportFees:
		var fees []*models.MonthlyAdminFee
		fees, err = w.store.ListFees(ctx, "")
		if err == nil {
			data, err = w.writer.WriteFees(fees)
		}
		prefix = "fees"
	default:
		return "", fmt.Errorf("unknown export task type: %s", taskType)
	}
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.exportPath, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	fileName := fmt.Sprintf("%s_export_%s.xlsx", prefix, time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(w.exportPath, fileName)
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}
	return filePath, nil
}
