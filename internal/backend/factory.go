package backend

import (
	"context"
	"errors"
	"fmt"

	"mayfinance/internal/amqp"
	"mayfinance/internal/ledger"
	"mayfinance/internal/ledger/memory"
	"mayfinance/internal/ledger/sqlite"
	applog "mayfinance/internal/log"
	"mayfinance/internal/ocr"
	gsheet "mayfinance/internal/sheets/google"
)

// DefaultFactory wires the ledger storage and the optional integrations.
// Only the storage is required: a failing OCR engine, broker or spreadsheet
// is logged and left out.
type DefaultFactory struct {
	logger *applog.Logger

	detectOCR  func(ocr.Config) (ocr.Engine, error)
	dialAMQP   func(url, exchange, queue string) (*amqp.Client, error)
	openSheets func(ctx context.Context, cfg gsheet.Config) (*gsheet.Exporter, error)
}

func NewFactory(logger *applog.Logger) *DefaultFactory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger:     logger.WithComponent(applog.ComponentBackend),
		detectOCR:  ocr.Detect,
		dialAMQP:   amqp.NewClient,
		openSheets: gsheet.New,
	}
}

var _ Factory = (*DefaultFactory)(nil)

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res      *Result
		cleanups []CleanupFunc
		err      error
	)
	switch config.Type {
	case MemoryBackend:
		res = f.createMemoryBackend()
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(ctx, config)
		if err != nil {
			return nil, err
		}
		cleanups = append(cleanups, res.Cleanup)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	res.Info.Backend = config.Type

	engine, err := f.detectOCR(config.OCR)
	switch {
	case err != nil:
		f.logger.Warn("Text recognition unavailable, scans will only preview", applog.FieldError, err)
	case engine == nil:
		f.logger.Info("Text recognition disabled")
	default:
		res.Deps.Engine = engine
		res.Info.OCREngine = engine.Name()
		f.logger.Info("Text recognition enabled", applog.FieldEngine, engine.Name())
	}

	if config.AMQPURL != "" {
		client, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPRoutingKey)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", applog.FieldError, err)
		} else {
			res.Deps.Publisher = client
			res.Info.EventsEnabled = true
			cleanups = append(cleanups, client.Close)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"routing_key", config.AMQPRoutingKey)
		}
	}

	if config.Sheets.Enabled() {
		exporter, err := f.openSheets(ctx, config.Sheets)
		if err != nil {
			f.logger.Warn("Failed to initialize Google Sheets export", applog.FieldError, err)
		} else {
			res.Deps.Sheets = exporter
			res.Info.SheetsEnabled = true
			f.logger.Info("Initialized Google Sheets export", "spreadsheet_id", config.Sheets.SpreadsheetID)
		}
	}

	res.Cleanup = joinCleanups(cleanups)
	return res, nil
}

func (f *DefaultFactory) createMemoryBackend() *Result {
	f.logger.Info("Initialized memory backend")
	return &Result{
		Stores: func(ctx context.Context, sessionID string) (ledger.Store, error) {
			return memory.New(), nil
		},
		Ping: func(context.Context) error { return nil },
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*Result, error) {
	repo, err := sqlite.Open(ctx, config.SQLiteDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "dsn", config.SQLiteDSN)

	return &Result{
		Stores: func(ctx context.Context, sessionID string) (ledger.Store, error) {
			store, err := repo.ForSession(ctx, sessionID)
			if err != nil {
				return nil, err
			}
			return store, nil
		},
		Ping:    repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

// joinCleanups runs fns in reverse order and reports every failure.
func joinCleanups(fns []CleanupFunc) CleanupFunc {
	return func() error {
		var errs []error
		for i := len(fns) - 1; i >= 0; i-- {
			if fns[i] == nil {
				continue
			}
			if err := fns[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
