package backend

import (
	"errors"
	"fmt"

	"mayfinance/internal/config"
	"mayfinance/internal/ocr"
	gsheet "mayfinance/internal/sheets/google"
)

type Config struct {
	Type      BackendType
	SQLiteDSN string

	OCR ocr.Config

	// AMQP is optional; an empty URL turns events off.
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	Sheets gsheet.Config
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.LedgerBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.LedgerBackend)
	}

	return Config{
		Type:      backendType,
		SQLiteDSN: appConfig.SQLiteDSN,
		OCR: ocr.Config{
			Mode:           appConfig.OCREngine,
			TesseractPath:  appConfig.TesseractPath,
			TesseractLangs: appConfig.TesseractLangs,
			URL:            appConfig.OCRURL,
			APIKey:         appConfig.OCRAPIKey,
			Model:          appConfig.OCRModel,
			Timeout:        appConfig.OCRTimeout,
		},
		AMQPURL:        appConfig.AMQPURL,
		AMQPExchange:   appConfig.AMQPExchange,
		AMQPRoutingKey: appConfig.AMQPRoutingKey,
		Sheets: gsheet.Config{
			SpreadsheetID:      appConfig.GoogleSpreadsheetID,
			SheetName:          appConfig.GoogleSheetName,
			ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
			ServiceAccountFile: appConfig.GoogleServiceAccountFile,
		},
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDSN == "" {
		return errors.New("SQLite DSN is required for sqlite backend")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPRoutingKey == "") {
		return errors.New("AMQP exchange and routing key are required when AMQP URL is set")
	}
	return nil
}

func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend}
}
