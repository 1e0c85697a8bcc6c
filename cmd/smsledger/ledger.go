package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/viper"

	"smsledger/internal/database"
	"smsledger/internal/logger"
	"smsledger/internal/services"
	"smsledger/internal/smsparser"
	"smsledger/internal/store"
)

// ledger bundles the services a command needs.
type ledger struct {
	sms          services.SMSServicer
	transactions services.TransactionServicer
	deviceID     string
	close        func()
}

func location() (*time.Location, error) {
	loc, err := time.LoadLocation(viper.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	return loc, nil
}

// openLedger opens the SQLite ledger named by --db, or an empty in-memory
// ledger when no path is set.
func openLedger() (*ledger, error) {
	loc, err := location()
	if err != nil {
		return nil, err
	}

	var st store.Store = store.NewMemoryStore()
	closeFn := func() {}

	if path := viper.GetString("db"); path != "" {
		mgr, err := database.NewManager(&database.Config{Driver: database.DriverSQLite, SQLitePath: path})
		if err != nil {
			return nil, err
		}
		if err := mgr.RunMigrations(); err != nil {
			_ = mgr.Close()
			return nil, err
		}
		st = store.NewGormStore(mgr.DB())
		closeFn = func() {
			if err := mgr.Close(); err != nil {
				logger.Get().Warnf("database close error: %v", err)
			}
		}
	}

	parser := smsparser.New(smsparser.WithLocation(loc))
	return &ledger{
		sms:          services.NewSMSService(parser, st),
		transactions: services.NewTransactionService(st, loc),
		deviceID:     viper.GetString("device"),
		close:        closeFn,
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
