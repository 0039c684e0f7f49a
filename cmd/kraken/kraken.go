package main

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/devusSs/kraken-selfbot/internal/bot"
	"github.com/devusSs/kraken-selfbot/internal/config"
	"github.com/devusSs/kraken-selfbot/internal/database"
	"github.com/devusSs/kraken-selfbot/internal/database/postgres"
	"github.com/devusSs/kraken-selfbot/internal/diagnosis"
	"github.com/devusSs/kraken-selfbot/internal/logging"
	"github.com/devusSs/kraken-selfbot/internal/notifier"
	"github.com/devusSs/kraken-selfbot/internal/sniper"
	"github.com/devusSs/kraken-selfbot/internal/stalk"
	"github.com/devusSs/kraken-selfbot/internal/system"
	"github.com/devusSs/kraken-selfbot/internal/updater"
)

/*
Usually the default flags will work fine.
Check the README or documentation for any configuration questions.
*/
type Options struct {
	ConfigPath string `short:"c" long:"config" default:"./files/config.yaml" description:"sets config path"`
	LogPath    string `short:"l" long:"logs" default:"./logs" description:"sets the logging path"`
	// Diagnosis mode is designed for the app to parse it's own log files.
	Diagnosis   bool `short:"d" long:"diagnosis" description:"runs the app in diagnosis mode"`
	Version     bool `short:"v" long:"version" description:"prints the build information of the app"`
	SkipUpdates bool `long:"skip-updates" description:"skips update checks on startup and periodically"`
}

func main() {
	os.Exit(run())
}

func run() (code int) {
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logging.WritePanic("main", r, debug.Stack())
			code = 1
		}
	}()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		return 1
	}

	// Print the version / build information if user wants to, exits after.
	if opts.Version {
		updater.PrintBuildInformationRaw()
		return 0
	}

	system.InitClearScreen()

	if !opts.SkipUpdates {
		if updated := checkForUpdates(); updated {
			return 0
		}
	} else {
		log.Printf("[%s] Skipping updates...\n", logging.InfoSign)
	}

	system.CallClear()

	if err := logging.CreateLogsDirectory(opts.LogPath); err != nil {
		log.Printf("[%s] Error creating logs directory: %s", logging.ErrorSign, err.Error())
		return 1
	}

	if err := logging.CreateFileLoggers(); err != nil {
		log.Printf("[%s] Error creating log files: %s", logging.ErrorSign, err.Error())
		return 1
	}
	defer func() {
		// DO NOT USE CONSOLE OR FILE LOGGERS AFTER THIS POINT
		if err := logging.CloseLogFiles(); err != nil {
			log.Printf("[%s] Error closing logs: %s", logging.ErrorSign, err.Error())
			return
		}
		log.Printf("[%s] Successfully closed log files and loggers\n", logging.SuccessSign)
		log.Printf("[%s] App ran for %.2f second(s)", logging.InfoSign, time.Since(startTime).Seconds())
	}()

	logging.CreateConsoleLoggers()

	// ! It's safe to use the logging.WriteX methods from here.

	// Run diagnosis if user wishes to.
	if opts.Diagnosis {
		errCount, err := diagnosis.RunDiagnosis(opts.LogPath, opts.ConfigPath)
		if err != nil {
			logging.WriteError(fmt.Sprintf("Error running diagnosis: %s", err.Error()))
			return 1
		}
		fmt.Printf("\n[%s] Total errors found: %d\n", logging.SuccessSign, errCount)
		return 0
	}

	// Test DNS resolution so we know if we are connected to a network.
	if err := system.TestConnection(); err != nil {
		logging.WriteError(err)
		return 1
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		logging.WriteError(err)
		return 1
	}

	logging.WriteSuccess("Successfully loaded config")

	if err := cfg.CheckConfig(); err != nil {
		logging.WriteError(err)
		return 1
	}

	logging.SetDebug(cfg.DebugMode.Enabled)

	logging.WriteSuccess("Successfully checked config")

	svc, err := openDatabase(cfg)
	if err != nil {
		logging.WriteError(err)
		return 1
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logging.WriteError(fmt.Sprintf("Error closing database connection: %s", err.Error()))
			return
		}
		logging.WriteSuccess("Successfully closed database connection")
	}()

	stalkStore, err := stalk.New(cfg.Stalk.Directory)
	if err != nil {
		logging.WriteError(err)
		return 1
	}

	relationshipLog, err := logging.CreateNewLogFile("relationships")
	if err != nil {
		logging.WriteError(err)
		return 1
	}

	notif := notifier.New(notifier.Options{
		Enabled:    cfg.RelationshipLogs.Enabled,
		WebhookURL: cfg.RelationshipLogs.WebhookURL,
		File:       relationshipLog,
		Audit:      svc,
	})
	defer notif.Close()

	var snipe *sniper.Sniper
	if cfg.NitroSniper.Enabled {
		// A fresh state file starts out enabled, an existing one keeps its toggle.
		defaults := sniper.DefaultConfig()
		defaults.Enabled = cfg.NitroSniper.Enabled
		store, err := sniper.Open(cfg.NitroSniper.ConfigPath, sniper.WithDefaults(defaults))
		if err != nil {
			logging.WriteError(err)
			return 1
		}
		defer func() {
			if err := store.Close(); err != nil {
				logging.WriteError(err)
			}
		}()
		snipe = sniper.New(store)
		logging.WriteSuccess(fmt.Sprintf("Loaded nitro sniper config from %s", store.Path()))
	}

	selfBot, err := bot.New(cfg, bot.Options{
		ConfigPath: opts.ConfigPath,
		Service:    svc,
		Notifier:   notif,
		Sniper:     snipe,
		Stalk:      stalkStore,
	})
	if err != nil {
		logging.WriteError(err)
		return 1
	}

	selfBot.LoadCommands()

	// Setup needed functions to handle Discord events.
	selfBot.SetupHandleFuncs()

	if err := selfBot.Connect(); err != nil {
		logging.WriteError(fmt.Sprintf("Error connecting to Discord: %s", err.Error()))
		return 1
	}

	logging.WriteSuccess("Successfully connected to Discord")

	// Warn about new versions while running, the update itself happens on the next start.
	var updateTicker *time.Ticker
	if !opts.SkipUpdates {
		updateTicker = time.NewTicker(24 * time.Hour)
		go func() {
			for range updateTicker.C {
				newVersion, err := updater.PeriodicUpdateCheck()
				if err != nil {
					logging.WriteWarn(fmt.Sprintf("Error on periodic update check: %s", err.Error()))
					continue
				}
				if newVersion != "" {
					logging.WriteWarn(fmt.Sprintf("New version available (%s). Please restart your app soon", newVersion))
				}
			}
		}()
		logging.WriteSuccess("Set up periodic update check (24 hours)")
	}

	logging.WriteInfo(fmt.Sprintf("Initiating app took %.2f second(s)", time.Since(startTime).Seconds()))

	logging.WriteInfo("Press CTRL+C to shutdown the app")

	// Wait for a shutdown signal for app exit.
	sig := selfBot.AwaitCancel()

	logging.WriteInfo(fmt.Sprintf("Received %s, shutting down...", sig))

	// !APP EXIT

	if updateTicker != nil {
		updateTicker.Stop()
	}

	if err := selfBot.Disconnect(); err != nil {
		logging.WriteError(err)
	} else {
		logging.WriteSuccess("Successfully disconnected from Discord")
	}

	return 0
}

// Returns true if the app updated itself and needs a restart. Update errors are never fatal.
func checkForUpdates() bool {
	log.Printf("[%s] Checking for updates...\n", logging.InfoSign)

	updateURL, newVersion, updateChangelog, err := updater.FindLatestReleaseURL()
	if err != nil {
		log.Printf("[%s] Error checking for updates: %s", logging.WarnSign, err.Error())
		return false
	}

	newVersionAvailable, err := updater.NewerVersionAvailable(newVersion)
	if err != nil {
		log.Printf("[%s] Error checking for updates: %s", logging.WarnSign, err.Error())
		return false
	}

	if !newVersionAvailable {
		log.Printf("[%s] App is up to date\n", logging.SuccessSign)
		return false
	}

	log.Printf("[%s] New version available, performing update now...\n", logging.WarnSign)

	if err := updater.DoUpdate(updateURL); err != nil {
		log.Printf("[%s] Error performing update: %s", logging.WarnSign, err.Error())
		return false
	}

	log.Printf("[%s] Update changelog (%s): %s\n", logging.InfoSign, newVersion, updateChangelog)
	log.Printf("[%s] Update successful, please restart the app\n", logging.SuccessSign)

	return true
}

// Connects the audit store if enabled, else every audit write is discarded.
func openDatabase(cfg *config.Config) (database.Service, error) {
	if !cfg.Database.Enabled {
		return database.Discard{}, nil
	}

	svc, err := postgres.New(cfg)
	if err != nil {
		return nil, err
	}

	if err := svc.Ping(); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logging.WriteSuccess("Successfully connected to Postgres database")

	if err := svc.Migrate(); err != nil {
		_ = svc.Close()
		return nil, err
	}

	logging.WriteSuccess("Successfully migrated database tables")

	return svc, nil
}
