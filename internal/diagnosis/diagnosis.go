package diagnosis

import (
	"fmt"
	"os"

	"github.com/devusSs/kraken-selfbot/internal/config"
	"github.com/devusSs/kraken-selfbot/internal/database/postgres"
	"github.com/devusSs/kraken-selfbot/internal/logging"
	"github.com/devusSs/kraken-selfbot/internal/sniper"
	"github.com/devusSs/kraken-selfbot/internal/system"
)

// Average latency above which command replies will feel delayed.
const maxLatencyMS = 500

// Checks config, storage, network and the error log, printing every problem found.
//
// Returns the number of problems. A non-nil error means the diagnosis itself could not finish.
func RunDiagnosis(logPath, cfgPath string) (int, error) {
	errCount := 0

	printInfo("Running app in diagnostics mode...")

	printInfo("Loading config from file...")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		errCount++
		printError(fmt.Sprintf("Error loading config: %s", err.Error()))
	} else {
		printInfo("Checking config...")
		if err := cfg.CheckConfig(); err != nil {
			errCount++
			printError(fmt.Sprintf("Error checking config: %s", err.Error()))
		}

		errCount += checkStorage(cfg)

		if cfg.Database.Enabled {
			errCount += checkDatabase(cfg)
		}
	}

	// Check the OS for unsupported versions / platforms.
	printInfo("Determining OS platform and version...")

	if osV := system.DetermineOS(); osV == "unknown" {
		errCount++
		printError("Determined OS is unsupported")
	}

	// Check the network's connection to Discord.
	printInfo("Testing connection to Discord...")

	if err := system.TestConnection(); err != nil {
		errCount++
		printError(err.Error())
	} else {
		avg, err := system.AverageLatency(3)
		if err != nil {
			errCount++
			printError(fmt.Sprintf("Error measuring latency: %s", err.Error()))
		} else if avg > maxLatencyMS {
			errCount++
			printError(fmt.Sprintf("Average ping exceeds %d ms (%.0f ms). Command replies may be delayed", maxLatencyMS, avg))
		}
	}

	// Check the error.log file for information.
	printInfo("Checking error.log file for information...")

	foundErrsLogFile, err := logging.CheckErrorLogs(logPath)
	if err != nil {
		errCount++
		return errCount, err
	}
	if foundErrsLogFile != "" {
		errCount++
		printError(foundErrsLogFile)
	}

	return errCount, nil
}

func checkStorage(cfg *config.Config) int {
	errCount := 0

	printInfo("Checking stalk log directory...")
	if err := os.MkdirAll(cfg.Stalk.Directory, 0o755); err != nil {
		errCount++
		printError(fmt.Sprintf("Stalk directory %s is not usable: %s", cfg.Stalk.Directory, err.Error()))
	}

	if cfg.NitroSniper.Enabled {
		printInfo("Checking nitro sniper config...")
		store, err := sniper.Open(cfg.NitroSniper.ConfigPath)
		if err != nil {
			errCount++
			printError(fmt.Sprintf("Error opening sniper config: %s", err.Error()))
		} else if err := store.Close(); err != nil {
			errCount++
			printError(err.Error())
		}
	}

	return errCount
}

func checkDatabase(cfg *config.Config) int {
	printInfo("Connecting to Postgres database...")
	svc, err := postgres.New(cfg)
	if err != nil {
		printError(fmt.Sprintf("Error creating Postgres connection: %s", err.Error()))
		return 1
	}
	defer svc.Close()

	printInfo("Pinging database...")
	if err := svc.Ping(); err != nil {
		printError(fmt.Sprintf("Error pinging database: %s", err.Error()))
		return 1
	}

	return 0
}

func printInfo(message string) {
	fmt.Printf("[%s] %s\n", logging.InfoSign, message)
}

func printError(message string) {
	fmt.Printf("[%s] %s\n", logging.ErrorSign, message)
}
