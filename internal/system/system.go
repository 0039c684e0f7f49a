// Package to collect (NOT be send anywhere) OS & network information.
package system

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// Host checked for DNS resolution and latency.
const (
	discordHost = "discord.com"
	gatewayURL  = "https://discord.com/api/v10/gateway"
)

var (
	// Clear screen function for Windows, Linux and MacOS.
	//
	// Needs to be initiated first!
	clear map[string]func()
)

// Detects the OS of the runtime => determined by compile option GOOS?
func DetermineOS() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "linux":
		return "linux"
	case "darwin":
		return "darwin"
	default:
		return "unknown"
	}
}

// Detects if there is a working DNS resolver on the host or the network.
//
// This might not represend a working internet connection, usually a good hint however.
func TestConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := net.DefaultResolver.LookupHost(ctx, discordHost); err != nil {
		return fmt.Errorf("resolving %s: %w", discordHost, err)
	}
	return nil
}

// Measures the average round trip to the Discord API over n requests in milliseconds.
func AverageLatency(n int) (float64, error) {
	return averageLatency(&http.Client{Timeout: 5 * time.Second}, gatewayURL, n)
}

func averageLatency(client *http.Client, url string, n int) (float64, error) {
	if n <= 0 {
		return 0, errors.New("need at least one request")
	}

	var total time.Duration
	for i := 0; i < n; i++ {
		start := time.Now()
		resp, err := client.Get(url)
		if err != nil {
			return 0, err
		}
		resp.Body.Close()
		total += time.Since(start)
	}

	return float64(total.Milliseconds()) / float64(n), nil
}

// Init function which clears the screen.
func InitClearScreen() {
	clear = make(map[string]func())

	unix := func() {
		cmd := exec.Command("clear")
		cmd.Stdout = os.Stdout
		_ = cmd.Run()
	}

	clear["linux"] = unix
	clear["darwin"] = unix
	clear["windows"] = func() {
		cmd := exec.Command("cmd", "/c", "cls")
		cmd.Stdout = os.Stdout
		_ = cmd.Run()
	}
}

// Actual screen clearing function. Does nothing on unsupported platforms.
func CallClear() {
	if value, ok := clear[runtime.GOOS]; ok {
		value()
	}
}
