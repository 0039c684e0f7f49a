package updater

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/tidwall/gjson"
)

const (
	updateURL = "https://api.github.com/repos/devusSs/kraken-selfbot/releases/latest"
)

var (
	buildVersion = ""
	buildDate    = ""
	buildOS      = runtime.GOOS
	buildArch    = runtime.GOARCH
	goVersion    = runtime.Version()

	httpClient = &http.Client{Timeout: 15 * time.Second}
)

var ErrNoRelease = errors.New("no matching release found")

// Function to print build information without log.
func PrintBuildInformationRaw() {
	fmt.Printf("Build version: \t\t%s\n", buildVersion)
	fmt.Printf("Build date: \t\t%s\n", buildDate)
	fmt.Printf("Build OS: \t\t%s\n", buildOS)
	fmt.Printf("Build arch: \t\t%s\n", buildArch)
	fmt.Printf("Go version: \t\t%s\n", goVersion)
}

type asset struct {
	name string
	url  string
}

type release struct {
	tag    string
	body   string
	assets []asset
}

func parseRelease(data []byte) (release, error) {
	if !gjson.ValidBytes(data) {
		return release{}, errors.New("invalid release json")
	}

	res := gjson.ParseBytes(data)
	if msg := res.Get("message"); msg.Exists() && !res.Get("tag_name").Exists() {
		return release{}, fmt.Errorf("github: %s", msg.String())
	}

	rel := release{
		tag:  res.Get("tag_name").String(),
		body: res.Get("body").String(),
	}
	res.Get("assets").ForEach(func(_, a gjson.Result) bool {
		rel.assets = append(rel.assets, asset{
			name: a.Get("name").String(),
			url:  a.Get("browser_download_url").String(),
		})
		return true
	})

	return rel, nil
}

// Fix versions / architecture to match Github release asset names.
func releaseArch(arch string) string {
	switch arch {
	case "amd64":
		return "x86_64"
	case "386":
		return "i386"
	}
	return arch
}

// Find matching asset for our OS & architecture and format the changelog.
func (r release) match(goos, arch string) (string, string, error) {
	arch = releaseArch(arch)

	for _, a := range r.assets {
		name := strings.ToLower(a.name)
		if strings.Contains(name, arch) && strings.Contains(name, goos) {
			changeSplit := strings.Split(strings.ReplaceAll(strings.TrimSpace(r.body), "## Changelog", ""), "\n")
			for i, line := range changeSplit {
				changeSplit[i] = strings.ReplaceAll(fmt.Sprintf("\t\t\t%s", line), "*", "-")
			}
			return a.url, strings.Join(changeSplit, "\n"), nil
		}
	}

	return "", "", ErrNoRelease
}

// Queries the latest release from Github repo.
//
// Returns download url, version tag and changelog.
func FindLatestReleaseURL() (string, string, string, error) {
	resp, err := httpClient.Get(updateURL)
	if err != nil {
		return "", "", "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", "", "", err
	}

	rel, err := parseRelease(data)
	if err != nil {
		return "", "", "", err
	}

	url, changelog, err := rel.match(buildOS, buildArch)
	if err != nil {
		return "", "", "", err
	}

	return url, rel.tag, changelog, nil
}

// Compare current version with latest version. Development builds without a version never update.
func NewerVersionAvailable(newVersion string) (bool, error) {
	if buildVersion == "" {
		return false, nil
	}
	return newerVersion(buildVersion, newVersion)
}

func newerVersion(current, latest string) (bool, error) {
	vOld, err := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return false, err
	}

	vNew, err := semver.NewVersion(strings.TrimPrefix(latest, "v"))
	if err != nil {
		return false, err
	}

	return vNew.GreaterThan(vOld), nil
}

// Perform the actual patch.
func DoUpdate(url string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	if err := selfupdate.UpdateTo(url, exe); err != nil {
		return err
	}

	return nil
}

// Returns the new version tag if one is available, else an empty string.
func PeriodicUpdateCheck() (string, error) {
	_, versionCheck, _, err := FindLatestReleaseURL()
	if err != nil {
		return "", err
	}

	newVersionAvailable, err := NewerVersionAvailable(versionCheck)
	if err != nil {
		return "", err
	}

	if newVersionAvailable {
		return versionCheck, nil
	}

	return "", nil
}
