// Package download fetches WebDriver server binaries (chromedriver and
// geckodriver) into a local cache.
package download

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/blang/semver"
	"github.com/golang/glog"
	"github.com/google/go-github/v27/github"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

// Driver names.
const (
	ChromeDriver = "chromedriver"
	Geckodriver  = "geckodriver"
)

// MinGeckodriver is the oldest geckodriver that speaks W3C WebDriver well
// enough for the harness.
var MinGeckodriver = semver.MustParse("0.24.0")

// File describes a driver archive and the executable inside it.
type File struct {
	URL      string
	Name     string
	Version  string
	Hash     string
	HashType string // md5, sha1 or sha256 (default)
	// Binary is the executable's path relative to the extraction directory.
	Binary string
}

// Platform selects the release asset for an operating system and
// architecture.
type Platform struct {
	OS, Arch string
}

// Current returns the platform the harness runs on.
func Current() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

func (p Platform) exe(name string) string {
	if p.OS == "windows" {
		return name + ".exe"
	}
	return name
}

func (p Platform) chromeSuffix() string {
	switch p.OS {
	case "darwin":
		if p.Arch == "arm64" {
			return "mac_arm64"
		}
		return "mac64"
	case "windows":
		return "win32"
	}
	return "linux64"
}

func (p Platform) geckoSuffix() string {
	switch p.OS {
	case "darwin":
		if p.Arch == "arm64" {
			return "macos-aarch64"
		}
		return "macos"
	case "windows":
		if p.Arch == "386" {
			return "win32"
		}
		return "win64"
	}
	switch p.Arch {
	case "arm64":
		return "linux-aarch64"
	case "386":
		return "linux32"
	}
	return "linux64"
}

var newStorageClient = func(ctx context.Context) (*storage.Client, error) {
	return storage.NewClient(ctx, option.WithHTTPClient(http.DefaultClient))
}

// NewGitHubClient returns the client used to look up geckodriver releases.
var NewGitHubClient = func() *github.Client { return github.NewClient(nil) }

// ChromeDriverFile describes the chromedriver archive for version, or for the
// latest release when version is empty.
func ChromeDriverFile(ctx context.Context, version string, p Platform) (File, error) {
	const (
		bucket        = "chromedriver"
		latestRelease = "LATEST_RELEASE"
	)
	gcsPath := fmt.Sprintf("gs://%s/", bucket)
	client, err := newStorageClient(ctx)
	if err != nil {
		return File{}, fmt.Errorf("cannot create a storage client for downloading chromedriver: %v", err)
	}
	defer client.Close()

	bkt := client.Bucket(bucket)
	if version == "" {
		r, err := bkt.Object(latestRelease).NewReader(ctx)
		if err != nil {
			return File{}, fmt.Errorf("cannot create a reader for %s%s: %v", gcsPath, latestRelease, err)
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			return File{}, fmt.Errorf("cannot read from %s%s: %v", gcsPath, latestRelease, err)
		}
		version = strings.TrimSpace(string(data))
	}

	archive := fmt.Sprintf("chromedriver_%s.zip", p.chromeSuffix())
	object := version + "/" + archive
	attrs, err := bkt.Object(object).Attrs(ctx)
	if err != nil {
		return File{}, fmt.Errorf("cannot get the chromedriver package %s%s attrs: %v", gcsPath, object, err)
	}
	return File{
		URL:      attrs.MediaLink,
		Name:     archive,
		Version:  version,
		Hash:     hex.EncodeToString(attrs.MD5),
		HashType: "md5",
		Binary:   p.exe(ChromeDriver),
	}, nil
}

// GeckodriverFile describes the geckodriver archive for version, or for the
// latest release when version is empty. GitHub publishes no digests, so the
// file carries no hash.
func GeckodriverFile(ctx context.Context, client *github.Client, version string, p Platform) (File, error) {
	const owner, repo = "mozilla", "geckodriver"
	var (
		rel *github.RepositoryRelease
		err error
	)
	if version == "" {
		rel, _, err = client.Repositories.GetLatestRelease(ctx, owner, repo)
	} else {
		rel, _, err = client.Repositories.GetReleaseByTag(ctx, owner, repo, "v"+strings.TrimPrefix(version, "v"))
	}
	if err != nil {
		return File{}, fmt.Errorf("cannot find geckodriver release %q: %v", version, err)
	}

	v, err := semver.ParseTolerant(rel.GetTagName())
	if err != nil {
		return File{}, fmt.Errorf("geckodriver release tag %q: %v", rel.GetTagName(), err)
	}
	if v.LT(MinGeckodriver) {
		return File{}, fmt.Errorf("geckodriver %s is older than the minimum supported %s", v, MinGeckodriver)
	}

	assetRE := regexp.MustCompile(`^geckodriver-v[0-9.]+-` + regexp.QuoteMeta(p.geckoSuffix()) + `\.(tar\.gz|zip)$`)
	for _, a := range rel.Assets {
		if !assetRE.MatchString(a.GetName()) {
			continue
		}
		u := a.GetBrowserDownloadURL()
		if u == "" {
			return File{}, fmt.Errorf("%s does not have a download URL", a.GetName())
		}
		return File{
			URL:     u,
			Name:    a.GetName(),
			Version: v.String(),
			Binary:  p.exe(Geckodriver),
		}, nil
	}
	return File{}, fmt.Errorf("release %s for %s not found at https://github.com/%s/%s/releases", rel.GetTagName(), p.geckoSuffix(), owner, repo)
}

// Describe resolves the archive for the named driver.
func Describe(ctx context.Context, name, version string, p Platform) (File, error) {
	switch name {
	case ChromeDriver:
		return ChromeDriverFile(ctx, version, p)
	case Geckodriver:
		return GeckodriverFile(ctx, NewGitHubClient(), version, p)
	}
	return File{}, fmt.Errorf("no download source for driver %q", name)
}

// Driver returns the path to the named driver under cache, downloading it
// first if that version is not already there.
func Driver(ctx context.Context, name, version, cache string) (string, error) {
	f, err := Describe(ctx, name, version, Current())
	if err != nil {
		return "", err
	}
	return Fetch(ctx, f, filepath.Join(cache, name, f.Version))
}

// Fetch downloads f into dir unless an identical copy is present, extracts
// it, and returns the path of the executable.
func Fetch(ctx context.Context, f File, dir string) (string, error) {
	bin := filepath.Join(dir, f.Binary)
	if fi, err := os.Stat(bin); err == nil && !fi.IsDir() {
		glog.Infof("Using cached %s %s at %q", f.Binary, f.Version, bin)
		return bin, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	archive := filepath.Join(dir, f.Name)
	if f.Hash != "" && sameHash(archive, f.Hash, f.HashType) {
		glog.Infof("Skipping file %q which has already been downloaded.", f.Name)
	} else {
		glog.Infof("Downloading %q from %q", f.Name, f.URL)
		if err := fetchFile(ctx, f, archive); err != nil {
			return "", err
		}
	}
	if err := extract(ctx, archive, dir); err != nil {
		return "", err
	}
	if err := os.Chmod(bin, 0755); err != nil {
		return "", fmt.Errorf("%s: archive %q has no %q: %v", f.Name, archive, f.Binary, err)
	}
	return bin, nil
}

// All downloads the named drivers concurrently into cache and returns their
// paths keyed by name.
func All(ctx context.Context, names []string, version, cache string) (map[string]string, error) {
	paths := make([]string, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			p, err := Driver(ctx, name, version, cache)
			if err != nil {
				return fmt.Errorf("error handling %s: %v", name, err)
			}
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	m := make(map[string]string, len(names))
	for i, name := range names {
		m[name] = paths[i]
	}
	return m, nil
}

func newHash(hashType string) hash.Hash {
	switch strings.ToLower(hashType) {
	case "md5":
		return md5.New()
	case "sha1":
		return sha1.New()
	}
	return sha256.New()
}

func fetchFile(ctx context.Context, file File, dst string) (err error) {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating %q: %v", dst, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("error closing %q: %v", dst, closeErr)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: error downloading %q: %v", file.Name, file.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: error downloading %q: %s", file.Name, file.URL, resp.Status)
	}

	if file.Hash == "" {
		if _, err := io.Copy(f, resp.Body); err != nil {
			return fmt.Errorf("%s: error downloading %q: %v", file.Name, file.URL, err)
		}
		return nil
	}
	h := newHash(file.HashType)
	if _, err := io.Copy(io.MultiWriter(f, h), resp.Body); err != nil {
		return fmt.Errorf("%s: error downloading %q: %v", file.Name, file.URL, err)
	}
	if got := hex.EncodeToString(h.Sum(nil)); got != file.Hash {
		return fmt.Errorf("%s: got %s hash %q, want %q", file.Name, file.HashType, got, file.Hash)
	}
	return nil
}

func sameHash(path, want, hashType string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	h := newHash(hashType)
	if _, err := io.Copy(h, f); err != nil {
		return false
	}
	if sum := hex.EncodeToString(h.Sum(nil)); sum != want {
		glog.Warningf("File %q: got hash %q, expect hash %q", path, sum, want)
		return false
	}
	return true
}

var execCommand = exec.CommandContext

func extract(ctx context.Context, archive, dir string) error {
	var args []string
	switch {
	case strings.HasSuffix(archive, ".zip"):
		args = []string{"unzip", "-o", "-j", archive, "-d", dir}
	case strings.HasSuffix(archive, ".tar.gz"), strings.HasSuffix(archive, ".tgz"):
		args = []string{"tar", "-xzf", archive, "-C", dir}
	default:
		return nil
	}
	glog.Infof("Unzipping %q", archive)
	if out, err := execCommand(ctx, args[0], args[1:]...).CombinedOutput(); err != nil {
		return fmt.Errorf("error unzipping %q: %v: %s", archive, err, out)
	}
	return nil
}
