// SPDX-License-Identifier: MIT

// Package contract verifies that the repo's own configuration artifacts stay
// consistent with each other: tool pins agree across files, the container
// recipe keeps its layer-cache and port invariants, and the documented
// environment surface matches the settings code.
package contract

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const repoRoot = "../.."

func readRepoFile(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(repoRoot, name))
	require.NoError(t, err, "read %s", name)
	return string(data)
}

func TestGolangciConfigContract(t *testing.T) {
	var cfg struct {
		Linters struct {
			DisableAll bool     `yaml:"disable-all"`
			Enable     []string `yaml:"enable"`
		} `yaml:"linters"`
		LintersSettings struct {
			Lll struct {
				LineLength int `yaml:"line-length"`
			} `yaml:"lll"`
		} `yaml:"linters-settings"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(readRepoFile(t, ".golangci.yml")), &cfg))

	assert.True(t, cfg.Linters.DisableAll, "linter set must be explicit, not additive")
	assert.Equal(t, 100, cfg.LintersSettings.Lll.LineLength)

	want := []string{
		"bodyclose", "errcheck", "forbidigo", "gci", "gocritic", "gofumpt",
		"govet", "lll", "perfsprint", "staticcheck", "unused", "usestdlibvars",
	}
	got := append([]string(nil), cfg.Linters.Enable...)
	sort.Strings(got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("enabled linters mismatch (-want +got):\n%s", diff)
	}
}

func TestPreCommitHooksContract(t *testing.T) {
	var cfg struct {
		Repos []struct {
			Repo  string `yaml:"repo"`
			Rev   string `yaml:"rev"`
			Hooks []struct {
				ID string `yaml:"id"`
			} `yaml:"hooks"`
		} `yaml:"repos"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(readRepoFile(t, ".pre-commit-config.yaml")), &cfg))
	require.Len(t, cfg.Repos, 3)

	pinned := regexp.MustCompile(`^v?\d+\.\d+`)
	hookIDs := func(i int) []string {
		ids := make([]string, 0, len(cfg.Repos[i].Hooks))
		for _, h := range cfg.Repos[i].Hooks {
			ids = append(ids, h.ID)
		}
		return ids
	}

	for _, repo := range cfg.Repos {
		if repo.Repo == "local" {
			continue
		}
		assert.Regexp(t, pinned, repo.Rev, "repo %s must pin a release rev", repo.Repo)
	}

	assert.Contains(t, cfg.Repos[0].Repo, "pre-commit/pre-commit-hooks")
	assert.ElementsMatch(t, []string{
		"trailing-whitespace", "end-of-file-fixer", "check-yaml",
		"check-json", "check-toml", "check-merge-conflict",
	}, hookIDs(0))

	assert.Contains(t, cfg.Repos[1].Repo, "golangci/golangci-lint")
	assert.Equal(t, []string{"golangci-lint"}, hookIDs(1))
	assert.Equal(t, makefilePin(t, "GOLANGCI_LINT_VERSION"), cfg.Repos[1].Rev,
		"pre-commit golangci rev must match the Makefile pin")

	assert.Equal(t, "local", cfg.Repos[2].Repo)
	assert.Equal(t, []string{"gofumpt", "go-build", "go-mod-tidy"}, hookIDs(2))
}

func makefilePin(t *testing.T, name string) string {
	t.Helper()
	re := regexp.MustCompile(name + `\s*:=\s*(\S+)`)
	m := re.FindStringSubmatch(readRepoFile(t, "Makefile"))
	require.NotNil(t, m, "Makefile must pin %s", name)
	return m[1]
}

func TestDockerfileContract(t *testing.T) {
	dockerfile := readRepoFile(t, "Dockerfile")
	lines := strings.Split(dockerfile, "\n")

	var exposes []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "EXPOSE") {
			exposes = append(exposes, strings.TrimSpace(line))
		}
	}
	assert.Equal(t, []string{"EXPOSE 8000"}, exposes, "the API port is the only published port")

	assert.Contains(t, dockerfile, `CMD ["app", "serve"]`, "the image must launch the HTTP server")
	assert.Contains(t, dockerfile, `CMD ["app", "healthcheck"]`, "HEALTHCHECK must use the CLI probe")

	indexOf := func(prefix string) int {
		for i, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), prefix) {
				return i
			}
		}
		t.Fatalf("Dockerfile line starting %q not found", prefix)
		return -1
	}
	depsCopy := indexOf("COPY go.mod go.sum")
	modDownload := indexOf("RUN go mod download")
	srcCopy := indexOf("COPY . .")
	assert.Less(t, depsCopy, modDownload, "dependency manifest must be copied before download")
	assert.Less(t, modDownload, srcCopy, "dependencies must resolve before source is copied")

	goDirective := regexp.MustCompile(`(?m)^go (\S+)$`).FindStringSubmatch(readRepoFile(t, "go.mod"))
	require.NotNil(t, goDirective)
	builderGo := regexp.MustCompile(`FROM golang:(\S+?)-alpine`).FindStringSubmatch(dockerfile)
	require.NotNil(t, builderGo, "builder must use a pinned golang alpine base")
	assert.Equal(t, goDirective[1], builderGo[1], "builder Go version must match go.mod")

	lintStage := regexp.MustCompile(`FROM golangci/golangci-lint:(v[\d.]+)`).FindStringSubmatch(dockerfile)
	require.NotNil(t, lintStage, "verify stage must use a pinned golangci-lint image")
	assert.Equal(t, makefilePin(t, "GOLANGCI_LINT_VERSION"), lintStage[1],
		"Dockerfile golangci-lint pin must match the Makefile pin")

	// The verify stage is not on the runtime stage's dependency path, so the
	// Makefile must build it explicitly or it never runs.
	assert.Contains(t, readRepoFile(t, "Makefile"), "--target verify",
		"docker-build must run the lint-gate stage")
}

func TestEnvExampleCoversSettings(t *testing.T) {
	settingsSrc := readRepoFile(t, filepath.Join("internal", "config", "settings.go"))
	envRefs := regexp.MustCompile(`Parse\w+\("([A-Z0-9_]+)"`).FindAllStringSubmatch(settingsSrc, -1)
	require.NotEmpty(t, envRefs)

	example := readRepoFile(t, ".env.example")
	declared := make(map[string]bool)
	for _, line := range strings.Split(example, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, _, ok := strings.Cut(line, "=")
		require.True(t, ok, "malformed .env.example line: %q", line)
		declared[key] = true
	}

	for _, m := range envRefs {
		assert.True(t, declared[m[1]], ".env.example is missing %s", m[1])
	}
}
