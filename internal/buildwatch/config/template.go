package config

import (
	"os"
	"path/filepath"

	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
)

// DefaultYAML is the commented configuration template written by `init`.
// It must stay in sync with Default(); the config tests enforce that.
const DefaultYAML = `# buildwatch configuration
autoTrigger:
  enabled: true
  # Glob patterns relative to the project root. ** spans directories.
  watchPaths:
    - "src/**"
    - "src-tauri/src/**"
    - "src-tauri/Cargo.toml"
    - "package.json"
    - "index.html"
  # Matching any ignore pattern rejects a path even when watched.
  ignorePaths:
    - "**/node_modules/**"
    - "**/target/**"
    - "**/dist/**"
    - "**/.git/**"
    - ".buildwatch/**"
  fileExtensions: [".ts", ".tsx", ".js", ".jsx", ".rs", ".json", ".html", ".css"]
  # Minimum seconds between two triggered builds. Changes inside the
  # window are dropped, not queued.
  buildCooldown: 30
  buildTarget: desktop

buildTargets:
  web:
    command: "npm run build"
    description: "Build the web bundle"
    artifactsDir: "dist"
  desktop:
    command: "npm run tauri build"
    description: "Build the desktop release bundle"
    artifactsDir: "src-tauri/target/release"
  desktop-debug:
    command: "npm run tauri build -- --debug"
    description: "Build the desktop debug bundle"
    artifactsDir: "src-tauri/target/debug"

notifications:
  enabled: true
  showBuildComplete: true
  showBuildError: true
  # Optional extra channels:
  # discordWebhook: "https://discord.com/api/webhooks/..."
  # webhookUrl: "https://example.com/hooks/build"
  # email: {smtpHost: smtp.example.com, smtpPort: 587, username: "", password: "", from: "", to: ""}

github:
  autoCommit: false
  autoPush: false
  commitMessage: "chore: automated build {timestamp}"
`

// WriteDefault writes the default configuration template to path unless a
// file already exists there. It reports whether a new file was created.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, errors.Wrapf(err, "checking %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return false, errors.Wrapf(err, "creating directory for %s", path)
	}
	if err := os.WriteFile(path, []byte(DefaultYAML), 0600); err != nil {
		return false, errors.Wrapf(err, "writing %s", path)
	}
	return true, nil
}
