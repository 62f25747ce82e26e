// Package config provides the buildwatch configuration model: the watch and
// debounce rules, the build target table, and the notification and version
// control toggles loaded from .buildwatch/config.yaml.
package config

import (
	"path/filepath"
	"time"
)

const (
	// DefaultPath is the project-relative location of the config file.
	DefaultPath = ".buildwatch/config.yaml"

	// stateDirName holds runtime watcher state below the project root.
	stateDirName = ".buildwatch/watcher"
)

// Target is a named build command the dispatcher can execute.
type Target struct {
	Command     string `yaml:"command"`
	Description string `yaml:"description"`
	// ArtifactsDir is scanned for build outputs after a successful run.
	// Empty means the conventional desktop release directory.
	ArtifactsDir string `yaml:"artifactsDir,omitempty"`
}

// AutoTrigger groups the file watch and debounce settings.
type AutoTrigger struct {
	Enabled        bool     `yaml:"enabled"`
	WatchPaths     []string `yaml:"watchPaths"`
	IgnorePaths    []string `yaml:"ignorePaths"`
	FileExtensions []string `yaml:"fileExtensions"`
	BuildCooldown  int      `yaml:"buildCooldown"` // seconds between accepted triggers
	BuildTarget    string   `yaml:"buildTarget"`
}

// Email holds optional SMTP notification settings.
type Email struct {
	SMTPHost string `yaml:"smtpHost"`
	SMTPPort int    `yaml:"smtpPort"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// Notifications controls how build completion and failure are reported.
type Notifications struct {
	Enabled           bool   `yaml:"enabled"`
	ShowBuildComplete bool   `yaml:"showBuildComplete"`
	ShowBuildError    bool   `yaml:"showBuildError"`
	DiscordWebhook    string `yaml:"discordWebhook,omitempty"`
	WebhookURL        string `yaml:"webhookUrl,omitempty"`
	Email             *Email `yaml:"email,omitempty"`
}

// GitHub controls the post-build version control actions.
type GitHub struct {
	AutoCommit    bool   `yaml:"autoCommit"`
	AutoPush      bool   `yaml:"autoPush"`
	CommitMessage string `yaml:"commitMessage"`
}

// Config is the root configuration document.
type Config struct {
	AutoTrigger   AutoTrigger       `yaml:"autoTrigger"`
	BuildTargets  map[string]Target `yaml:"buildTargets"`
	Notifications Notifications     `yaml:"notifications"`
	GitHub        GitHub            `yaml:"github"`
}

// Cooldown returns the build cooldown as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.AutoTrigger.BuildCooldown) * time.Second
}

// ResolveTarget looks up a named build target.
func (c *Config) ResolveTarget(name string) (Target, bool) {
	t, ok := c.BuildTargets[name]
	return t, ok
}

// State describes the runtime file locations for a project root.
type State struct {
	Dir          string
	PIDFile      string
	LogFile      string
	DatabaseFile string
	SocketFile   string
}

// StateFiles returns the watcher state file paths under root.
func StateFiles(root string) State {
	dir := filepath.Join(root, filepath.FromSlash(stateDirName))
	return State{
		Dir:          dir,
		PIDFile:      filepath.Join(dir, "watcher.pid"),
		LogFile:      filepath.Join(dir, "watcher.log"),
		DatabaseFile: filepath.Join(dir, "watcher.db"),
		SocketFile:   filepath.Join(dir, "watcher.sock"),
	}
}

// Default returns the configuration written by `buildwatch init`.
func Default() *Config {
	return &Config{
		AutoTrigger: AutoTrigger{
			Enabled: true,
			WatchPaths: []string{
				"src/**",
				"src-tauri/src/**",
				"src-tauri/Cargo.toml",
				"package.json",
				"index.html",
			},
			IgnorePaths: []string{
				"**/node_modules/**",
				"**/target/**",
				"**/dist/**",
				"**/.git/**",
				".buildwatch/**",
			},
			FileExtensions: []string{".ts", ".tsx", ".js", ".jsx", ".rs", ".json", ".html", ".css"},
			BuildCooldown:  30,
			BuildTarget:    "desktop",
		},
		BuildTargets: map[string]Target{
			"web": {
				Command:      "npm run build",
				Description:  "Build the web bundle",
				ArtifactsDir: "dist",
			},
			"desktop": {
				Command:      "npm run tauri build",
				Description:  "Build the desktop release bundle",
				ArtifactsDir: "src-tauri/target/release",
			},
			"desktop-debug": {
				Command:      "npm run tauri build -- --debug",
				Description:  "Build the desktop debug bundle",
				ArtifactsDir: "src-tauri/target/debug",
			},
		},
		Notifications: Notifications{
			Enabled:           true,
			ShowBuildComplete: true,
			ShowBuildError:    true,
		},
		GitHub: GitHub{
			AutoCommit:    false,
			AutoPush:      false,
			CommitMessage: "chore: automated build {timestamp}",
		},
	}
}
