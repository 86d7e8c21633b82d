package command

// root.go defines the root command for the sherry CLI and the shared
// environment (config, local state, gateway, tracker) every subcommand uses.

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YumikoKawaii/sherry-archive/internal/config"
	"github.com/YumikoKawaii/sherry-archive/internal/gateway"
	"github.com/YumikoKawaii/sherry-archive/internal/identity"
	"github.com/YumikoKawaii/sherry-archive/internal/localstate"
	"github.com/YumikoKawaii/sherry-archive/internal/tracking"
)

var (
	apiURL    string // global flag: archive server URL
	statePath string // global flag: state database path
	noTrack   bool   // global flag: telemetry opt-out
)

var rootCmd = &cobra.Command{
	Use:   "sherry",
	Short: "sherry - terminal reading client for a sherry-archive server",
	Long: `sherry is a reading client for the sherry-archive manga platform.
It lets you:
- Browse and search the archive
- Read chapters with keyboard navigation
- Post and manage comments
- Keep bookmarks and a local reading history

Use "sherry [command] --help" for details on each command.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	err := rootCmd.Execute()
	closeEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "archive server URL (overrides SHERRY_API_URL)")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "state database path (overrides SHERRY_STATE_PATH)")
	rootCmd.PersistentFlags().BoolVar(&noTrack, "no-tracking", false, "disable engagement event reporting")
}

// Env bundles the collaborators shared by all commands.
type Env struct {
	Config  *config.Config
	Store   *localstate.Store
	Gateway *gateway.Client
	Tracker *tracking.Tracker
}

var env *Env

// getEnv builds the shared environment on first use: configuration, the
// local state database (device id, saved token, history), the API client
// and the event tracker.
func getEnv() (*Env, error) {
	if env != nil {
		return env, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if statePath != "" {
		cfg.StatePath = statePath
	}
	if noTrack {
		cfg.TrackingDisabled = true
	}

	store, err := localstate.Open(cfg.StatePath)
	if err != nil {
		return nil, err
	}
	deviceID, err := store.DeviceID()
	if err != nil {
		store.Close()
		return nil, err
	}

	gw := gateway.NewClient(cfg.APIURL, cfg.HTTPTimeout)
	token, err := store.AccessToken()
	if err == nil && token != "" && !identity.Expired(token) {
		gw.SetToken(token)
	}

	tracker := tracking.New(cfg.APIURL, deviceID, gw.Token)
	if cfg.TrackingDisabled {
		tracker.Disable()
	}

	env = &Env{Config: cfg, Store: store, Gateway: gw, Tracker: tracker}
	return env, nil
}

func closeEnv() {
	if env == nil {
		return
	}
	env.Tracker.Close()
	env.Store.Close()
	env = nil
}

// requireAuth fails fast with a friendly message instead of letting every
// protected call bounce with a 401.
func requireAuth(e *Env) error {
	if e.Gateway.Token() == "" {
		return errors.New("not logged in: run \"sherry auth login\" first")
	}
	return nil
}

// currentUserID reads the user id out of the stored token, or "".
func currentUserID(e *Env) string {
	id, _ := identity.UserID(e.Gateway.Token())
	return id
}
