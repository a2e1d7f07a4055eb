// Package cli implements the burrow command line: an interactive chat
// REPL plus memory verbs, wired together at startup from viper config.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/burrowkit/burrow/engine"
	"github.com/burrowkit/burrow/memory"
	"github.com/burrowkit/burrow/memory/embedder/cache"
	"github.com/burrowkit/burrow/memory/embedder/mock"
	ollamaembed "github.com/burrowkit/burrow/memory/embedder/ollama"
	openaiembed "github.com/burrowkit/burrow/memory/embedder/openai"
	"github.com/burrowkit/burrow/memory/store/blob"
	"github.com/burrowkit/burrow/provider"
	"github.com/burrowkit/burrow/safety"
	"github.com/burrowkit/burrow/storage"
	"github.com/burrowkit/burrow/storage/sqlite"
	"github.com/burrowkit/burrow/tools"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "burrow",
	Short: "Conversational agent backend with semantic memory",
	Long: "burrow runs chat turns against a generation backend, grounds them\n" +
		"with semantically recalled memories, and gates everything through a\n" +
		"safety policy.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./burrow.yaml, ~/.burrow/burrow.yaml)")
	rootCmd.PersistentFlags().String("owner", "", "acting owner id (default: local user)")
	viper.BindPFlag("owner", rootCmd.PersistentFlags().Lookup("owner"))
}

func initConfig() error {
	viper.SetDefault("owner", "local")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("provider.kind", "ollama")
	viper.SetDefault("provider.base_url", "")
	viper.SetDefault("provider.model", "")
	viper.SetDefault("provider.temperature", 0.7)
	viper.SetDefault("memory.path", defaultDataPath("memories.json"))
	viper.SetDefault("memory.embedder", "ollama")
	viper.SetDefault("memory.dimensions", 0)
	viper.SetDefault("memory.cache_entries", 4096)
	viper.SetDefault("storage.path", defaultDataPath("burrow.db"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("burrow")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".burrow"))
		}
	}
	viper.SetEnvPrefix("burrow")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	setupLogging(viper.GetString("log.level"))
	return nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".burrow", name)
}

// app holds the wired collaborators for one CLI invocation. Close order
// matters: the memory store is flushed before the conversation store shuts
// down.
type app struct {
	store        storage.Store
	memory       *memory.Manager
	orchestrator *engine.Orchestrator
	owner        string
}

func buildApp() (*app, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}

	mem, err := buildMemory()
	if err != nil {
		store.Close()
		return nil, err
	}

	prov, err := buildProvider()
	if err != nil {
		mem.Close()
		store.Close()
		return nil, err
	}

	registry := tools.NewRegistry()
	registry.Register(tools.NewCalculator())
	registry.Register(tools.NewWebSearch())
	registry.Register(tools.NewWebsiteReader())
	registry.Register(tools.NewFileReader(""))
	registry.Register(tools.NewNotes(store))
	registry.Register(tools.NewReminder(store))

	orch := engine.New(prov, safety.NewGuardian(), store, store,
		engine.WithMemory(mem),
		engine.WithTools(registry),
	)

	return &app{
		store:        store,
		memory:       mem,
		orchestrator: orch,
		owner:        viper.GetString("owner"),
	}, nil
}

// Close flushes and releases resources in dependency order.
func (a *app) Close() {
	if err := a.memory.Close(); err != nil {
		slog.Warn("flushing memory store failed", "error", err)
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("closing storage failed", "error", err)
	}
}

func openStore() (storage.Store, error) {
	path := viper.GetString("storage.path")
	if path == "" {
		return storage.NewMemStore(), nil
	}
	return sqlite.Open(path)
}

func buildMemory() (*memory.Manager, error) {
	store, err := blob.Open(viper.GetString("memory.path"))
	if err != nil {
		return nil, err
	}

	var embedder memory.Embedder
	switch kind := viper.GetString("memory.embedder"); kind {
	case "ollama":
		embedder = ollamaembed.New(ollamaembed.Config{
			BaseURL:    viper.GetString("provider.base_url"),
			Model:      viper.GetString("memory.model"),
			Dimensions: viper.GetInt("memory.dimensions"),
		})
	case "openai":
		embedder = openaiembed.New(openaiembed.Config{
			APIKey:     viper.GetString("provider.api_key"),
			Model:      viper.GetString("memory.model"),
			Dimensions: viper.GetInt("memory.dimensions"),
		})
	case "mock":
		embedder = mock.New()
	default:
		store.Close()
		return nil, fmt.Errorf("unknown embedder kind %q", kind)
	}

	cached, err := cache.New(embedder, viper.GetInt64("memory.cache_entries"))
	if err != nil {
		store.Close()
		return nil, err
	}
	return memory.NewManager(store, cached), nil
}

func buildProvider() (provider.Provider, error) {
	switch kind := viper.GetString("provider.kind"); kind {
	case "ollama":
		return provider.NewOllama(provider.OllamaConfig{
			BaseURL: viper.GetString("provider.base_url"),
			Model:   viper.GetString("provider.model"),
		}), nil
	case "openai":
		return provider.NewOpenAI(provider.OpenAIConfig{
			APIKey:  viper.GetString("provider.api_key"),
			BaseURL: viper.GetString("provider.base_url"),
			Model:   viper.GetString("provider.model"),
		}), nil
	case "anthropic":
		return provider.NewAnthropic(provider.AnthropicConfig{
			APIKey: viper.GetString("provider.api_key"),
			Model:  viper.GetString("provider.model"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", kind)
	}
}
