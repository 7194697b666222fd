//go:build e2e

package e2e

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"llm-chat-client/internal/client"
	"llm-chat-client/internal/config"
	"llm-chat-client/internal/domain"
	"llm-chat-client/internal/llm"
	"llm-chat-client/internal/processor"
	"llm-chat-client/internal/storage"
	"llm-chat-client/internal/types"

	"github.com/joho/godotenv"
)

// liveConfig loads .env from the repo root and skips when no key is set
func liveConfig(t *testing.T) *config.Config {
	t.Helper()
	rootDir := "../../"
	if err := godotenv.Load(filepath.Join(rootDir, ".env")); err != nil {
		t.Logf("no .env loaded: %v", err)
	}
	t.Setenv(config.EnvConfigPath, filepath.Join(rootDir, config.DefaultConfigPath))

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.APIKey == "" {
		t.Skip("Skipping E2E test: LLM_API_KEY not set")
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return cfg
}

func TestE2E_HelloWorld(t *testing.T) {
	cfg := liveConfig(t)

	for _, backend := range []string{config.BackendOpenAI, config.BackendLangChain} {
		t.Run(backend, func(t *testing.T) {
			llmCfg := cfg.LLM
			llmCfg.Backend = backend
			c, err := client.NewLLM(llmCfg)
			if err != nil {
				t.Fatalf("NewLLM: %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			resp, err := c.Invoke(ctx, domain.DefaultPrompt)
			if err != nil {
				t.Fatalf("Invoke failed (%s): %v", types.Kind(err), err)
			}
			if resp.Text == "" {
				t.Fatal("expected non-empty text")
			}
			t.Logf("%s answered with %d chars, %d tokens", c.Name(), len(resp.Text), resp.Usage.TotalTokens)
		})
	}
}

func TestE2E_Ping(t *testing.T) {
	cfg := liveConfig(t)

	c, err := client.NewLLM(cfg.LLM)
	if err != nil {
		t.Fatalf("NewLLM: %v", err)
	}
	pinger, ok := c.(llm.Pinger)
	if !ok {
		t.Skipf("%s does not support ping", c.Name())
	}
	if err := pinger.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestE2E_InvalidKey(t *testing.T) {
	cfg := liveConfig(t)

	llmCfg := cfg.LLM
	llmCfg.APIKey = "sk-invalid-e2e-key"
	c, err := client.NewLLM(llmCfg)
	if err != nil {
		t.Fatalf("NewLLM: %v", err)
	}

	_, err = c.Invoke(context.Background(), domain.DefaultPrompt)
	if kind := types.Kind(err); kind != types.KindProvider && kind != types.KindTransport {
		t.Fatalf("expected provider or transport error, got %q: %v", kind, err)
	}
}

func TestE2E_BatchWithHistory(t *testing.T) {
	cfg := liveConfig(t)

	c, err := client.NewLLM(cfg.LLM)
	if err != nil {
		t.Fatalf("NewLLM: %v", err)
	}
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "e2e.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()

	prompts := []string{"Say one.", "Say two.", "Say three."}
	results := processor.New(c, repo).InvokeAll(context.Background(), prompts, 3)
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("prompt %d failed: %v", i, r.Err)
		}
	}

	records, err := repo.ListRecentExchanges(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentExchanges: %v", err)
	}
	if len(records) != len(prompts) {
		t.Errorf("expected %d records, got %d", len(prompts), len(records))
	}
}
