package config

import (
	"testing"
	"time"
)

func TestGetBatchConfig(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tests := []struct {
		name        string
		profile     string
		wantSize    int
		wantDelay   time.Duration
		wantRetries int
	}{
		{"default profile", ProfileDefault, 5, time.Second, 3},
		{"csv import profile", ProfileCSVImport, 10, 2 * time.Second, 3},
		{"reanalysis profile", ProfileReanalysis, 3, 1500 * time.Millisecond, 2},
		{"unknown falls back to default", "no-such-profile", 5, time.Second, 3},
		{"empty falls back to default", "", 5, time.Second, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := cfg.GetBatchConfig(tt.profile)
			if p.BatchSize != tt.wantSize {
				t.Errorf("batch size = %d, want %d", p.BatchSize, tt.wantSize)
			}
			if p.Delay != tt.wantDelay {
				t.Errorf("delay = %s, want %s", p.Delay, tt.wantDelay)
			}
			if p.MaxRetries != tt.wantRetries {
				t.Errorf("max retries = %d, want %d", p.MaxRetries, tt.wantRetries)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.LLMModel == "" {
		t.Error("LLM model default missing")
	}
	if cfg.LLMMaxRetries <= 0 {
		t.Errorf("LLM max retries = %d, want > 0", cfg.LLMMaxRetries)
	}
	if cfg.LedgerMaxEntries != 1000 {
		t.Errorf("ledger max entries = %d, want 1000", cfg.LedgerMaxEntries)
	}
}
