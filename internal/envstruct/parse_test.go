package envstruct_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/fitsight/internal/envstruct"
)

func lookupFromMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestPopulate(t *testing.T) {
	type config struct {
		Addr            string        `env:"FITSIGHT_ADDR" envDefault:"localhost:8081"`
		FatigueHigh     float64       `env:"FITSIGHT_FATIGUE_HIGH" envDefault:"0.7"`
		MaxVisible      int           `env:"FITSIGHT_MAX_VISIBLE" envDefault:"10"`
		RecoveryHorizon time.Duration `env:"FITSIGHT_RECOVERY_HORIZON" envDefault:"48h"`
		AuditEnabled    bool          `env:"FITSIGHT_AUDIT_ENABLED" envDefault:"true"`
	}

	tests := []struct {
		name string
		env  map[string]string
		want config
	}{
		{
			name: "defaults",
			env:  nil,
			want: config{
				Addr:            "localhost:8081",
				FatigueHigh:     0.7,
				MaxVisible:      10,
				RecoveryHorizon: 48 * time.Hour,
				AuditEnabled:    true,
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"FITSIGHT_ADDR":             "localhost:0",
				"FITSIGHT_FATIGUE_HIGH":     "0.85",
				"FITSIGHT_MAX_VISIBLE":      "5",
				"FITSIGHT_RECOVERY_HORIZON": "72h",
				"FITSIGHT_AUDIT_ENABLED":    "false",
			},
			want: config{
				Addr:            "localhost:0",
				FatigueHigh:     0.85,
				MaxVisible:      5,
				RecoveryHorizon: 72 * time.Hour,
				AuditEnabled:    false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config
			if err := envstruct.Populate(&cfg, lookupFromMap(tt.env)); err != nil {
				t.Fatalf("Populate returned unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPopulateErrors(t *testing.T) {
	t.Run("not a pointer", func(t *testing.T) {
		type config struct{}
		var cfg config
		if err := envstruct.Populate(cfg, lookupFromMap(nil)); err == nil {
			t.Error("expected error for non-pointer value")
		}
	})

	t.Run("missing variable without default", func(t *testing.T) {
		type config struct {
			Required string `env:"FITSIGHT_REQUIRED"`
		}
		var cfg config
		err := envstruct.Populate(&cfg, lookupFromMap(nil))
		if err == nil {
			t.Fatal("expected error for missing variable")
		}
	})

	t.Run("malformed numeric value", func(t *testing.T) {
		type config struct {
			Threshold float64 `env:"FITSIGHT_THRESHOLD"`
		}
		var cfg config
		err := envstruct.Populate(&cfg, lookupFromMap(map[string]string{
			"FITSIGHT_THRESHOLD": "not-a-number",
		}))
		if err == nil {
			t.Fatal("expected error for malformed float")
		}
	})

	t.Run("unsupported field type", func(t *testing.T) {
		type config struct {
			Groups []string `env:"FITSIGHT_GROUPS" envDefault:"a,b"`
		}
		var cfg config
		if err := envstruct.Populate(&cfg, lookupFromMap(nil)); err == nil {
			t.Error("expected error for unsupported slice field")
		}
	})
}
