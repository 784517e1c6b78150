package config

import "testing"

func TestDefaultTaxPolicy(t *testing.T) {
	policy := DefaultTaxPolicy()
	if policy.VATRate != 0.075 {
		t.Errorf("VAT rate = %v, want 0.075", policy.VATRate)
	}
	if policy.CITRate != 0.30 {
		t.Errorf("CIT rate = %v, want 0.30", policy.CITRate)
	}
	if policy.ExemptionThreshold != 25_000_000 {
		t.Errorf("exemption threshold = %v, want 25000000", policy.ExemptionThreshold)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/stockkeeper_test")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("VAT_RATE", "0.05")
	t.Setenv("CIT_EXEMPTION_THRESHOLD", "100000000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Port)
	}
	if cfg.DBMaxConns != 25 {
		t.Errorf("db max conns = %d, want 25", cfg.DBMaxConns)
	}
	if cfg.Tax.VATRate != 0.05 {
		t.Errorf("VAT rate = %v, want 0.05", cfg.Tax.VATRate)
	}
	if cfg.Tax.CITRate != 0.30 {
		t.Errorf("CIT rate = %v, want default 0.30", cfg.Tax.CITRate)
	}
	if cfg.Tax.ExemptionThreshold != 100_000_000 {
		t.Errorf("threshold = %v, want 100000000", cfg.Tax.ExemptionThreshold)
	}
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestLoadInvalidDBMaxConns(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/stockkeeper_test")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_MAX_CONNS", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid DB_MAX_CONNS")
	}
}

func TestLoadInvalidRate(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/stockkeeper_test")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("VAT_RATE", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid VAT_RATE")
	}
}
