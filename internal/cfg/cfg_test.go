package cfg

import (
	"os"
	"testing"

	"github.com/met-galaxy/field-engine/pkg/logger"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_HOST", "POSTGRES_PORT", "SSL_MODE",
		"HTTP_PORT", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "KEEP_ALIVE",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "KAFKA_PARTITIONS", "REPLICATION_FACTOR", "KAFKA_NETWORK_MODE",
		"PCA_BASIS_PATH", "FIELD_MIN_COUNT", "FIELD_MAX_COUNT", "FIELD_MAX_CHUNKS",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoadMissingPostgresUser(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	if _, err := Load(logger.NewSlogLogger()); err == nil {
		t.Fatalf("expected error when POSTGRES_USER is unset")
	}
}

func TestLoadMissingKafkaBrokers(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	os.Setenv("POSTGRES_USER", "u")
	os.Setenv("POSTGRES_PASSWORD", "p")
	os.Setenv("POSTGRES_DB", "d")

	if _, err := Load(logger.NewSlogLogger()); err == nil {
		t.Fatalf("expected error when KAFKA_BROKERS is unset")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	os.Setenv("POSTGRES_USER", "u")
	os.Setenv("POSTGRES_PASSWORD", "p")
	os.Setenv("POSTGRES_DB", "d")
	os.Setenv("KAFKA_BROKERS", "localhost:9092")
	os.Setenv("KAFKA_TOPIC", "field-events")

	c, err := Load(logger.NewSlogLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Db.Host != "localhost" || c.Db.Port != "5432" || c.Db.SSLMode != "disable" {
		t.Fatalf("unexpected db defaults: %+v", c.Db)
	}
	if c.Http.Port != "8080" {
		t.Fatalf("unexpected http port default: %v", c.Http.Port)
	}
	if c.Kafka.Partitions != 3 || c.Kafka.ReplicationFactor != 1 {
		t.Fatalf("unexpected kafka defaults: %+v", c.Kafka)
	}
	if c.Field.MinCount != 1 || c.Field.MaxCount != 50 || c.Field.MaxChunks != 16 {
		t.Fatalf("unexpected field defaults: %+v", c.Field)
	}
	if c.Field.PCABasisPath != "pca_basis.json" {
		t.Fatalf("unexpected pca basis path default: %v", c.Field.PCABasisPath)
	}
}

func TestLoadFieldCfgOverrides(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	os.Setenv("FIELD_MIN_COUNT", "5")
	os.Setenv("FIELD_MAX_COUNT", "25")
	os.Setenv("FIELD_MAX_CHUNKS", "4")
	os.Setenv("PCA_BASIS_PATH", "/tmp/basis.json")

	f := loadFieldCfg()
	if f.MinCount != 5 || f.MaxCount != 25 || f.MaxChunks != 4 {
		t.Fatalf("expected overridden field cfg, got %+v", f)
	}
	if f.PCABasisPath != "/tmp/basis.json" {
		t.Fatalf("expected overridden basis path, got %v", f.PCABasisPath)
	}
}

func TestLoadFieldCfgInvalidIntFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	os.Setenv("FIELD_MIN_COUNT", "not-a-number")

	f := loadFieldCfg()
	if f.MinCount != 1 {
		t.Fatalf("expected fallback to default 1, got %v", f.MinCount)
	}
}
