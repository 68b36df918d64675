package config

import (
	"log/slog"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("textsql-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Database.Default != "retail" {
		t.Fatalf("Database.Default = %q", cfg.Database.Default)
	}
	if path, ok := cfg.Database.Path(""); !ok || path != "data/retail_sample.db" {
		t.Fatalf("Database.Path(\"\") = %q, %v", path, ok)
	}
	if cfg.Database.MaxRows != 100 {
		t.Fatalf("Database.MaxRows = %d", cfg.Database.MaxRows)
	}
	if cfg.Model.Enabled {
		t.Fatal("Model.Enabled should default to false")
	}
	if cfg.Model.Temperature != 0 {
		t.Fatalf("Model.Temperature = %f", cfg.Model.Temperature)
	}
	if !reflect.DeepEqual(cfg.Model.Tables, []string{"customers"}) {
		t.Fatalf("Model.Tables = %#v", cfg.Model.Tables)
	}
	if cfg.Dataset.ObjectKey != "" {
		t.Fatalf("Dataset.ObjectKey = %q", cfg.Dataset.ObjectKey)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	cfg, err := Load("textsql-api", mapLookup(map[string]string{"TEXTSQL_PROFILE": "prod"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("ObjectStore.UseSSL should default to true in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	cfg, err := Load("textsql-api", mapLookup(map[string]string{
		"TEXTSQL_PROFILE":                "test",
		"TEXTSQL_SERVICE_NAME":           "textsql-custom",
		"TEXTSQL_HTTP_ADDR":              ":9999",
		"TEXTSQL_HTTP_READ_TIMEOUT":      "2s",
		"TEXTSQL_HTTP_WRITE_TIMEOUT":     "3s",
		"TEXTSQL_DATABASES":              "retail=/data/retail.db, hr=/data/hr.db",
		"TEXTSQL_DEFAULT_DATABASE":       "hr",
		"TEXTSQL_MAX_ROWS":               "250",
		"TEXTSQL_MODEL_ENABLED":          "true",
		"TEXTSQL_MODEL_BASE_URL":         "https://models.example.com",
		"TEXTSQL_MODEL_API_KEY":          "secret-key",
		"TEXTSQL_MODEL_NAME":             "sql-t5",
		"TEXTSQL_MODEL_TEMPERATURE":      "0.2",
		"TEXTSQL_MODEL_TIMEOUT":          "21s",
		"TEXTSQL_MODEL_TABLES":           "customers, orders",
		"TEXTSQL_OBJECTSTORE_ENDPOINT":   "s3.example.com",
		"TEXTSQL_OBJECTSTORE_BUCKET":     "datasets",
		"TEXTSQL_OBJECTSTORE_REGION":     "us-west-2",
		"TEXTSQL_OBJECTSTORE_ACCESS_KEY": "abc",
		"TEXTSQL_OBJECTSTORE_SECRET_KEY": "def",
		"TEXTSQL_OBJECTSTORE_USE_SSL":    "true",
		"TEXTSQL_OBJECTSTORE_PREFIX":     "demo",
		"TEXTSQL_DATASET_OBJECT_KEY":     "retail/retail_sample.db",
		"TEXTSQL_LOG_LEVEL":              "error",
		"TEXTSQL_LOG_JSON":               "false",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "textsql-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second || cfg.HTTP.WriteTimeout != 3*time.Second {
		t.Fatalf("HTTP timeouts = %s/%s", cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout)
	}
	if cfg.Database.Default != "hr" {
		t.Fatalf("Database.Default = %q", cfg.Database.Default)
	}
	if !reflect.DeepEqual(cfg.Database.Names(), []string{"hr", "retail"}) {
		t.Fatalf("Database.Names() = %#v", cfg.Database.Names())
	}
	if path, ok := cfg.Database.Path("retail"); !ok || path != "/data/retail.db" {
		t.Fatalf("Database.Path(retail) = %q, %v", path, ok)
	}
	if cfg.Database.MaxRows != 250 {
		t.Fatalf("Database.MaxRows = %d", cfg.Database.MaxRows)
	}
	if !cfg.Model.Enabled {
		t.Fatal("Model.Enabled = false, want true")
	}
	if cfg.Model.BaseURL != "https://models.example.com" || cfg.Model.APIKey != "secret-key" || cfg.Model.Name != "sql-t5" {
		t.Fatalf("Model = %+v", cfg.Model)
	}
	if cfg.Model.Temperature != 0.2 {
		t.Fatalf("Model.Temperature = %f", cfg.Model.Temperature)
	}
	if cfg.Model.Timeout != 21*time.Second {
		t.Fatalf("Model.Timeout = %s", cfg.Model.Timeout)
	}
	if !reflect.DeepEqual(cfg.Model.Tables, []string{"customers", "orders"}) {
		t.Fatalf("Model.Tables = %#v", cfg.Model.Tables)
	}
	if cfg.ObjectStore.Endpoint != "s3.example.com" || cfg.ObjectStore.Bucket != "datasets" || cfg.ObjectStore.Prefix != "demo" {
		t.Fatalf("ObjectStore = %+v", cfg.ObjectStore)
	}
	if cfg.Dataset.ObjectKey != "retail/retail_sample.db" {
		t.Fatalf("Dataset.ObjectKey = %q", cfg.Dataset.ObjectKey)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Observability.LogJSON {
		t.Fatal("LogJSON = true, want false")
	}
}

func TestLoadBarePathRegistersDefaultDatabase(t *testing.T) {
	cfg, err := Load("textsql-api", mapLookup(map[string]string{
		"TEXTSQL_DATABASES": "/tmp/demo.db",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Default != "default" {
		t.Fatalf("Database.Default = %q", cfg.Database.Default)
	}
	if path, ok := cfg.Database.Path(""); !ok || path != "/tmp/demo.db" {
		t.Fatalf("Database.Path(\"\") = %q, %v", path, ok)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"TEXTSQL_PROFILE": "oops"},
		{"TEXTSQL_HTTP_READ_TIMEOUT": "NaN"},
		{"TEXTSQL_MAX_ROWS": "oops"},
		{"TEXTSQL_MAX_ROWS": "0"},
		{"TEXTSQL_MODEL_TEMPERATURE": "bad"},
		{"TEXTSQL_MODEL_ENABLED": "not-bool"},
		{"TEXTSQL_MODEL_TIMEOUT": "0"},
		{"TEXTSQL_MODEL_TIMEOUT": "-5s"},
		{"TEXTSQL_MODEL_TABLES": " , "},
		{"TEXTSQL_DATABASES": "retail="},
		{"TEXTSQL_DATABASES": "a=/x.db,a=/y.db"},
		{"TEXTSQL_DATABASES": ","},
		{"TEXTSQL_DEFAULT_DATABASE": "missing"},
		{"TEXTSQL_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("textsql-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
