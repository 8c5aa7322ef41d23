package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sentinelops/incidentdesk/internal/config"
	"github.com/sentinelops/incidentdesk/internal/notify"
	"github.com/sentinelops/incidentdesk/internal/service"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	setDefaults()
	viper.Set("auth.bcrypt_cost", 4)
	t.Cleanup(viper.Reset)
}

func newTestStore(t *testing.T) *config.Store {
	t.Helper()
	store, err := config.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	var rec map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
		t.Fatalf("json handler output not JSON: %v (%s)", err, out)
	}
	if rec["msg"] != "shown" || rec["key"] != "value" {
		t.Errorf("record = %v", rec)
	}

	buf.Reset()
	newLogger(&buf, "", "").Info("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("text handler expected, got %s", buf.String())
	}
}

func TestTokenConfigRequiresSecret(t *testing.T) {
	resetViper(t)

	if _, err := service.NewTokenManager(tokenConfig()); err == nil {
		t.Fatal("expected error without a JWT secret")
	}

	viper.Set("auth.jwt_secret", "test-secret")
	cfg := tokenConfig()
	if cfg.AccessTTL.Hours() != 1 || cfg.RefreshTTL.Hours() != 240 {
		t.Errorf("ttls = %v/%v, want 1h/240h", cfg.AccessTTL, cfg.RefreshTTL)
	}
	if _, err := service.NewTokenManager(cfg); err != nil {
		t.Errorf("NewTokenManager: %v", err)
	}
}

func TestOpenStoreUsesDataDir(t *testing.T) {
	resetViper(t)
	dataDir = t.TempDir()
	t.Cleanup(func() { dataDir = "" })

	store, err := openStore()
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer store.Close()
	if store.Driver() != "sqlite" {
		t.Errorf("driver = %q, want sqlite", store.Driver())
	}
}

func TestOpenStoreRequiresDSN(t *testing.T) {
	resetViper(t)
	viper.Set("database.driver", "postgres")

	if _, err := openStore(); err == nil || !strings.Contains(err.Error(), "database.dsn") {
		t.Errorf("expected dsn error, got %v", err)
	}
}

func TestBuildNotifier(t *testing.T) {
	resetViper(t)
	logger := newLogger(&bytes.Buffer{}, "error", "text")

	n, err := buildNotifier(logger)
	if err != nil {
		t.Fatalf("buildNotifier: %v", err)
	}
	router, ok := n.(notify.Router)
	if !ok {
		t.Fatalf("notifier is %T, want notify.Router", n)
	}
	if _, ok := router.Email.(*notify.LogNotifier); !ok {
		t.Errorf("email without smtp host should be logged, got %T", router.Email)
	}

	viper.Set("notify.smtp.host", "smtp.example.com")
	viper.Set("notify.smtp.from", "desk@example.com")
	n, err = buildNotifier(logger)
	if err != nil {
		t.Fatalf("buildNotifier with smtp: %v", err)
	}
	if _, ok := n.(notify.Router).Email.(*notify.SMTPNotifier); !ok {
		t.Errorf("email with smtp host should use SMTP, got %T", n.(notify.Router).Email)
	}

	viper.Set("notify.smtp.from", "")
	if _, err := buildNotifier(logger); err == nil {
		t.Error("expected error for smtp without from address")
	}
}

func TestAdminCreateAndList(t *testing.T) {
	resetViper(t)
	store := newTestStore(t)

	var out bytes.Buffer
	if err := runAdminCreate(&out, store, "  alice ", "s3cret-pass"); err != nil {
		t.Fatalf("runAdminCreate: %v", err)
	}
	if !strings.Contains(out.String(), `"alice"`) {
		t.Errorf("output = %q", out.String())
	}

	admin, err := store.GetAdminByUsername(cmdCtx(), "alice")
	if err != nil {
		t.Fatalf("GetAdminByUsername: %v", err)
	}
	if admin.PasswordHash == "s3cret-pass" || !strings.HasPrefix(admin.PasswordHash, "$2") {
		t.Errorf("password not bcrypt-hashed: %q", admin.PasswordHash)
	}

	if err := runAdminCreate(&out, store, "alice", "other"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("duplicate create: %v", err)
	}
	if err := runAdminCreate(&out, store, " ", "x"); err == nil {
		t.Error("expected error for blank username")
	}

	out.Reset()
	if err := runAdminList(&out, store, true); err != nil {
		t.Fatalf("runAdminList: %v", err)
	}
	if strings.Contains(out.String(), "$2") {
		t.Errorf("admin list leaks password hash: %s", out.String())
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0]["username"] != "alice" {
		t.Errorf("rows = %v", rows)
	}
}

func TestAdminListEmpty(t *testing.T) {
	resetViper(t)
	var out bytes.Buffer
	if err := runAdminList(&out, newTestStore(t), false); err != nil {
		t.Fatalf("runAdminList: %v", err)
	}
	if !strings.Contains(out.String(), "No admin accounts") {
		t.Errorf("output = %q", out.String())
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "incidentdesk.yaml")
	var out bytes.Buffer

	if err := runConfigInit(&out, path, false); err != nil {
		t.Fatalf("runConfigInit: %v", err)
	}
	if _, err := config.LoadYAMLConfig(path); err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if err := runConfigInit(&out, path, false); err == nil {
		t.Error("expected error when file exists")
	}
	if err := runConfigInit(&out, path, true); err != nil {
		t.Errorf("--force should overwrite: %v", err)
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	resetViper(t)
	viper.Set("auth.jwt_secret", "super-secret-value")
	viper.Set("notify.smtp.password", "mail-password")

	var out bytes.Buffer
	if err := runConfigShow(&out); err != nil {
		t.Fatalf("runConfigShow: %v", err)
	}
	body := out.String()
	for _, secret := range []string{"super-secret-value", "mail-password"} {
		if strings.Contains(body, secret) {
			t.Errorf("config show leaks %q:\n%s", secret, body)
		}
	}
	if !strings.Contains(body, "********") {
		t.Errorf("expected redaction marker:\n%s", body)
	}
	if !strings.Contains(body, "port: 8080") {
		t.Errorf("expected server port in output:\n%s", body)
	}
}

func TestRedactMissingKey(t *testing.T) {
	settings := map[string]interface{}{"auth": map[string]interface{}{"jwt_secret": ""}}
	redact(settings, "auth.jwt_secret")
	redact(settings, "notify.smtp.password")
	if settings["auth"].(map[string]interface{})["jwt_secret"] != "" {
		t.Error("empty secret should stay empty")
	}
	if _, ok := settings["notify"]; ok {
		t.Error("redact must not create missing keys")
	}
}

func TestRunOpenAPI(t *testing.T) {
	var out bytes.Buffer
	if err := runOpenAPI(&out, "http://desk.example.com", false); err != nil {
		t.Fatalf("runOpenAPI json: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if doc["openapi"] != "3.1.0" {
		t.Errorf("openapi = %v", doc["openapi"])
	}

	out.Reset()
	if err := runOpenAPI(&out, "http://desk.example.com", true); err != nil {
		t.Fatalf("runOpenAPI yaml: %v", err)
	}
	var ydoc map[string]interface{}
	if err := yaml.Unmarshal(out.Bytes(), &ydoc); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	paths, ok := ydoc["paths"].(map[string]interface{})
	if !ok || paths["/login"] == nil {
		t.Errorf("yaml document missing /login path")
	}
	if strings.HasPrefix(strings.TrimSpace(out.String()), "{") {
		t.Error("yaml output should be block style, not JSON")
	}
}

func TestRunMCPRejectsTransport(t *testing.T) {
	if err := runMCP("carrier-pigeon", 0); err == nil {
		t.Error("expected error for unknown transport")
	}
}
