package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadConfig.
const (
	EnvRedisAddr     = "LATTICE_REDIS_ADDR"
	EnvRedisPrefix   = "LATTICE_REDIS_PREFIX"
	EnvRedisTTL      = "LATTICE_REDIS_TTL"
	EnvLogLevel      = "LATTICE_LOG_LEVEL"
	EnvMCPCommand    = "LATTICE_MCP_COMMAND"
	EnvToolsFile     = "LATTICE_TOOLS_FILE"
	EnvExprLanguage  = "LATTICE_EXPR"
	EnvPIIPatterns   = "LATTICE_PII_PATTERNS"
	EnvEncryptionKey = "LATTICE_ENCRYPTION_KEY"
)

// Config is the host configuration shared by every command. Flags
// override it; it defaults from the environment.
type Config struct {
	RedisAddr   string
	RedisPrefix string
	RedisTTL    time.Duration
	LogLevel    string
	// MCPCommand starts an MCP server whose capabilities Capability
	// nodes can call, e.g. "npx -y @modelcontextprotocol/server-everything".
	MCPCommand string
	// ToolsFile lists local commands served as tool capabilities.
	ToolsFile     string
	ExprLanguage  string
	PIIPatterns   []string
	EncryptionKey []byte
}

// LoadConfig loads the given dotenv files, then reads the environment.
// Missing files are ignored; variables already set in the process win.
func LoadConfig(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		RedisAddr:    os.Getenv(EnvRedisAddr),
		RedisPrefix:  os.Getenv(EnvRedisPrefix),
		LogLevel:     os.Getenv(EnvLogLevel),
		MCPCommand:   os.Getenv(EnvMCPCommand),
		ToolsFile:    os.Getenv(EnvToolsFile),
		ExprLanguage: os.Getenv(EnvExprLanguage),
		PIIPatterns:  splitList(os.Getenv(EnvPIIPatterns)),
	}
	if raw := os.Getenv(EnvRedisTTL); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvRedisTTL, err)
		}
		cfg.RedisTTL = ttl
	}
	if raw := os.Getenv(EnvEncryptionKey); raw != "" {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s must be base64: %w", EnvEncryptionKey, err)
		}
		cfg.EncryptionKey = key
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
