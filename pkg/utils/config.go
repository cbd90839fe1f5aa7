package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret         string
	JWTIssuer         string
	JWTDuration       time.Duration
	AdminUser         string
	AdminPasswordHash string // bcrypt hash; empty disables login entirely
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("SPECHUB_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("SPECHUB_JWT_ISSUER")
	if issuer == "" {
		issuer = "spechub"
	}

	dur := 24 * time.Hour
	if ttl := os.Getenv("SPECHUB_JWT_TTL_HOURS"); ttl != "" {
		if h, err := strconv.Atoi(ttl); err == nil && h > 0 {
			dur = time.Duration(h) * time.Hour
		}
	}

	user := os.Getenv("SPECHUB_ADMIN_USER")
	if user == "" {
		user = "admin"
	}

	return AuthConfig{
		JWTSecret:         secret,
		JWTIssuer:         issuer,
		JWTDuration:       dur,
		AdminUser:         user,
		AdminPasswordHash: os.Getenv("SPECHUB_ADMIN_PASSWORD_HASH"),
	}
}

// DataConfig locates the on-disk stores: registry category files, brand
// catalog files and the template cache artifact.
type DataConfig struct {
	RegistryDir string
	CatalogDir  string
	CachePath   string
}

func LoadDataConfig() DataConfig {
	root := os.Getenv("SPECHUB_DATA_DIR")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = "."
		}
		root = filepath.Join(home, ".spechub", "data")
	}
	return DataConfig{
		RegistryDir: filepath.Join(root, "registry"),
		CatalogDir:  filepath.Join(root, "catalog"),
		CachePath:   filepath.Join(root, "cache", "templates.json"),
	}
}

// PlatformConfig points at the external commerce platform search API
// used by the gap resolver.
type PlatformConfig struct {
	BaseURL string
	Token   string
}

func LoadPlatformConfig() PlatformConfig {
	base := os.Getenv("SPECHUB_PLATFORM_BASE_URL")
	if base == "" {
		base = "https://platform.example.com/api"
	}
	return PlatformConfig{
		BaseURL: base,
		Token:   os.Getenv("SPECHUB_PLATFORM_TOKEN"),
	}
}

func HTTPAddr() string {
	if a := os.Getenv("SPECHUB_HTTP_ADDR"); a != "" {
		return a
	}
	return ":8080"
}
