package config

import (
	"embed"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variable names understood by the gateway
const (
	EnvPort       = "PORT"
	EnvConfigPath = "CONFIG_PATH"
	EnvVerbose    = "BILLGW_VERBOSE"
)

const (
	// DefaultGatewayURL is the production Alipay OpenAPI gateway
	DefaultGatewayURL = "https://openapi.alipay.com/gateway.do"

	// DefaultFileName is the properties file searched for in the working
	// directory and shipped as the bundled fallback
	DefaultFileName = "alipay.properties"
)

// Property keys of the configuration file
const (
	KeyGatewayURL      = "gateway_url"
	KeyBillUserID      = "bill_user_id"
	KeyAppID           = "app_id"
	KeyAppPrivateKey   = "app_private_key"
	KeyAlipayPublicKey = "alipay_public_key"
)

//go:embed alipay.properties.tmpl
var templateProperties string

// bundledFS optionally carries a build-time copy of alipay.properties, the
// Go equivalent of packaging the file on the classpath. This repository ships
// the directory empty; see bundled/README.
//
//go:embed all:bundled
var bundledFS embed.FS

// ErrNotFound is returned by Load when no configuration source exists in any
// of the search locations
var ErrNotFound = errors.New("no " + DefaultFileName + " found")

// Config is the immutable credential snapshot the whole process runs on.
// It is constructed exactly once at startup and never mutated.
type Config struct {
	GatewayURL      string
	BillUserID      string
	AppID           string
	AppPrivateKey   string
	AlipayPublicKey string
}

// Load resolves and parses the configuration. Resolution order, first match
// wins:
//  1. the explicit path (from --config / CONFIG_PATH), erroring if set but
//     unreadable
//  2. alipay.properties in the working directory
//  3. an alipay.properties bundled into the binary
//
// When no source exists, ErrNotFound is returned and the caller is expected
// to bootstrap a template via WriteTemplate and terminate.
func Load(path string) (*Config, error) {
	if path != "" {
		props, err := godotenv.Read(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
		return fromProperties(props)
	}

	if _, err := os.Stat(DefaultFileName); err == nil {
		props, err := godotenv.Read(DefaultFileName)
		if err != nil {
			return nil, errors.Wrapf(err, "read config file %s", DefaultFileName)
		}
		return fromProperties(props)
	}

	data, err := fs.ReadFile(bundledFS, "bundled/"+DefaultFileName)
	if err != nil {
		return nil, ErrNotFound
	}
	props, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse bundled configuration")
	}
	return fromProperties(props)
}

// WriteTemplate writes a documented placeholder alipay.properties into the
// working directory. One-shot bootstrap aid for a fresh deployment.
func WriteTemplate() error {
	if err := os.WriteFile(DefaultFileName, []byte(templateProperties), 0o600); err != nil {
		return errors.Wrap(err, "write template configuration")
	}
	return nil
}

func fromProperties(props map[string]string) (*Config, error) {
	cfg := &Config{
		GatewayURL:      props[KeyGatewayURL],
		BillUserID:      unescapeNewlines(props[KeyBillUserID]),
		AppID:           props[KeyAppID],
		AppPrivateKey:   unescapeNewlines(props[KeyAppPrivateKey]),
		AlipayPublicKey: unescapeNewlines(props[KeyAlipayPublicKey]),
	}
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = DefaultGatewayURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every required field is present, naming the missing
// property keys in the error
func (c *Config) Validate() error {
	var missing []string
	if c.BillUserID == "" {
		missing = append(missing, KeyBillUserID)
	}
	if c.AppID == "" {
		missing = append(missing, KeyAppID)
	}
	if c.AppPrivateKey == "" {
		missing = append(missing, KeyAppPrivateKey)
	}
	if c.AlipayPublicKey == "" {
		missing = append(missing, KeyAlipayPublicKey)
	}
	if len(missing) > 0 {
		return errors.Errorf("configuration is missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// unescapeNewlines converts the two-character \n sequences used to keep PEM
// blocks on a single properties line back into real line breaks
func unescapeNewlines(v string) string {
	return strings.ReplaceAll(v, `\n`, "\n")
}
