// Package cliconfig reads the stock Solana CLI configuration so the tool
// picks up the same RPC endpoint and payer keypair as the solana command.
package cliconfig

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Public RPC endpoints for the well known clusters.
const (
	MainnetBeta = "https://api.mainnet-beta.solana.com"
	Devnet      = "https://api.devnet.solana.com"
	Testnet     = "https://api.testnet.solana.com"
	Localhost   = "http://127.0.0.1:8899"
)

const defaultKeypairPath = "~/.config/solana/id.json"

// Config mirrors the fields of the Solana CLI config file that this tool
// consumes.
type Config struct {
	JSONRPCURL  string `yaml:"json_rpc_url"`
	KeypairPath string `yaml:"keypair_path"`
}

// DefaultPath returns the stock Solana CLI config location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate home directory")
	}
	return filepath.Join(home, ".config", "solana", "cli", "config.yml"), nil
}

// LoadFrom reads a Solana CLI config file from an explicit path.
func LoadFrom(path string) (*Config, error) {
	raw, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	config := &Config{}
	if err := yaml.Unmarshal(raw, config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return config, nil
}

// Load reads the config from the stock location. A missing or malformed
// file falls back to the defaults the Solana tooling ships with.
func Load() *Config {
	config := &Config{
		JSONRPCURL:  MainnetBeta,
		KeypairPath: defaultKeypairPath,
	}

	path, err := DefaultPath()
	if err != nil {
		return config
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		return config
	}

	if loaded.JSONRPCURL != "" {
		config.JSONRPCURL = loaded.JSONRPCURL
	}
	if loaded.KeypairPath != "" {
		config.KeypairPath = loaded.KeypairPath
	}
	return config
}

// ResolveEndpoint maps cluster shorthands to their public RPC endpoints.
// Anything that isn't a known alias passes through untouched.
func ResolveEndpoint(url string) string {
	switch strings.ToLower(url) {
	case "m", "main", "mainnet", "mainnet-beta":
		return MainnetBeta
	case "d", "dev", "devnet":
		return Devnet
	case "t", "test", "testnet":
		return Testnet
	case "l", "local", "localhost":
		return Localhost
	}
	return url
}

// ExpandPath substitutes a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// LoadKeypair reads a Solana id.json keypair file, a JSON array holding
// the 64 bytes of the expanded private key.
func LoadKeypair(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keypair file %s", path)
	}

	var values []int
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, errors.Wrapf(err, "failed to parse keypair file %s", path)
	}
	if len(values) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("keypair file %s holds %d bytes, expected %d", path, len(values), ed25519.PrivateKeySize)
	}

	key := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("keypair file %s holds an out of range value at index %d", path, i)
		}
		key[i] = byte(v)
	}

	// The file stores the seed followed by the public key. Reject files
	// where the halves don't belong together, signing with them would
	// produce garbage.
	if !ed25519.NewKeyFromSeed(key.Seed()).Equal(key) {
		return nil, errors.Errorf("keypair file %s holds a mismatched key", path)
	}

	return key, nil
}
