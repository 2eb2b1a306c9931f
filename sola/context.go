package sola

import "fmt"

// ConfigVersion is the version of the per-group config structs.
const ConfigVersion = 1

// Context is the runtime context every Sola capability group is built from.
type Context struct {
	WalletPublicKey string
	AuthToken       string
	Client          *Client
}

// DataConfig is read by capabilities that query the data service.
type DataConfig struct {
	Version   int
	AuthToken string
	Client    *Client
}

// WalletConfig is read by capabilities that act on the user's wallet.
type WalletConfig struct {
	Version         int
	WalletPublicKey string
	AuthToken       string
	Client          *Client
}

// IndexConfig is read by capabilities that query public indexes and need no credentials.
type IndexConfig struct {
	Version int
	Client  *Client
}

// Data projects the context onto a DataConfig.
func (c Context) Data() DataConfig {
	return DataConfig{Version: ConfigVersion, AuthToken: c.AuthToken, Client: c.Client}
}

// Wallet projects the context onto a WalletConfig.
func (c Context) Wallet() WalletConfig {
	return WalletConfig{Version: ConfigVersion, WalletPublicKey: c.WalletPublicKey, AuthToken: c.AuthToken, Client: c.Client}
}

// Index projects the context onto an IndexConfig.
func (c Context) Index() IndexConfig {
	return IndexConfig{Version: ConfigVersion, Client: c.Client}
}

// Validate reports whether the config can back a capability.
func (c DataConfig) Validate() error {
	return validate(c.Version, c.Client)
}

// Validate reports whether the config can back a capability.
func (c WalletConfig) Validate() error {
	return validate(c.Version, c.Client)
}

// Validate reports whether the config can back a capability.
func (c IndexConfig) Validate() error {
	return validate(c.Version, c.Client)
}

func validate(version int, client *Client) error {
	if version != ConfigVersion {
		return fmt.Errorf("%w: %d", ErrConfigVersion, version)
	}
	if client == nil {
		return ErrNoClient
	}
	return nil
}
