// Package config loads and validates admover CLI configuration.
//
// Settings come from struct defaults, then an optional TOML file
// (~/.config/admover/config.toml by default), then AD_* environment
// variables, the same names the Terraform provider reads. The result is
// translated into ldap package types by the accessor methods.
package config
