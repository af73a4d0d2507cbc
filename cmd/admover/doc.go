// Command admover browses the organizational unit tree of an Active
// Directory domain and moves computer objects between OUs.
//
// It shares its connection settings with the Terraform provider: the same
// AD_* environment variables apply, optionally backed by a TOML file at
// ~/.config/admover/config.toml.
package main
