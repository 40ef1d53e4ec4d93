// Package config holds all configuration for empresascan.
//
// Configuration comes from three places, in increasing precedence:
//  1. Compiled-in defaults (the Default* constants)
//  2. A YAML configuration file (.empresascan), if present
//  3. CLI flags
//
// The Config struct is populated in the command layer and passed through
// the application via dependency injection. There is no global state.
//
// The YAML file carries per-host settings (cookies, extra headers, delay
// overrides) that do not belong on the command line, such as session
// cookies for directories that gate results behind a login.
package config
