// Package config loads devcode configuration with koanf.
//
// Layers are applied in order, each overriding the previous one:
//  1. Built-in defaults
//  2. User file: $XDG_CONFIG_HOME/devcode/config.toml
//  3. Project file: <project>/.devcode.toml (or an explicit --config file)
//  4. Environment: DEVCODE_<SECTION>_<KEY>, e.g. DEVCODE_SCAN_SNIPPET_LENGTH
//
// Every layer is optional except the explicit --config file, which must exist.
package config
