// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

/*
Package config loads usercenter configuration with koanf.

Configuration is layered, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file, located via CONFIG_PATH or DefaultConfigPaths
 3. Environment variables, mapped explicitly by envTransformFunc

Unmapped environment variables are ignored. Comma-separated values are split
for slice fields such as security.cors_origins.

Example config.yaml:

	server:
	  port: 8080
	database:
	  driver: duckdb
	  path: /data/usercenter.duckdb
	cache:
	  driver: badger
	  path: /data/cache
	guard:
	  daily_limit: 5
	  timezone: Asia/Shanghai
	match:
	  tie_policy: last_write_wins
	  exclusion: value

Load always validates; see Config.Validate for the rules.
*/
package config
