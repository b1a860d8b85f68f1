// Package config loads the optional tunnel-launcher configuration file and
// the env file whose entries are handed to the tunneling process.
//
// The config file is YAML by default (gopkg.in/yaml.v3). Files ending in
// .json or .jsonc are parsed as JSON with comments, using
// github.com/tidwall/jsonc to strip comments and trailing commas before
// encoding/json decodes them. Env files are parsed with
// github.com/joho/godotenv.
package config
