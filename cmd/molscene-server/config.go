package main

import (
	"flag"
	"log"
	"os"
	"strconv"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr               string
	DBPath             string
	LogLevel           string
	MaxStructures      int
	LargeAtomThreshold int
	BondOffloadAtoms   int
	BondWorkers        int
	LayoutGap          float64
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string)
}

func intSetter(name string, def int, assign func(*ServerConfig, int)) func(*ServerConfig, string) {
	return func(c *ServerConfig, v string) {
		if val, err := strconv.Atoi(v); err == nil {
			assign(c, val)
		} else {
			log.Printf("Invalid value for %s: %s, using default %d", name, v, def)
			assign(c, def)
		}
	}
}

// loadServerConfig loads server configuration from CLI flags and environment variables.
// Uses a resolver pattern to make it easy to add new configuration options.
func loadServerConfig() ServerConfig {
	cfg := ServerConfig{}

	// Define all configuration resolvers
	// To add a new option, just add a new resolver here
	resolvers := []configResolver{
		{
			flagName:    "addr",
			envVarName:  "MOLSCENE_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "db-path",
			envVarName:  "MOLSCENE_DB_PATH",
			defaultVal:  "./data/molscene.db",
			description: "Path of the SQLite file backing saved molecules and panel flags",
			setter:      func(c *ServerConfig, v string) { c.DBPath = v },
		},
		{
			flagName:    "log-level",
			envVarName:  "MOLSCENE_LOG_LEVEL",
			defaultVal:  "info",
			description: "Log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
		{
			flagName:    "max-structures",
			envVarName:  "MOLSCENE_MAX_STRUCTURES",
			defaultVal:  "10",
			description: "Hard capacity of a scene; loads beyond it are rejected",
			setter: intSetter("max-structures", 10, func(c *ServerConfig, v int) {
				c.MaxStructures = v
			}),
		},
		{
			flagName:    "large-atom-threshold",
			envVarName:  "MOLSCENE_LARGE_ATOM_THRESHOLD",
			defaultVal:  "500",
			description: "Atom count above which smart defaults use cheaper settings",
			setter: intSetter("large-atom-threshold", 500, func(c *ServerConfig, v int) {
				c.LargeAtomThreshold = v
			}),
		},
		{
			flagName:    "bond-offload-atoms",
			envVarName:  "MOLSCENE_BOND_OFFLOAD_ATOMS",
			defaultVal:  "500",
			description: "Atom count above which bond inference runs on the background worker",
			setter: intSetter("bond-offload-atoms", 500, func(c *ServerConfig, v int) {
				c.BondOffloadAtoms = v
			}),
		},
		{
			flagName:    "bond-workers",
			envVarName:  "MOLSCENE_BOND_WORKERS",
			defaultVal:  "2",
			description: "Number of background bond-inference workers; 0 disables offloading",
			setter: intSetter("bond-workers", 2, func(c *ServerConfig, v int) {
				c.BondWorkers = v
			}),
		},
		{
			flagName:    "layout-gap",
			envVarName:  "MOLSCENE_LAYOUT_GAP",
			defaultVal:  "5.0",
			description: "Gap between structures in side-by-side layout, in angstroms",
			setter: func(c *ServerConfig, v string) {
				if val, err := strconv.ParseFloat(v, 64); err == nil {
					c.LayoutGap = val
				} else {
					log.Printf("Invalid value for layout-gap: %s, using default 5.0", v)
					c.LayoutGap = 5.0
				}
			},
		},
	}

	// Register string flags first
	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = flag.String(resolver.flagName, "", resolver.description)
	}

	// Parse flags once
	flag.Parse()

	// Resolve values for each resolver
	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := os.Getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		resolver.setter(&cfg, value)
	}

	return cfg
}
