// Package config loads igunfollowers settings from defaults, a YAML file,
// .env files, IGUNFOLLOWERS_* environment variables and command line flags,
// in increasing order of precedence.
//
//	cfg, err := config.Load("", map[string]interface{}{
//	    "sessions-dir": "./sessions",
//	    "log-level":    "debug",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
