// Package config loads the depot configuration file.
//
// The configuration lives in depot.yaml (or depot.json) at the project root
// and drives the depot command: bench profiles, the metrics and tracing
// plugins, logging and the hydration seed file.
//
// # Configuration File Structure
//
//	name: shop
//	bench:
//	  profile: standard
//	  profiles:
//	    tiny:
//	      stores: 1
//	      iterations: 100
//	      subscribers: 1
//	      flush: sync
//	metrics:
//	  enabled: true
//	  namespace: shop
//	tracing:
//	  enabled: false
//	hydrate:
//	  seed: ./seed.yaml
//	log:
//	  level: debug
//
// A seed file maps store ids to state:
//
//	counter:
//	  n: 41
//	cart:
//	  items: [apple, pear]
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	profile, err := cfg.Profile(cfg.Bench.Profile)
package config
