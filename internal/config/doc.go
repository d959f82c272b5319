// Package config loads transitiongroup.json.
//
// # Configuration File Structure
//
//	{
//	  "reconciler": {
//	    "maxRendersPerSecond": 30,
//	    "keyAttribute": "Key"
//	  },
//	  "transition": {
//	    "durationMs": 300,
//	    "easing": "outQuad"
//	  },
//	  "dev": {
//	    "host": "localhost",
//	    "port": 3100,
//	    "tickMs": 16
//	  },
//	  "metrics": {
//	    "namespace": "transitiongroup"
//	  },
//	  "log": {
//	    "level": "info"
//	  }
//	}
//
// Missing fields keep their defaults. An explicit empty keyAttribute
// disables re-emitting component keys as attributes.
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Port:", cfg.Dev.Port)
package config
