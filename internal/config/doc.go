// Package config provides configuration parsing for bindkit tools.
//
// The configuration is stored in bindkit.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "dashboard",
//	  "prefix": "bind-",
//	  "ignoredTags": ["script", "textarea", "template"],
//	  "server": {
//	    "host": "localhost",
//	    "port": 8080,
//	    "readHeaderTimeout": "5s"
//	  },
//	  "components": {
//	    "dir": "components",
//	    "ext": ".html",
//	    "s3": {
//	      "bucket": "my-site",
//	      "prefix": "components/",
//	      "region": "eu-west-1"
//	    }
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "bindkit",
//	    "path": "/metrics"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
