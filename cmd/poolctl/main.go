// poolctl loads a pool configuration, activates the requested pools and
// prints a stats snapshot. Handy for checking daemon reachability and
// pool sizing before wiring an application on top.
package main

import (
	"flag"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	log "github.com/sirupsen/logrus"

	"github.com/richardm90/rm-mapepire-go/config"
	"github.com/richardm90/rm-mapepire-go/dbjob"
	"github.com/richardm90/rm-mapepire-go/pool"
	"github.com/richardm90/rm-mapepire-go/registry"
	"github.com/richardm90/rm-mapepire-go/wsjob"
)

func main() {
	configPath := flag.String("config", "pools.yaml", "Pool config file path")
	poolName := flag.String("pool", "", "Only activate the named pool")
	query := flag.String("query", "", "Statement to run on each activated pool")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg.Logging)

	reg := registry.New(0)
	for i := range cfg.Pools {
		pc := cfg.Pools[i]
		if *poolName != "" && pc.Name != *poolName {
			continue
		}

		p, err := pool.NewSessionPool(pc.PoolOptions(sessionFactory(pc)))
		if err != nil {
			log.WithField("pool", pc.Name).Fatalf("build pool: %v", err)
		}
		if err := reg.Register(p); err != nil {
			log.WithField("pool", pc.Name).Fatalf("register pool: %v", err)
		}
	}
	if reg.Len() == 0 {
		fmt.Fprintln(os.Stderr, "no pools selected")
		os.Exit(1)
	}

	defer func() {
		if err := reg.RetireAll(); err != nil {
			log.Warnf("teardown: %v", err)
		}
	}()

	for _, name := range reg.Names() {
		p, err := reg.Get(name)
		if err != nil {
			log.WithField("pool", name).Errorf("activate: %v", err)
			continue
		}

		if *query != "" {
			res, err := p.Query(*query, nil)
			if err != nil {
				log.WithField("pool", name).Errorf("query: %v", err)
			} else {
				fmt.Printf("pool %s: %d rows, update count %d\n",
					name, len(res.Rows), res.UpdateCount)
			}
		}

		fmt.Print(p.Stats())
	}
}

// sessionFactory picks the session implementation for one pool stanza.
func sessionFactory(pc config.PoolConfig) pool.Factory {
	switch pc.Driver {
	case "mysql":
		return func() (pool.Session, error) {
			return dbjob.Open("mysql", pc.DSN)
		}
	default:
		return func() (pool.Session, error) {
			return wsjob.Connect(pc.Address, &wsjob.Options{
				User:               pc.User,
				Password:           pc.Password,
				IgnoreUnauthorized: pc.IgnoreUnauthorized,
			})
		}
	}
}

func setupLogging(lc config.LoggingConfig) {
	if level, err := log.ParseLevel(lc.Level); err == nil {
		log.SetLevel(level)
	}
	if lc.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
}
