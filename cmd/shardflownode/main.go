// Copyright 2018 The go-klaytn Authors
// This file is part of the go-klaytn library.
//
// The go-klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-klaytn library. If not, see <http://www.gnu.org/licenses/>.

// shardflownode wires BlockFlow, FlowHandler, the mempool, the p2p
// server, and an eventbus together into one runnable broker process,
// the role cmd/kcn/main.go plays for the teacher's full node.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/urfave/cli"

	"github.com/shardflow/shardflow-node/blockchain/state"
	"github.com/shardflow/shardflow-node/blockflow"
	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/config"
	"github.com/shardflow/shardflow-node/eventbus"
	"github.com/shardflow/shardflow-node/flowhandler"
	"github.com/shardflow/shardflow-node/log"
	"github.com/shardflow/shardflow-node/mempool"
	"github.com/shardflow/shardflow-node/p2p"
	"github.com/shardflow/shardflow-node/params"
	"github.com/shardflow/shardflow-node/storage/database"
)

var logger = log.NewModuleLogger(log.CMD)

func main() {
	app := cli.NewApp()
	app.Name = "shardflownode"
	app.Usage = "run a sharded proof-of-work broker node"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "datadir", Value: "./data", Usage: "directory for chain and world-state storage"},
		cli.StringFlag{Name: "config", Value: "", Usage: "path to a TOML configuration file (optional)"},
	}
	app.Action = run

	sort.Sort(cli.FlagsByName(app.Flags))
	if err := app.Run(os.Args); err != nil {
		logger.Error("shardflownode: fatal error", "err", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	cfg := config.Default()
	if path := ctx.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if dir := ctx.String("datadir"); dir != "" {
		cfg.DataDir = dir
	}

	db, err := database.NewLDBDatabase(filepath.Join(cfg.DataDir, "chaindata"), 0, 0)
	if err != nil {
		return fmt.Errorf("open chain database: %w", err)
	}
	cachingDB := state.NewCachingDB(db)

	groups := chainindex.Groups(cfg.GroupCount)
	bf := blockflow.New(groups, cfg.ServicedGroups, cachingDB)

	fh := flowhandler.New(bf, groups, params.NetworkID(cfg.LocalNetworkID))
	fh.SetPendingLimit(cfg.StatusSizeLimit)
	fh.Start()
	defer fh.Stop()

	pool := mempool.New()
	var mirror *mempool.RedisMirror
	if cfg.MempoolRedisAddr != "" {
		mirror = mempool.NewRedisMirror(pool, cfg.MempoolRedisAddr)
		defer mirror.Close()
	}

	bus := eventbus.NewLocalBus()
	chainEvents := make(chan flowhandler.Event, 256)
	fh.Register(chainEvents)
	go func() {
		for ev := range chainEvents {
			bus.Publish("chain", ev)
		}
	}()

	server := p2p.NewServer(fh, cfg.ServicedGroups)
	if err := server.Listen(cfg.ListenAddr); err != nil {
		return fmt.Errorf("start p2p server: %w", err)
	}
	defer server.Close()
	for _, addr := range cfg.BootstrapPeers {
		if err := server.Dial(addr); err != nil {
			logger.Warn("shardflownode: failed to dial bootstrap peer", "addr", addr, "err", err)
		}
	}

	logger.Info("shardflownode: started", "id", server.ID(), "listen", cfg.ListenAddr, "groups", cfg.GroupCount)
	return serveHTTP(cfg.HTTPAddr, server, fh)
}

// serveHTTP exposes a small JSON status endpoint alongside a /metrics
// route that serves the default Prometheus registry (promhttp.Handler);
// the instruments in the metrics package's own registry are exported
// only by metrics.ServeHTTP, which this process does not start. Both
// routes are wrapped in CORS so a browser-based explorer can poll them
// directly.
func serveHTTP(addr string, server *p2p.Server, fh *flowhandler.FlowHandler) error {
	router := httprouter.New()
	router.GET("/metrics", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	router.GET("/status", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		status := struct {
			NodeID   string                          `json:"nodeId"`
			SyncInfo map[string]string                `json:"syncInfo"`
		}{NodeID: server.ID(), SyncInfo: make(map[string]string)}
		for idx, hash := range fh.GetSyncInfo() {
			status.SyncInfo[idx.String()] = hash.Hex()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})

	handler := cors.Default().Handler(router)
	logger.Info("shardflownode: http status server listening", "addr", addr)
	return http.ListenAndServe(addr, handler)
}
