package main

import (
	"log"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const statsViewAddr = "localhost:12600"

func launchStatsView() {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(statsViewAddr))
		mgr := statsview.New()
		if err := mgr.Start(); err != nil {
			log.Printf("statsview stopped: %s", err)
		}
	}()
	log.Printf("stats server available at %s/debug/statsview", statsViewAddr)
}
