package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultIntervalMs = 3000
	spikeChance       = 0.05 // fraction of pushes sent with out-of-range values
)

var defaultDevices = []string{"jacutinga_b01", "jacutinga_b02", "jacutinga_b03"}

// pumpState is one simulated pump's random walk
type pumpState struct {
	id          string
	bearingTemp float64
	oilTemp     float64
	pressure    float64
}

// alertView mirrors the gateway's alert JSON for the optional polling check
type alertView struct {
	ID           string  `json:"id"`
	DeviceID     string  `json:"deviceId"`
	Metric       string  `json:"metric"`
	Message      string  `json:"message"`
	Value        float64 `json:"value"`
	Acknowledged bool    `json:"acknowledged"`
}

func main() {
	gatewayURL := getEnv("GATEWAY_URL", "http://localhost:8080")
	intervalMs, _ := strconv.Atoi(getEnv("INTERVAL_MS", fmt.Sprintf("%d", defaultIntervalMs)))
	checkAlerts, _ := strconv.ParseBool(getEnv("CHECK_ALERTS", "true"))
	alertCheckIntervalSec, _ := strconv.Atoi(getEnv("ALERT_CHECK_INTERVAL_SEC", "10"))

	pumps := make([]*pumpState, 0, len(defaultDevices))
	for _, id := range defaultDevices {
		pumps = append(pumps, &pumpState{
			id:          id,
			bearingTemp: 45 + rand.Float64()*10,
			oilTemp:     40 + rand.Float64()*10,
			pressure:    4 + rand.Float64()*3,
		})
	}

	logrus.Infof("Starting simulator with %d pumps pushing every %d ms to %s",
		len(pumps), intervalMs, gatewayURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if checkAlerts {
		go pollAlerts(ctx, gatewayURL, time.Duration(alertCheckIntervalSec)*time.Second)
	}

	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			for _, pump := range pumps {
				pump.step()
				pushReading(gatewayURL, pump)
			}
		case <-quit:
			logrus.Info("Simulator stopped")
			return
		}
	}
}

// step advances the random walk, occasionally spiking out of range
func (p *pumpState) step() {
	p.bearingTemp += rand.Float64()*2 - 1
	p.oilTemp += rand.Float64()*2 - 1
	p.pressure += rand.Float64()*0.4 - 0.2

	if rand.Float64() < spikeChance {
		switch rand.Intn(3) {
		case 0:
			p.bearingTemp = 75 + rand.Float64()*10
		case 1:
			p.pressure = 11 + rand.Float64()*3
		case 2:
			p.pressure = 0.5 + rand.Float64()
		}
	}
}

func pushReading(gatewayURL string, pump *pumpState) {
	vx := rand.Float64() * 2
	vy := rand.Float64() * 2
	vz := rand.Float64() * 2

	params := url.Values{}
	params.Set("id", pump.id)
	params.Set("vx", fmt.Sprintf("%.3f", vx))
	params.Set("vy", fmt.Sprintf("%.3f", vy))
	params.Set("vz", fmt.Sprintf("%.3f", vz))
	params.Set("mancal", fmt.Sprintf("%.2f", pump.bearingTemp))
	params.Set("oleo", fmt.Sprintf("%.2f", pump.oilTemp))
	params.Set("pressao", fmt.Sprintf("%.2f", pump.pressure))

	resp, err := http.Get(fmt.Sprintf("%s/ingest?%s", gatewayURL, params.Encode()))
	if err != nil {
		logrus.Warnf("Failed to push reading for %s: %v", pump.id, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.Warnf("Gateway rejected reading for %s: HTTP %d", pump.id, resp.StatusCode)
		return
	}
	logrus.Debugf("Pushed reading for %s (mancal=%.1f pressao=%.1f)", pump.id, pump.bearingTemp, pump.pressure)
}

func pollAlerts(ctx context.Context, gatewayURL string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			resp, err := http.Get(gatewayURL + "/api/alerts?unacknowledged=true")
			if err != nil {
				logrus.Warnf("Failed to poll alerts: %v", err)
				continue
			}
			var alerts []alertView
			if err := json.NewDecoder(resp.Body).Decode(&alerts); err != nil {
				logrus.Warnf("Failed to decode alerts: %v", err)
			}
			resp.Body.Close()
			if len(alerts) > 0 {
				logrus.Infof("%d unacknowledged alert(s)", len(alerts))
				for _, a := range alerts {
					logrus.Infof("  %s: %s (value %.2f)", a.DeviceID, a.Message, a.Value)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
