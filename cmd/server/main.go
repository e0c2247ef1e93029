package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wbreen/CatanFinal-sub001/internal/bot"
	"github.com/wbreen/CatanFinal-sub001/internal/cluster"
	"github.com/wbreen/CatanFinal-sub001/internal/events"
	"github.com/wbreen/CatanFinal-sub001/internal/network"
	"github.com/wbreen/CatanFinal-sub001/internal/session"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	// A .env file is optional; real deployments set the environment.
	godotenv.Load()

	var (
		httpAddr    = flag.String("http", envOr("HTTP_ADDR", ":8080"), "websocket/health listen address")
		tcpAddr     = flag.String("tcp", envOr("TCP_ADDR", ":8880"), "raw tcp listen address")
		natsURL     = flag.String("nats", os.Getenv("NATS_URL"), "nats server url (empty disables publishing)")
		consulAddr  = flag.String("consul", os.Getenv("CONSUL_HTTP_ADDR"), "consul agent address (empty disables registration)")
		robotCookie = flag.String("robot-cookie", envOr("ROBOT_COOKIE", "local-robots"), "shared secret for robot clients")
		turnSecs    = flag.Int("turn-timeout", envIntOr("TURN_TIMEOUT_SECS", 90), "seconds before a stalled turn is forced")
		discardSecs = flag.Int("discard-timeout", envIntOr("DISCARD_TIMEOUT_SECS", 30), "seconds before overdue discards are forced")
	)
	flag.Parse()

	manager := session.NewManager(session.Config{
		MinVersion:   1,
		RobotCookie:  *robotCookie,
		TurnAfter:    time.Duration(*turnSecs) * time.Second,
		DiscardAfter: time.Duration(*discardSecs) * time.Second,
	})

	if *natsURL != "" {
		pub, err := events.Connect(*natsURL)
		if err != nil {
			log.Fatalf("nats: %v", err)
		}
		defer pub.Close()
		manager.SetSummaryPublisher(pub)
	}

	// Robots dial our own TCP listener and play over the same protocol as
	// everyone else.
	botAddr := *tcpAddr
	if strings.HasPrefix(botAddr, ":") {
		botAddr = "127.0.0.1" + botAddr
	}
	manager.SetRobotSpawner(&bot.Spawner{Addr: botAddr, Cookie: *robotCookie})

	go manager.RunWatchdog()

	server := network.NewServer(manager)
	go func() {
		if err := server.ListenTCP(*tcpAddr); err != nil {
			log.Fatalf("tcp server: %v", err)
		}
	}()

	if *consulAddr != "" {
		httpPort := envIntOr("HTTP_PORT", 8080)
		if err := cluster.RegisterService(*consulAddr, "game-server", httpPort, httpPort); err != nil {
			log.Printf("consul registration failed, continuing standalone: %v", err)
		}
	}

	if err := server.ListenHTTP(*httpAddr); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
